package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/observability"
)

var ErrNoSession = errors.New("no ws session")

// DefaultWriteWait bounds a single websocket write. A client that stops
// reading is dropped once its send buffer stays full this long.
const DefaultWriteWait = 5 * time.Second

// wsConn is the part of *websocket.Conn a session writes through.
type wsConn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// WSSession represents one rider or guardian watching a ride.
type WSSession struct {
	conn      wsConn
	writeWait time.Duration
	mu        sync.Mutex
}

func (s *WSSession) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// WSRegistry holds live sessions per ride.
type WSRegistry struct {
	mu        sync.RWMutex
	sessions  map[string]map[*WSSession]struct{}
	writeWait time.Duration
}

func NewWSRegistry() *WSRegistry {
	return NewWSRegistryWithWriteWait(DefaultWriteWait)
}

func NewWSRegistryWithWriteWait(d time.Duration) *WSRegistry {
	if d <= 0 {
		d = DefaultWriteWait
	}
	return &WSRegistry{sessions: make(map[string]map[*WSSession]struct{}), writeWait: d}
}

func (r *WSRegistry) Add(rideID string, conn wsConn) *WSSession {
	s := &WSSession{conn: conn, writeWait: r.writeWait}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[rideID]
	if !ok {
		set = make(map[*WSSession]struct{})
		r.sessions[rideID] = set
	}
	set[s] = struct{}{}
	observability.WSSubscribers.Inc()
	return s
}

func (r *WSRegistry) Remove(rideID string, s *WSSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[rideID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	observability.WSSubscribers.Dec()
	if len(set) == 0 {
		delete(r.sessions, rideID)
	}
}

// CloseRide drops and closes every session of a finished ride.
func (r *WSRegistry) CloseRide(rideID string) int {
	r.mu.Lock()
	set := r.sessions[rideID]
	delete(r.sessions, rideID)
	r.mu.Unlock()

	for s := range set {
		observability.WSSubscribers.Dec()
		_ = s.conn.Close()
	}
	return len(set)
}

func (r *WSRegistry) Count(rideID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[rideID])
}

// Notify writes the event to every session of the ride. Sessions that fail
// are dropped and closed. No subscribers is not an error.
func (r *WSRegistry) Notify(_ context.Context, rideID string, ev models.SafetyEvent) error {
	r.mu.RLock()
	targets := make([]*WSSession, 0, len(r.sessions[rideID]))
	for s := range r.sessions[rideID] {
		targets = append(targets, s)
	}
	r.mu.RUnlock()

	var errs []error
	msg := Envelope{RideID: rideID, Event: ev}
	for _, s := range targets {
		if err := s.Send(msg); err != nil {
			errs = append(errs, err)
			r.Remove(rideID, s)
			_ = s.conn.Close()
		}
	}
	return errors.Join(errs...)
}
