// Package dispatch delivers appended safety events to everyone who watches
// a ride: live websocket clients, the Kafka escalation topic, RabbitMQ
// consumers, Redis subscribers and an on-call webhook.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/observability"
)

type Notifier interface {
	Notify(ctx context.Context, rideID string, ev models.SafetyEvent) error
}

// Envelope is the wire form shared by every transport.
type Envelope struct {
	RideID string             `json:"ride_id"`
	Event  models.SafetyEvent `json:"event"`
}

type target struct {
	name string
	n    Notifier
}

// Fanout calls every registered notifier and joins their errors.
// A failing target does not stop the others.
type Fanout struct {
	targets []target
}

func NewFanout() *Fanout { return &Fanout{} }

func (f *Fanout) Add(name string, n Notifier) {
	f.targets = append(f.targets, target{name: name, n: n})
}

func (f *Fanout) Len() int { return len(f.targets) }

func (f *Fanout) Notify(ctx context.Context, rideID string, ev models.SafetyEvent) error {
	var errs []error
	for _, t := range f.targets {
		if err := t.n.Notify(ctx, rideID, ev); err != nil {
			observability.NotifierFailures.WithLabelValues(t.name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}

// Escalates reports whether an event needs a human on call.
func Escalates(ev models.SafetyEvent) bool {
	switch ev.Type {
	case models.EventEmergencyAction:
		return true
	case models.EventVoiceAlert:
		return ev.Level == "DISTRESS"
	}
	return false
}
