// Package rides owns the live ride registry: every active ride, its
// append-only safety event log and the background monitor watching it.
package rides

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-guardian/internal/assistant"
	"github.com/example/ride-guardian/internal/geo"
	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/observability"
)

var (
	ErrRideNotFound      = errors.New("ride not found")
	ErrUnknownLocation   = errors.New("unknown location")
	ErrInvalidRouteType  = errors.New("invalid route type")
	ErrNoDriver          = errors.New("no driver available")
	ErrRegistryClosed    = errors.New("registry closed")
	ErrMissingDependency = errors.New("missing dependency")
)

type Catalog interface {
	Location(key string) (models.Location, bool)
	LocationSafety(key string) (float64, bool)
}

type Assigner interface {
	Assign(ctx context.Context) (models.Driver, bool)
}

type Estimator interface {
	EstimateMinutes(ctx context.Context, pickup, dropoff models.Location, routeType models.RouteType) int
}

type Assistant interface {
	Classify(ctx context.Context, text string, vc assistant.VoiceContext) assistant.Result
	CheckIn(ctx context.Context, cc assistant.CheckInContext) string
	Summarize(ctx context.Context, r models.Report) assistant.Summary
	AssessRide(ctx context.Context, rc assistant.RideContext) (assistant.RideAssessment, bool)
}

type Notifier interface {
	Notify(ctx context.Context, rideID string, ev models.SafetyEvent) error
}

type Archive interface {
	SaveReport(r models.Report) error
}

type Config struct {
	MonitorInterval      time.Duration
	DeviationProbability float64
	TrustedContacts      []string
}

// Deps are the collaborators of a Registry. Notifier and Archive are
// optional; the function fields default to the real clock, math/rand and uuid.
type Deps struct {
	Catalog   Catalog
	Assigner  Assigner
	Estimator Estimator
	Assistant Assistant
	Notifier  Notifier
	Archive   Archive
	Logger    *slog.Logger

	Now     func() time.Time
	Float64 func() float64
	NewID   func() string
}

type Registry struct {
	cfg  Config
	deps Deps

	mu     sync.RWMutex
	rides  map[string]*entry
	closed bool
}

// entry guards one ride. The monitor goroutine closes done on exit.
type entry struct {
	mu     sync.Mutex
	ride   models.Ride
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRegistry(cfg Config, deps Deps) (*Registry, error) {
	if deps.Catalog == nil || deps.Assigner == nil || deps.Estimator == nil || deps.Assistant == nil {
		return nil, fmt.Errorf("rides.NewRegistry: %w", ErrMissingDependency)
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 10 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Float64 == nil {
		deps.Float64 = rand.Float64
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Registry{cfg: cfg, deps: deps, rides: make(map[string]*entry)}, nil
}

// Start registers a new ACTIVE ride and launches its monitor.
func (r *Registry) Start(ctx context.Context, pickupKey, dropoffKey string, routeType models.RouteType) (models.Ride, error) {
	const op = "Registry.Start"

	pickup, ok := r.deps.Catalog.Location(pickupKey)
	if !ok {
		return models.Ride{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownLocation, pickupKey)
	}
	dropoff, ok := r.deps.Catalog.Location(dropoffKey)
	if !ok {
		return models.Ride{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownLocation, dropoffKey)
	}
	switch routeType {
	case "":
		routeType = models.RouteStandard
	case models.RouteStandard, models.RouteSafe:
	default:
		return models.Ride{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidRouteType, routeType)
	}
	driver, ok := r.deps.Assigner.Assign(ctx)
	if !ok {
		return models.Ride{}, fmt.Errorf("%s: %w", op, ErrNoDriver)
	}

	ride := models.Ride{
		ID:                "RIDE_" + r.deps.NewID(),
		Driver:            driver,
		Pickup:            pickup,
		Dropoff:           dropoff,
		EstimatedDuration: r.deps.Estimator.EstimateMinutes(ctx, pickup, dropoff, routeType),
		RouteType:         routeType,
		Status:            models.RideActive,
		StartTime:         r.deps.Now(),
		Events:            []models.SafetyEvent{},
	}
	if ride.EstimatedDuration <= 0 {
		ride.EstimatedDuration = 1
	}

	mctx, cancel := context.WithCancel(context.Background())
	e := &entry{ride: ride, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		return models.Ride{}, fmt.Errorf("%s: %w", op, ErrRegistryClosed)
	}
	r.rides[ride.ID] = e
	r.mu.Unlock()

	go r.monitor(mctx, e)

	observability.RidesStarted.Inc()
	observability.ActiveRides.Inc()
	r.deps.Logger.Info("ride started",
		"ride_id", ride.ID,
		"driver_id", driver.ID,
		"pickup", pickup.Key,
		"dropoff", dropoff.Key,
		"route_type", routeType,
		"estimated_minutes", ride.EstimatedDuration,
	)
	return cloneRide(ride), nil
}

// Position is the simulated whereabouts of a ride.
type Position struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}

type Status struct {
	RideID            string               `json:"ride_id"`
	Status            models.RideStatus    `json:"status"`
	Progress          float64              `json:"progress"`
	ElapsedMinutes    float64              `json:"elapsed_minutes"`
	EstimatedDuration int                  `json:"estimated_duration"`
	Events            []models.SafetyEvent `json:"safety_events"`
	CurrentLocation   Position             `json:"current_location"`
}

func (r *Registry) Status(_ context.Context, id string) (Status, error) {
	e, err := r.get(id)
	if err != nil {
		return Status{}, fmt.Errorf("Registry.Status: %w", err)
	}
	e.mu.Lock()
	ride := cloneRide(e.ride)
	e.mu.Unlock()

	elapsed, progress := r.progress(ride)
	at := geo.Interpolate(ride.Pickup.Coords, ride.Dropoff.Coords, progress/100)
	return Status{
		RideID:            ride.ID,
		Status:            ride.Status,
		Progress:          models.Round(progress, 1),
		ElapsedMinutes:    models.Round(elapsed, 1),
		EstimatedDuration: ride.EstimatedDuration,
		Events:            ride.Events,
		CurrentLocation: Position{
			Lat:     models.Round(at.Lat, 6),
			Lon:     models.Round(at.Lon, 6),
			Address: fmt.Sprintf("En route - %d%% completed", int(math.Round(progress))),
		},
	}, nil
}

// progress returns elapsed minutes and percent complete in [0,100].
func (r *Registry) progress(ride models.Ride) (float64, float64) {
	elapsed := r.deps.Now().Sub(ride.StartTime).Minutes()
	if elapsed < 0 {
		elapsed = 0
	}
	p := elapsed / float64(ride.EstimatedDuration) * 100
	return elapsed, math.Max(0, math.Min(100, p))
}

// AppendVoiceEvent classifies the transcript and logs a VOICE_ALERT for
// CONCERN and DISTRESS.
func (r *Registry) AppendVoiceEvent(ctx context.Context, id, text string) (assistant.Result, error) {
	const op = "Registry.AppendVoiceEvent"

	e, err := r.get(id)
	if err != nil {
		return assistant.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	e.mu.Lock()
	ride := cloneRide(e.ride)
	e.mu.Unlock()

	elapsed, progress := r.progress(ride)
	res := r.deps.Assistant.Classify(ctx, text, assistant.VoiceContext{
		RideID:         id,
		ElapsedMinutes: models.Round(elapsed, 1),
		Location:       fmt.Sprintf("between %s and %s, %.0f%% of the way", ride.Pickup.Name, ride.Dropoff.Name, progress),
	})
	if res.Level == assistant.LevelNormal {
		return res, nil
	}
	ev := models.SafetyEvent{
		Timestamp: r.deps.Now(),
		Type:      models.EventVoiceAlert,
		Level:     string(res.Level),
		Details:   fmt.Sprintf("Voice analysis detected %s", res.Level),
	}
	if err := r.appendEvent(ctx, id, e, ev); err != nil {
		return assistant.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// EmergencyAck is what the rider sees after triggering an action.
type EmergencyAck struct {
	Action       string   `json:"action"`
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	EmergencyID  string   `json:"emergency_id,omitempty"`
	SharedWith   []string `json:"shared_with,omitempty"`
	MonitoringID string   `json:"monitoring_id,omitempty"`
}

func (r *Registry) AppendEmergencyEvent(ctx context.Context, id, action string) (EmergencyAck, error) {
	const op = "Registry.AppendEmergencyEvent"

	e, err := r.get(id)
	if err != nil {
		return EmergencyAck{}, fmt.Errorf("%s: %w", op, err)
	}
	ev := models.SafetyEvent{
		Timestamp: r.deps.Now(),
		Type:      models.EventEmergencyAction,
		Action:    action,
		Status:    "TRIGGERED",
	}
	if err := r.appendEvent(ctx, id, e, ev); err != nil {
		return EmergencyAck{}, fmt.Errorf("%s: %w", op, err)
	}

	ack := EmergencyAck{Action: action, Status: "SUCCESS"}
	switch action {
	case "contact_emergency":
		ack.Message = "Emergency services have been notified. Help is on the way."
		ack.EmergencyID = "EMG_" + r.deps.NewID()
	case "share_location":
		ack.Message = "Your location has been shared with trusted contacts."
		ack.SharedWith = append([]string{}, r.cfg.TrustedContacts...)
	case "silent_alarm":
		ack.Message = "Silent alarm activated. GoOps team is monitoring your ride."
		ack.MonitoringID = "MON_" + r.deps.NewID()
	}
	r.deps.Logger.Warn("emergency action triggered", "ride_id", id, "action", action)
	return ack, nil
}

// CheckIn asks the assistant for a message fitting the ride so far.
func (r *Registry) CheckIn(ctx context.Context, id string) (string, error) {
	e, err := r.get(id)
	if err != nil {
		return "", fmt.Errorf("Registry.CheckIn: %w", err)
	}
	e.mu.Lock()
	ride := cloneRide(e.ride)
	e.mu.Unlock()

	_, progress := r.progress(ride)
	return r.deps.Assistant.CheckIn(ctx, assistant.CheckInContext{
		RideID:   id,
		Progress: progress,
		Hour:     r.deps.Now().Hour(),
		Events:   ride.Events,
	}), nil
}

// End removes the ride, stops its monitor and returns the safety report.
// A second End for the same id reports ErrRideNotFound.
func (r *Registry) End(ctx context.Context, id string) (models.Report, error) {
	r.mu.Lock()
	e, ok := r.rides[id]
	if ok {
		delete(r.rides, id)
	}
	r.mu.Unlock()
	if !ok {
		return models.Report{}, fmt.Errorf("Registry.End: %w", ErrRideNotFound)
	}

	now := r.deps.Now()
	e.mu.Lock()
	e.ride.Status = models.RideCompleted
	e.ride.CompletedAt = now
	ride := cloneRide(e.ride)
	e.mu.Unlock()

	e.cancel()
	<-e.done
	observability.ActiveRides.Dec()

	report := BuildReport(ride, now)
	s := r.deps.Assistant.Summarize(ctx, report)
	report.Highlights = s.Highlights
	report.Recommendations = s.Recommendations
	report.Narrative = s.Narrative

	if r.deps.Archive != nil {
		if err := r.deps.Archive.SaveReport(report); err != nil {
			r.deps.Logger.Error("archive report failed", "ride_id", id, "error", err)
		}
	}
	observability.RidesCompleted.Inc()
	r.deps.Logger.Info("ride completed", "ride_id", id, "incidents", report.Incidents, "overall_score", report.OverallScore)
	return report, nil
}

func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rides)
}

// Close stops every monitor and rejects further starts. Rides are dropped
// without reports.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	entries := make([]*entry, 0, len(r.rides))
	for id, e := range r.rides {
		entries = append(entries, e)
		delete(r.rides, id)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.ride.Status = models.RideCompleted
		e.mu.Unlock()
		e.cancel()
	}
	for _, e := range entries {
		<-e.done
		observability.ActiveRides.Dec()
	}
}

func (r *Registry) get(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.rides[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRideNotFound
	}
	return e, nil
}

// appendEvent adds ev while the ride is still ACTIVE and notifies watchers
// after the lock is released.
func (r *Registry) appendEvent(ctx context.Context, id string, e *entry, ev models.SafetyEvent) error {
	e.mu.Lock()
	if e.ride.Status != models.RideActive {
		e.mu.Unlock()
		return ErrRideNotFound
	}
	e.ride.Events = append(e.ride.Events, ev)
	e.mu.Unlock()

	observability.SafetyEvents.WithLabelValues(string(ev.Type)).Inc()
	r.deps.Logger.Info("safety event", "ride_id", id, "type", ev.Type, "level", ev.Level, "action", ev.Action)
	if r.deps.Notifier != nil {
		if err := r.deps.Notifier.Notify(context.WithoutCancel(ctx), id, ev); err != nil {
			r.deps.Logger.Warn("safety event notification failed", "ride_id", id, "type", ev.Type, "error", err)
		}
	}
	return nil
}

func cloneRide(r models.Ride) models.Ride {
	r.Events = append([]models.SafetyEvent{}, r.Events...)
	return r
}
