package rides

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/ride-guardian/internal/assistant"
	"github.com/example/ride-guardian/internal/dataset"
	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/risk"
	"github.com/example/ride-guardian/internal/storage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixedAssigner struct{ d models.Driver }

func (f fixedAssigner) Assign(context.Context) (models.Driver, bool) { return f.d, true }

type fixedEstimator int

func (f fixedEstimator) EstimateMinutes(context.Context, models.Location, models.Location, models.RouteType) int {
	return int(f)
}

type countingNotifier struct {
	mu     sync.Mutex
	events []models.SafetyEvent
	err    error
}

func (n *countingNotifier) Notify(_ context.Context, _ string, ev models.SafetyEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *countingNotifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

var testDriver = models.Driver{ID: "D001", Name: "Ahmad Rizki", Rating: 4.8, TotalRides: 1523, AcceptanceRate: 0.92}

type harness struct {
	reg      *Registry
	clock    *clock
	notifier *countingNotifier
	archive  *storage.MemoryStore
}

func newHarness(t *testing.T, cfg Config, float64Fn func() float64) *harness {
	t.Helper()
	var ids atomic.Int64
	h := &harness{
		clock:    &clock{now: time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC)},
		notifier: &countingNotifier{},
		archive:  storage.NewMemoryStore(10),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.MonitorInterval == 0 {
		cfg.MonitorInterval = time.Hour
	}
	if cfg.TrustedContacts == nil {
		cfg.TrustedContacts = []string{"Mom", "Best Friend"}
	}
	if float64Fn == nil {
		float64Fn = func() float64 { return 1 }
	}
	reg, err := NewRegistry(cfg, Deps{
		Catalog:   dataset.Builtin(),
		Assigner:  fixedAssigner{testDriver},
		Estimator: fixedEstimator(20),
		Assistant: assistant.New(assistant.Options{Logger: logger}),
		Notifier:  h.notifier,
		Archive:   h.archive,
		Logger:    logger,
		Now:       h.clock.Now,
		Float64:   float64Fn,
		NewID:     func() string { return fmt.Sprintf("%04d", ids.Add(1)) },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(reg.Close)
	h.reg = reg
	return h
}

func TestStartThenStatusIsFresh(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	ride, err := h.reg.Start(ctx, "home", "office", "")
	if err != nil {
		t.Fatal(err)
	}
	if ride.ID != "RIDE_0001" || ride.RouteType != models.RouteStandard || ride.Status != models.RideActive {
		t.Fatalf("unexpected ride %+v", ride)
	}
	st, err := h.reg.Status(ctx, ride.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Progress != 0 || st.ElapsedMinutes != 0 || len(st.Events) != 0 {
		t.Fatalf("expected fresh status, got %+v", st)
	}
	if st.CurrentLocation.Lat != -6.2088 || st.CurrentLocation.Lon != 106.8456 {
		t.Fatalf("expected pickup coordinates, got %+v", st.CurrentLocation)
	}
	if st.CurrentLocation.Address != "En route - 0% completed" {
		t.Fatalf("unexpected address %q", st.CurrentLocation.Address)
	}
	if h.reg.Active() != 1 {
		t.Fatalf("expected one active ride, got %d", h.reg.Active())
	}
}

func TestStatusProgressesAndCaps(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", models.RouteSafe)

	h.clock.Advance(10 * time.Minute)
	st, _ := h.reg.Status(ctx, ride.ID)
	if st.Progress != 50 || st.ElapsedMinutes != 10 {
		t.Fatalf("expected halfway, got %+v", st)
	}
	if st.CurrentLocation.Address != "En route - 50% completed" {
		t.Fatalf("unexpected address %q", st.CurrentLocation.Address)
	}
	if st.CurrentLocation.Lat != -6.22605 {
		t.Fatalf("unexpected midpoint lat %f", st.CurrentLocation.Lat)
	}

	h.clock.Advance(30 * time.Minute)
	st, _ = h.reg.Status(ctx, ride.ID)
	if st.Progress != 100 || st.ElapsedMinutes != 40 {
		t.Fatalf("expected capped progress, got %+v", st)
	}
}

func TestStartRejectsUnknownLocationAndRouteType(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	if _, err := h.reg.Start(ctx, "home", "airport", ""); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}
	if _, err := h.reg.Start(ctx, "home", "office", "scenic"); !errors.Is(err, ErrInvalidRouteType) {
		t.Fatalf("expected ErrInvalidRouteType, got %v", err)
	}
	if h.reg.Active() != 0 {
		t.Fatal("rejected starts must not register rides")
	}
}

func TestEmergencyEventsAreOrdered(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "mall", "friend", "")

	actions := []string{"share_location", "contact_emergency", "silent_alarm", "call_support"}
	for _, a := range actions {
		h.clock.Advance(time.Second)
		if _, err := h.reg.AppendEmergencyEvent(ctx, ride.ID, a); err != nil {
			t.Fatal(err)
		}
	}
	st, _ := h.reg.Status(ctx, ride.ID)
	if len(st.Events) != len(actions) {
		t.Fatalf("expected %d events, got %d", len(actions), len(st.Events))
	}
	for i, ev := range st.Events {
		if ev.Type != models.EventEmergencyAction || ev.Action != actions[i] || ev.Status != "TRIGGERED" {
			t.Fatalf("event %d out of order: %+v", i, ev)
		}
		if i > 0 && !ev.Timestamp.After(st.Events[i-1].Timestamp) {
			t.Fatalf("timestamps not increasing at %d", i)
		}
	}
	if h.notifier.Len() != len(actions) {
		t.Fatalf("expected %d notifications, got %d", len(actions), h.notifier.Len())
	}
}

func TestEmergencyAcknowledgements(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", "")

	ack, _ := h.reg.AppendEmergencyEvent(ctx, ride.ID, "contact_emergency")
	if ack.Status != "SUCCESS" || ack.Message != "Emergency services have been notified. Help is on the way." || ack.EmergencyID == "" {
		t.Fatalf("unexpected ack %+v", ack)
	}
	ack, _ = h.reg.AppendEmergencyEvent(ctx, ride.ID, "share_location")
	if len(ack.SharedWith) != 2 || ack.SharedWith[0] != "Mom" {
		t.Fatalf("unexpected ack %+v", ack)
	}
	ack, _ = h.reg.AppendEmergencyEvent(ctx, ride.ID, "silent_alarm")
	if ack.MonitoringID == "" || ack.Message != "Silent alarm activated. GoOps team is monitoring your ride." {
		t.Fatalf("unexpected ack %+v", ack)
	}
	ack, _ = h.reg.AppendEmergencyEvent(ctx, ride.ID, "dance")
	if ack.Message != "" || ack.Status != "SUCCESS" {
		t.Fatalf("unexpected ack %+v", ack)
	}
}

func TestVoiceEvents(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", "")

	res, err := h.reg.AppendVoiceEvent(ctx, ride.ID, "the music is nice")
	if err != nil || res.Level != assistant.LevelNormal {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
	res, err = h.reg.AppendVoiceEvent(ctx, ride.ID, "help help please")
	if err != nil || res.Level != assistant.LevelDistress || res.Confidence != 0.9 {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
	st, _ := h.reg.Status(ctx, ride.ID)
	if len(st.Events) != 1 {
		t.Fatalf("expected only the distress alert, got %+v", st.Events)
	}
	if ev := st.Events[0]; ev.Type != models.EventVoiceAlert || ev.Level != "DISTRESS" || ev.Details != "Voice analysis detected DISTRESS" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestEndRemovesRideAndBuildsReport(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	if _, err := h.reg.End(ctx, "RIDE_missing"); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}

	ride, _ := h.reg.Start(ctx, "home", "office", "")
	_, _ = h.reg.AppendEmergencyEvent(ctx, ride.ID, "share_location")
	h.clock.Advance(23*time.Minute + 40*time.Second)

	report, err := h.reg.End(ctx, ride.ID)
	if err != nil {
		t.Fatal(err)
	}
	if report.Incidents != 1 || report.OverallScore != 0.9 || report.Duration != "23 minutes" {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.DriverRating != 4.8 || report.RouteType != models.RouteStandard || len(report.Highlights) == 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := h.reg.Status(ctx, ride.ID); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected not found after end, got %v", err)
	}
	if _, err := h.reg.AppendEmergencyEvent(ctx, ride.ID, "silent_alarm"); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected not found after end, got %v", err)
	}
	if _, err := h.reg.End(ctx, ride.ID); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected second end to fail, got %v", err)
	}
	if archived, ok := h.archive.Report(ride.ID); !ok || archived.Incidents != 1 {
		t.Fatalf("expected archived report, got %+v %v", archived, ok)
	}
	if h.reg.Active() != 0 {
		t.Fatalf("expected no active rides, got %d", h.reg.Active())
	}
}

func TestMonitorAppendsDeviationsUntilEnd(t *testing.T) {
	h := newHarness(t, Config{MonitorInterval: time.Millisecond, DeviationProbability: 0.5}, func() float64 { return 0 })
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", "")

	deadline := time.Now().Add(2 * time.Second)
	for {
		st, _ := h.reg.Status(ctx, ride.ID)
		if len(st.Events) >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("monitor produced no deviations")
		}
		time.Sleep(time.Millisecond)
	}
	report, err := h.reg.End(ctx, ride.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range report.Events {
		if ev.Type != models.EventRouteDeviation || ev.Severity != "MEDIUM" || ev.Details != deviationDetails {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	// End waited for the monitor; nothing may be appended afterwards.
	n := h.notifier.Len()
	time.Sleep(10 * time.Millisecond)
	if h.notifier.Len() != n {
		t.Fatal("monitor kept running after end")
	}
	if report.OverallScore < 0.5 {
		t.Fatalf("score below floor: %f", report.OverallScore)
	}
}

func TestMonitorQuietWhenProbabilityZero(t *testing.T) {
	h := newHarness(t, Config{MonitorInterval: time.Millisecond, DeviationProbability: 0}, func() float64 { return 0 })
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", "")
	time.Sleep(20 * time.Millisecond)
	st, _ := h.reg.Status(ctx, ride.ID)
	if len(st.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(st.Events))
	}
}

func TestConcurrentAppendsAndEnd(t *testing.T) {
	h := newHarness(t, Config{MonitorInterval: time.Millisecond, DeviationProbability: 1}, func() float64 { return 0 })
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", "")

	var wg sync.WaitGroup
	var accepted atomic.Int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := h.reg.AppendEmergencyEvent(ctx, ride.ID, "share_location"); err == nil {
					accepted.Add(1)
				}
				_, _ = h.reg.Status(ctx, ride.ID)
			}
		}()
	}
	time.Sleep(2 * time.Millisecond)
	report, err := h.reg.End(ctx, ride.ID)
	if err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	emergencies := 0
	for _, ev := range report.Events {
		if ev.Type == models.EventEmergencyAction {
			emergencies++
		}
	}
	if int64(emergencies) != accepted.Load() {
		t.Fatalf("report has %d emergencies but %d appends succeeded", emergencies, accepted.Load())
	}
}

func TestNotifierFailureDoesNotFailAppend(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	h.notifier.err = errors.New("kafka down")
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", "")
	if _, err := h.reg.AppendEmergencyEvent(ctx, ride.ID, "silent_alarm"); err != nil {
		t.Fatalf("notifier errors must be absorbed, got %v", err)
	}
}

func TestCloseStopsMonitorsAndRejectsStart(t *testing.T) {
	h := newHarness(t, Config{MonitorInterval: time.Millisecond}, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := h.reg.Start(ctx, "home", "office", ""); err != nil {
			t.Fatal(err)
		}
	}
	h.reg.Close()
	if h.reg.Active() != 0 {
		t.Fatalf("expected empty registry, got %d", h.reg.Active())
	}
	if _, err := h.reg.Start(ctx, "home", "office", ""); !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("expected ErrRegistryClosed, got %v", err)
	}
}

func TestCheckIn(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()
	ride, _ := h.reg.Start(ctx, "home", "office", "")
	msg, err := h.reg.CheckIn(ctx, ride.ID)
	if err != nil || msg == "" {
		t.Fatalf("expected a message, got %q %v", msg, err)
	}
	if _, err := h.reg.CheckIn(ctx, "RIDE_missing"); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}

func TestAssess(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	ctx := context.Background()

	known, err := h.reg.Assess(ctx, "home", "office")
	if err != nil {
		t.Fatal(err)
	}
	want := risk.Score(risk.Input{Driver: testDriver, PickupSafety: 0.9, DropoffSafety: 0.95, Hour: 14}).Rounded()
	if known.Analysis != want {
		t.Fatalf("expected %+v, got %+v", want, known.Analysis)
	}
	if known.SafeRouteAvailable != (want.Level != risk.LevelLow) {
		t.Fatal("safe route flag must follow the level")
	}

	unknown, err := h.reg.Assess(ctx, "nowhere", "elsewhere")
	if err != nil {
		t.Fatal(err)
	}
	if unknown.Analysis.Factors.Location != risk.DefaultLocationSafety {
		t.Fatalf("expected default location safety, got %f", unknown.Analysis.Factors.Location)
	}
}

func TestNewRegistryRequiresDependencies(t *testing.T) {
	if _, err := NewRegistry(Config{}, Deps{}); !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
}

type opinionatedAssistant struct {
	*assistant.Assistant
	got assistant.RideContext
}

func (o *opinionatedAssistant) AssessRide(_ context.Context, rc assistant.RideContext) (assistant.RideAssessment, bool) {
	o.got = rc
	return assistant.FallbackAssessment(rc.Hour), true
}

func TestAssessAttachesModelOpinion(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ai := &opinionatedAssistant{Assistant: assistant.New(assistant.Options{Logger: logger})}
	reg, err := NewRegistry(Config{MonitorInterval: time.Hour, TrustedContacts: []string{"Mom"}}, Deps{
		Catalog:   dataset.Builtin(),
		Assigner:  fixedAssigner{testDriver},
		Estimator: fixedEstimator(20),
		Assistant: ai,
		Notifier:  &countingNotifier{},
		Archive:   storage.NewMemoryStore(10),
		Logger:    logger,
		Now:       func() time.Time { return time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(reg.Close)

	a, err := reg.Assess(context.Background(), "home", "mall")
	if err != nil {
		t.Fatal(err)
	}
	want := assistant.RideContext{DriverName: "Ahmad Rizki", DriverRating: 4.8, DriverRides: 1523, Hour: 23, Pickup: "home", Dropoff: "mall"}
	if ai.got != want {
		t.Fatalf("assistant saw %+v, want %+v", ai.got, want)
	}
	if a.AI == nil || a.AI.SafetyScore != 0.70 || a.AI.RiskLevel != risk.LevelMedium {
		t.Fatalf("unexpected ai assessment %+v", a.AI)
	}
}

func TestAssessWithoutModelHasNoOpinion(t *testing.T) {
	h := newHarness(t, Config{}, nil)
	a, err := h.reg.Assess(context.Background(), "home", "office")
	if err != nil {
		t.Fatal(err)
	}
	if a.AI != nil {
		t.Fatalf("expected no ai assessment, got %+v", a.AI)
	}
}
