package rides

import (
	"context"
	"fmt"

	"github.com/example/ride-guardian/internal/assistant"
	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/observability"
	"github.com/example/ride-guardian/internal/risk"
)

// Assessment is a pre-booking risk quote for a pickup/dropoff pair.
type Assessment struct {
	Driver             models.Driver
	Analysis           risk.Analysis
	SafeRouteAvailable bool
	Recommendations    []string
	// AI is set only when a chat model is configured.
	AI *assistant.RideAssessment
}

// Assess quotes the risk of a ride with a freshly assigned driver. Unknown
// location keys are scored with risk.DefaultLocationSafety instead of failing.
func (r *Registry) Assess(ctx context.Context, pickupKey, dropoffKey string) (Assessment, error) {
	driver, ok := r.deps.Assigner.Assign(ctx)
	if !ok {
		return Assessment{}, fmt.Errorf("Registry.Assess: %w", ErrNoDriver)
	}
	hour := r.deps.Now().Hour()
	a := risk.Score(risk.Input{
		Driver:        driver,
		PickupSafety:  r.locationSafety(pickupKey),
		DropoffSafety: r.locationSafety(dropoffKey),
		Hour:          hour,
	}).Rounded()
	observability.RiskLevels.WithLabelValues(string(a.Level)).Inc()
	out := Assessment{
		Driver:             driver,
		Analysis:           a,
		SafeRouteAvailable: a.Level != risk.LevelLow,
		Recommendations:    risk.Recommendations(a.Level),
	}
	if ai, ok := r.deps.Assistant.AssessRide(ctx, assistant.RideContext{
		DriverName:   driver.Name,
		DriverRating: driver.Rating,
		DriverRides:  driver.TotalRides,
		Hour:         hour,
		Pickup:       pickupKey,
		Dropoff:      dropoffKey,
	}); ok {
		out.AI = &ai
	}
	return out, nil
}

func (r *Registry) locationSafety(key string) float64 {
	s, ok := r.deps.Catalog.LocationSafety(key)
	if !ok {
		observability.UnknownLocations.Inc()
		r.deps.Logger.Warn("unknown location key, using default safety", "key", key, "default", risk.DefaultLocationSafety)
		return risk.DefaultLocationSafety
	}
	return s
}
