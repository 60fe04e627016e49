package rides

import (
	"context"
	"time"

	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/observability"
)

const deviationDetails = "Driver took alternative route - 2km longer"

// monitor ticks until ctx is cancelled or the ride stops accepting events.
// Each tick may log a synthetic route deviation.
func (r *Registry) monitor(ctx context.Context, e *entry) {
	defer close(e.done)

	t := time.NewTicker(r.cfg.MonitorInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		observability.MonitorTicks.Inc()
		if r.deps.Float64() >= r.cfg.DeviationProbability {
			continue
		}
		e.mu.Lock()
		id := e.ride.ID
		e.mu.Unlock()
		ev := models.SafetyEvent{
			Timestamp: r.deps.Now(),
			Type:      models.EventRouteDeviation,
			Severity:  "MEDIUM",
			Details:   deviationDetails,
		}
		if err := r.appendEvent(ctx, id, e, ev); err != nil {
			return
		}
	}
}
