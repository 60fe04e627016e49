package rides

import (
	"fmt"
	"math"
	"time"

	"github.com/example/ride-guardian/internal/geo"
	"github.com/example/ride-guardian/internal/models"
)

// BuildReport scores a finished ride: every event except VOICE_CHECK is an
// incident worth -0.1, floored at 0.5.
func BuildReport(ride models.Ride, completedAt time.Time) models.Report {
	incidents := 0
	for _, ev := range ride.Events {
		if ev.Type != models.EventVoiceCheck {
			incidents++
		}
	}
	score := math.Max(0.5, 1.0-0.1*float64(incidents))
	minutes := int(completedAt.Sub(ride.StartTime).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return models.Report{
		RideID:       ride.ID,
		OverallScore: models.Round(score, 2),
		Incidents:    incidents,
		Duration:     fmt.Sprintf("%d minutes", minutes),
		DistanceKM:   models.Round(geo.Distance(ride.Pickup.Coords, ride.Dropoff.Coords)/1000, 1),
		DriverName:   ride.Driver.Name,
		DriverRating: ride.Driver.Rating,
		RouteType:    ride.RouteType,
		Pickup:       ride.Pickup.Name,
		Dropoff:      ride.Dropoff.Name,
		Events:       append([]models.SafetyEvent{}, ride.Events...),
		CompletedAt:  completedAt,
	}
}
