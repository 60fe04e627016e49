package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/ride-guardian/internal/models"
)

var checkInFallbacks = []string{
	"Hi! Just checking in. How's your ride going?",
	"Everything going smoothly? I'm here if you need anything!",
	"Hope you're having a comfortable ride. Let me know if you need help!",
}

type CheckInContext struct {
	RideID   string
	Progress float64
	Hour     int
	Events   []models.SafetyEvent
}

// CheckIn returns a short, non-alarming message for the rider.
func (a *Assistant) CheckIn(ctx context.Context, cc CheckInContext) string {
	if a.chat != nil {
		msg, err := a.complete(ctx,
			"You are GoGuard, a friendly AI safety companion. Generate natural check-in messages.",
			fmt.Sprintf(`Generate a natural, caring check-in message for a passenger.
Context:
- Ride progress: %.0f%%
- Time: %s
- Previous events: %s

Make it brief, friendly, and non-alarming. Max 2 sentences.`, cc.Progress, partOfDay(cc.Hour), eventTypes(cc.Events)),
			0.8)
		if msg = strings.TrimSpace(msg); err == nil && msg != "" {
			return msg
		}
		a.logger.Warn("llm check-in failed, using canned message", "ride_id", cc.RideID, "error", err)
	}
	return checkInFallbacks[a.intn(len(checkInFallbacks))]
}

// Summary is the assistant's contribution to a safety report.
type Summary struct {
	Highlights      []string
	Recommendations []string
	Narrative       string
}

// Summarize derives highlights and recommendations from the report and,
// when a model is configured, adds a short narrative.
func (a *Assistant) Summarize(ctx context.Context, r models.Report) Summary {
	s := Summary{
		Highlights:      highlights(r),
		Recommendations: recommendations(r),
	}
	if a.chat == nil {
		return s
	}
	msg, err := a.complete(ctx,
		"You are a safety analyst. Provide constructive, actionable safety summaries.",
		fmt.Sprintf(`Summarize this ride from a safety perspective:

Duration: %s
Route: %s
Safety events: %s
Driver rating: %.1f

Provide key safety highlights, recommendations for future rides and areas of concern (if any).
Format as a short paragraph with bullet points, do not bold any text.
Mention the safety score in this format: Overall Safety Score %d%%.`,
			r.Duration, r.RouteType, eventTypes(r.Events), r.DriverRating, int(r.OverallScore*100+0.5)),
		0.6)
	if err != nil {
		a.logger.Warn("llm summary failed", "ride_id", r.RideID, "error", err)
		return s
	}
	s.Narrative = strings.TrimSpace(msg)
	return s
}

func highlights(r models.Report) []string {
	out := []string{"Ride completed successfully"}
	if r.Incidents == 0 {
		out = append(out, "No safety incidents reported")
	} else {
		out = append(out, fmt.Sprintf("%d safety event(s) handled by GoGuard", r.Incidents))
	}
	if r.RouteType == models.RouteSafe {
		out = append(out, "Safe Route mode was used")
	}
	if r.DriverRating >= 4.5 {
		out = append(out, "Driver maintained professional conduct")
	}
	return out
}

func recommendations(r models.Report) []string {
	var deviations, alerts int
	for _, e := range r.Events {
		switch e.Type {
		case models.EventRouteDeviation:
			deviations++
		case models.EventVoiceAlert, models.EventEmergencyAction:
			alerts++
		}
	}
	var out []string
	if deviations > 0 && r.RouteType != models.RouteSafe {
		out = append(out, "Consider Safe Route mode for future trips")
	}
	if alerts > 0 {
		out = append(out, "Share your trip with a trusted contact on future rides")
	}
	if len(out) == 0 {
		out = append(out, "Continue using GoGuard for all rides")
	}
	return out
}

func partOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

func eventTypes(events []models.SafetyEvent) string {
	if len(events) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, string(e.Type))
	}
	return strings.Join(parts, ", ")
}
