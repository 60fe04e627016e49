package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/ride-guardian/internal/observability"
	"github.com/example/ride-guardian/internal/risk"
)

const assessSystemPrompt = "You are GoGuard, an AI safety assistant for ride-sharing. Provide concise, actionable safety assessments."

// RideContext describes a ride being quoted.
type RideContext struct {
	DriverName   string
	DriverRating float64
	DriverRides  int
	Hour         int
	Pickup       string
	Dropoff      string
}

// RideAssessment is the model's second opinion on a risk quote.
type RideAssessment struct {
	SafetyScore     float64    `json:"safety_score"`
	RiskLevel       risk.Level `json:"risk_level"`
	Factors         []string   `json:"factors"`
	Recommendations []string   `json:"recommendations"`
	Fallback        bool       `json:"fallback,omitempty"`
}

type llmAssessment struct {
	SafetyScore     *float64 `json:"safety_score"`
	RiskLevel       string   `json:"risk_level"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// AssessRide asks the model for a pre-ride assessment. ok is false when no
// model is configured. Model failures yield FallbackAssessment.
func (a *Assistant) AssessRide(ctx context.Context, rc RideContext) (RideAssessment, bool) {
	if a.chat == nil {
		return RideAssessment{}, false
	}
	content, err := chatOnce(ctx, a.chat, a.model, a.timeout, assessSystemPrompt, assessPrompt(rc), 0.7, true)
	if err != nil {
		observability.ClassifierFallbacks.WithLabelValues("assess_transport").Inc()
		a.logger.Warn("llm ride assessment failed, using fallback", "error", err)
		return FallbackAssessment(rc.Hour), true
	}
	res, err := parseAssessment(content)
	if err != nil {
		observability.ClassifierFallbacks.WithLabelValues("assess_parse").Inc()
		a.logger.Warn("llm ride assessment unusable, using fallback", "error", err)
		return FallbackAssessment(rc.Hour), true
	}
	return res, true
}

// FallbackAssessment is the deterministic answer: 0.85, lowered by 0.15
// for late-night rides.
func FallbackAssessment(hour int) RideAssessment {
	score := 0.85
	if hour >= 22 || hour <= 5 {
		score = 0.70
	}
	return RideAssessment{
		SafetyScore:     score,
		RiskLevel:       risk.LevelFor(score),
		Factors:         []string{"Time of day", "Route distance"},
		Recommendations: []string{"Enable Safe Route mode", "Share trip with trusted contact"},
		Fallback:        true,
	}
}

func assessPrompt(rc RideContext) string {
	return fmt.Sprintf(`As a safety AI assistant, analyze this ride data and provide a safety assessment:

Driver: %s (Rating: %.1f, Rides: %d)
Time: %02d:00
Pickup: %s
Dropoff: %s

Answer with a single JSON object with keys:
safety_score (0-1), risk_level (LOW, MEDIUM or HIGH), factors (list of strings), recommendations (list of strings).`,
		rc.DriverName, rc.DriverRating, rc.DriverRides, rc.Hour, rc.Pickup, rc.Dropoff)
}

// parseAssessment derives the level from the score when the model omits it.
func parseAssessment(content string) (RideAssessment, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v llmAssessment
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return RideAssessment{}, err
	}
	if v.SafetyScore == nil || *v.SafetyScore < 0 || *v.SafetyScore > 1 {
		return RideAssessment{}, fmt.Errorf("%w: safety_score", errInvalidAnswer)
	}
	score := *v.SafetyScore
	level := risk.Level(strings.ToUpper(strings.TrimSpace(v.RiskLevel)))
	switch level {
	case risk.LevelLow, risk.LevelMedium, risk.LevelHigh:
	case "":
		level = risk.LevelFor(score)
	default:
		return RideAssessment{}, fmt.Errorf("%w: risk_level %q", errInvalidAnswer, v.RiskLevel)
	}
	out := RideAssessment{
		SafetyScore:     score,
		RiskLevel:       level,
		Factors:         v.Factors,
		Recommendations: v.Recommendations,
	}
	if out.Factors == nil {
		out.Factors = []string{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	return out, nil
}
