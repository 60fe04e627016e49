package risk

import (
	"github.com/example/ride-guardian/internal/models"
)

// DefaultLocationSafety is used for location keys missing from the catalog.
const DefaultLocationSafety = 0.8

type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Factors are the four normalized inputs of the weighted score.
type Factors struct {
	Driver     float64 `json:"driver"`
	Location   float64 `json:"location"`
	Time       float64 `json:"time"`
	Experience float64 `json:"experience"`
}

type Analysis struct {
	Score   float64 `json:"score"`
	Level   Level   `json:"level"`
	Factors Factors `json:"factors"`
}

// Input bundles everything Score needs; it is filled by the caller from the catalog.
type Input struct {
	Driver        models.Driver
	PickupSafety  float64
	DropoffSafety float64
	Hour          int
}

// Score computes the ride safety score:
// 40% driver, 30% average location safety, 20% time of day, 10% experience.
func Score(in Input) Analysis {
	f := Factors{
		Driver:     in.Driver.SafetyScore(),
		Location:   (models.Clamp01(in.PickupSafety) + models.Clamp01(in.DropoffSafety)) / 2,
		Time:       TimeFactor(in.Hour),
		Experience: experience(in.Driver.TotalRides),
	}
	score := models.Clamp01(f.Driver*0.4 + f.Location*0.3 + f.Time*0.2 + f.Experience*0.1)
	return Analysis{Score: score, Level: LevelFor(score), Factors: f}
}

// TimeFactor penalizes late night (22:00-05:59) and evening (19:00-21:59) rides.
func TimeFactor(hour int) float64 {
	switch {
	case hour >= 22 || hour <= 5:
		return 0.8
	case hour >= 19:
		return 0.9
	default:
		return 1.0
	}
}

func LevelFor(score float64) Level {
	switch {
	case score < 0.7:
		return LevelHigh
	case score < 0.85:
		return LevelMedium
	default:
		return LevelLow
	}
}

func experience(rides int) float64 {
	e := float64(rides) / 1000
	if e > 1 {
		return 1
	}
	if e < 0 {
		return 0
	}
	return e
}

// Rounded returns a copy with score and factors rounded for presentation.
func (a Analysis) Rounded() Analysis {
	return Analysis{
		Score: models.Round(a.Score, 2),
		Level: a.Level,
		Factors: Factors{
			Driver:     models.Round(a.Factors.Driver, 2),
			Location:   models.Round(a.Factors.Location, 2),
			Time:       models.Round(a.Factors.Time, 2),
			Experience: models.Round(a.Factors.Experience, 2),
		},
	}
}

// Recommendations returns rider advice for the given level.
func Recommendations(l Level) []string {
	if l == LevelLow {
		return []string{}
	}
	return []string{
		"Consider using Safe Route mode for this ride",
		"Share your trip with a trusted contact",
	}
}
