package risk

import (
	"math"
	"testing"

	"github.com/example/ride-guardian/internal/models"
)

func TestScoreDocumentedExample(t *testing.T) {
	// rating 4, full experience, perfect acceptance, no cancellations -> safety 0.9
	d := models.Driver{ID: "D1", Rating: 4, TotalRides: 2000, AcceptanceRate: 1, CancellationRate: 0}
	if s := d.SafetyScore(); math.Abs(s-0.9) > 1e-9 {
		t.Fatalf("expected driver safety 0.9, got %f", s)
	}
	a := Score(Input{Driver: d, PickupSafety: 0.9, DropoffSafety: 0.9, Hour: 14})
	if math.Abs(a.Score-0.93) > 1e-9 {
		t.Fatalf("expected 0.93, got %f", a.Score)
	}
	if a.Level != LevelLow {
		t.Fatalf("expected LOW, got %s", a.Level)
	}
	if a.Factors.Time != 1.0 || a.Factors.Experience != 1.0 {
		t.Fatalf("unexpected factors %+v", a.Factors)
	}
}

func TestScoreStaysInRangeAndMatchesThresholds(t *testing.T) {
	ratings := []float64{1, 2.5, 3.7, 4.2, 5}
	rides := []int{0, 234, 892, 1523, 5000}
	rates := []float64{0, 0.5, 1}
	locs := []float64{0, 0.45, 0.8, 1}
	for _, r := range ratings {
		for _, n := range rides {
			for _, rate := range rates {
				for _, p := range locs {
					for _, q := range locs {
						for h := 0; h <= 23; h++ {
							d := models.Driver{Rating: r, TotalRides: n, AcceptanceRate: rate, CancellationRate: 1 - rate}
							a := Score(Input{Driver: d, PickupSafety: p, DropoffSafety: q, Hour: h})
							if a.Score < 0 || a.Score > 1 {
								t.Fatalf("score out of range: %f", a.Score)
							}
							want := LevelLow
							if a.Score < 0.7 {
								want = LevelHigh
							} else if a.Score < 0.85 {
								want = LevelMedium
							}
							if a.Level != want {
								t.Fatalf("score %f: expected %s, got %s", a.Score, want, a.Level)
							}
						}
					}
				}
			}
		}
	}
}

func TestTimeFactor(t *testing.T) {
	cases := map[int]float64{0: 0.8, 5: 0.8, 6: 1.0, 14: 1.0, 18: 1.0, 19: 0.9, 21: 0.9, 22: 0.8, 23: 0.8}
	for h, want := range cases {
		if got := TimeFactor(h); got != want {
			t.Errorf("hour %d: expected %.1f, got %.1f", h, want, got)
		}
	}
}

func TestLevelBoundaries(t *testing.T) {
	if LevelFor(0.6999) != LevelHigh || LevelFor(0.7) != LevelMedium || LevelFor(0.85) != LevelLow {
		t.Fatal("threshold mismatch")
	}
}

func TestRecommendationsOnlyForElevatedRisk(t *testing.T) {
	if len(Recommendations(LevelLow)) != 0 {
		t.Fatal("LOW should carry no recommendations")
	}
	if len(Recommendations(LevelHigh)) == 0 {
		t.Fatal("HIGH should carry recommendations")
	}
}

func TestRoundedAnalysis(t *testing.T) {
	a := Analysis{Score: 0.93456, Level: LevelLow, Factors: Factors{Driver: 0.8999, Location: 0.875}}
	r := a.Rounded()
	if r.Score != 0.93 || r.Factors.Driver != 0.9 || r.Factors.Location != 0.88 {
		t.Fatalf("unexpected rounding %+v", r)
	}
}
