package matcher

import (
	"context"
	"math/rand"
	"sort"

	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/observability"
)

const (
	StrategyRandom = "random"
	StrategySafest = "safest"
)

// Drivers is the catalog view the assigner draws from.
type Drivers interface {
	Drivers() []models.Driver
}

// Service assigns a driver to a risk quote or a new ride.
type Service struct {
	Catalog  Drivers
	Strategy string
	TopN     int             // candidate pool for StrategySafest
	Intn     func(n int) int // defaults to math/rand/v2
}

// Assign picks a driver. The random strategy draws uniformly from the whole
// catalog. The safest strategy ranks by cost and draws from the best TopN.
func (s *Service) Assign(_ context.Context) (models.Driver, bool) {
	cands := s.Catalog.Drivers()
	if len(cands) == 0 {
		return models.Driver{}, false
	}
	intn := s.Intn
	if intn == nil {
		intn = rand.Intn
	}
	strategy := s.Strategy
	if strategy == "" {
		strategy = StrategyRandom
	}
	observability.DriverAssignments.WithLabelValues(strategy).Inc()
	if strategy != StrategySafest {
		return cands[intn(len(cands))], true
	}

	type scored struct {
		d    models.Driver
		cost float64
	}
	scoredList := make([]scored, 0, len(cands))
	for _, d := range cands {
		// cost = w1*(1 - safety) + w2*(5 - rating)
		cost := (1-d.SafetyScore())*10 + (5 - d.Rating)
		scoredList = append(scoredList, scored{d, cost})
	}
	sort.SliceStable(scoredList, func(i, j int) bool { return scoredList[i].cost < scoredList[j].cost })

	n := s.TopN
	if n <= 0 || n > len(scoredList) {
		n = len(scoredList)
	}
	return scoredList[intn(n)].d, true
}
