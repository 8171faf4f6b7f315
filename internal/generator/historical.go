package generator

import (
	"fmt"

	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/scenario"
)

// Historical 무작위성 없는 소스: 반복 i = minYear+i부터 시작하는 실제 연속 구간
type Historical struct {
	series *history.Series
}

// NewHistorical 생성
func NewHistorical(s *history.Series) *Historical {
	return &Historical{series: s}
}

// Name 생성기 이름
func (h *Historical) Name() string { return string(KindHistorical) }

// MaxIterations horizon이 들어갈 수 있는 시작 연도 수 (len - years + 1)
func (h *Historical) MaxIterations(years int) int {
	if years < 1 {
		return 0
	}
	n := h.series.Len() - years + 1
	if n < 0 {
		return 0
	}
	return n
}

// Scenario Source 구현
func (h *Historical) Scenario(iteration, years int) (scenario.Scenario, error) {
	s, _, err := h.Generate(iteration, years)
	return s, err
}

// Generate 반복 i의 역사 구간
func (h *Historical) Generate(iteration, years int) (scenario.Scenario, scenario.Stats, error) {
	if err := scenario.CheckRequest(iteration, years); err != nil {
		return nil, scenario.Stats{}, err
	}
	if limit := h.MaxIterations(years); iteration >= limit {
		return nil, scenario.Stats{}, fmt.Errorf("%w: iteration %d, %d available for %d years",
			scenario.ErrIterationOutOfRange, iteration, limit, years)
	}

	window := h.series.Window(iteration, years)
	out := make(scenario.Scenario, years)
	for i, o := range window {
		out[i] = scenario.Year{Stocks: o.Stocks, Bonds: o.Bonds, Inflation: o.Inflation}
	}
	return out, scenario.Stats{Samples: 1}, nil
}
