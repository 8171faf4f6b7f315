package parametric

import (
	"errors"
	"fmt"

	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/regime"
	"github.com/wonny/ninthball/internal/scenario"
)

var ErrNoDwellLengths = errors.New("regime parametric requires at least one dwell length")

// regimeDist 국면별 분포와 Cholesky 인자
type regimeDist struct {
	params dist.Params
	factor dist.Lower
}

// RegimeParametric 현재 국면의 분포로 합성하고, 구간(dwell)이 끝날 때마다 국면 전이
// AR(1) 상태는 국면이 바뀌어도 유지
type RegimeParametric struct {
	regimes       []regimeDist
	unconditional []float64
	smoothed      [][]float64
	lengths       []int
	seed          int64
}

// NewRegimeParametric 생성
// lengths: 구간 길이 후보 (블록 길이 설정과 동일), awareness: 전이 평활 λ
func NewRegimeParametric(m *regime.Model, lengths []int, awareness float64, seed int64) (*RegimeParametric, error) {
	if m == nil || m.K() == 0 {
		return nil, fmt.Errorf("regime parametric: empty regime model")
	}
	if len(lengths) == 0 {
		return nil, ErrNoDwellLengths
	}
	for _, l := range lengths {
		if l < 1 {
			return nil, fmt.Errorf("%w: length %d", ErrNoDwellLengths, l)
		}
	}
	if awareness < 0 || awareness > 1 {
		return nil, fmt.Errorf("regime parametric: awareness %v out of range [0, 1]", awareness)
	}
	if m.Transition == nil {
		return nil, fmt.Errorf("regime parametric: %w: missing transition model", regime.ErrNotStochastic)
	}
	if err := m.Transition.Validate(); err != nil {
		return nil, fmt.Errorf("regime parametric: %w", err)
	}
	smoothed := m.Transition.Smoothed(awareness)
	if err := regime.CheckRows(smoothed); err != nil {
		return nil, fmt.Errorf("regime parametric: %w", err)
	}

	g := &RegimeParametric{
		regimes:       make([]regimeDist, m.K()),
		unconditional: m.Transition.Unconditional,
		smoothed:      smoothed,
		lengths:       append([]int(nil), lengths...),
		seed:          seed,
	}
	for i := range m.Regimes {
		p := m.Regimes[i].Params
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("regime parametric: regime %d: %w", i, err)
		}
		l, err := dist.Cholesky(p.Correlations.Matrix())
		if err != nil {
			return nil, fmt.Errorf("regime parametric: regime %d: %w", i, err)
		}
		g.regimes[i] = regimeDist{params: p, factor: l}
	}
	return g, nil
}

// Name 생성기 이름
func (g *RegimeParametric) Name() string { return "regime_parametric" }

// MaxIterations 무작위 소스: 사실상 무제한
func (g *RegimeParametric) MaxIterations(int) int { return scenario.Unbounded }

// Scenario Source 구현
func (g *RegimeParametric) Scenario(iteration, years int) (scenario.Scenario, error) {
	s, _, err := g.Generate(iteration, years)
	return s, err
}

// Generate 초기 국면은 무조건부 분포, 구간 길이는 후보 길이에서 균등 추출
func (g *RegimeParametric) Generate(iteration, years int) (scenario.Scenario, scenario.Stats, error) {
	if err := scenario.CheckRequest(iteration, years); err != nil {
		return nil, scenario.Stats{}, err
	}

	rng := scenario.NewRand(g.seed, iteration)
	out := make(scenario.Scenario, 0, years)
	var (
		st    scenario.Stats
		state arState
	)

	active := regime.Pick(rng, g.unconditional)
	for len(out) < years {
		dwell := g.lengths[rng.Intn(len(g.lengths))]
		r := &g.regimes[active]
		for d := 0; d < dwell && len(out) < years; d++ {
			out = append(out, step(rng, &r.params, &r.factor, &state, &st))
		}

		if len(out) < years {
			next := regime.Pick(rng, g.smoothed[active])
			if next != active {
				st.RegimeSwitches++
			}
			active = next
		}
	}
	return out, st, nil
}
