package parametric

import (
	"fmt"

	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/scenario"
)

// Parametric 고정 분포 파라미터로 연간 수익률을 합성
type Parametric struct {
	params dist.Params
	factor dist.Lower
	seed   int64
}

// New 파라미터 범위와 상관행렬 분해 가능 여부를 검사한 뒤 생성
func New(p dist.Params, seed int64) (*Parametric, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parametric: %w", err)
	}
	l, err := dist.Cholesky(p.Correlations.Matrix())
	if err != nil {
		return nil, fmt.Errorf("parametric: %w", err)
	}
	return &Parametric{params: p, factor: l, seed: seed}, nil
}

// Name 생성기 이름
func (g *Parametric) Name() string { return "parametric" }

// MaxIterations 무작위 소스: 사실상 무제한
func (g *Parametric) MaxIterations(int) int { return scenario.Unbounded }

// Params 사용 중인 분포 파라미터
func (g *Parametric) Params() dist.Params { return g.params }

// Scenario Source 구현
func (g *Parametric) Scenario(iteration, years int) (scenario.Scenario, error) {
	s, _, err := g.Generate(iteration, years)
	return s, err
}

// Generate 반복 i의 경로와 진단 카운터
func (g *Parametric) Generate(iteration, years int) (scenario.Scenario, scenario.Stats, error) {
	if err := scenario.CheckRequest(iteration, years); err != nil {
		return nil, scenario.Stats{}, err
	}

	rng := scenario.NewRand(g.seed, iteration)
	out := make(scenario.Scenario, years)
	var (
		st    scenario.Stats
		state arState
	)
	for t := range out {
		out[t] = step(rng, &g.params, &g.factor, &state, &st)
	}
	return out, st, nil
}
