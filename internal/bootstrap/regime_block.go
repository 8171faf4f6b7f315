package bootstrap

import (
	"fmt"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/regime"
	"github.com/wonny/ninthball/internal/scenario"
)

// RegimeMovingBlock 현재 국면의 블록 그룹에서만 추출하고
// 블록마다 평활된 전이 행렬로 다음 국면을 고르는 bootstrap
type RegimeMovingBlock struct {
	sampler
	model    *regime.Model
	smoothed [][]float64
	seed     int64
}

// NewRegimeMovingBlock 생성. 모델이 카탈로그와 맞지 않거나 평활 행이 확률분포가 아니면 에러
func NewRegimeMovingBlock(c *blocks.Catalog, th blocks.Thresholds, m *regime.Model, cfg Config) (*RegimeMovingBlock, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrNoCatalog
	}
	if m == nil {
		return nil, fmt.Errorf("regime bootstrap: nil regime model")
	}
	if cfg.Awareness < 0 || cfg.Awareness > 1 {
		return nil, fmt.Errorf("regime bootstrap: awareness %v out of range [0, 1]", cfg.Awareness)
	}
	if err := m.Validate(c); err != nil {
		return nil, fmt.Errorf("regime bootstrap: %w", err)
	}

	smoothed := m.Transition.Smoothed(cfg.Awareness)
	if err := regime.CheckRows(smoothed); err != nil {
		return nil, fmt.Errorf("regime bootstrap: %w", err)
	}

	return &RegimeMovingBlock{
		sampler: sampler{
			catalog:    c,
			thresholds: th,
			avoid:      cfg.AvoidExtremePairs,
			maxRedraws: cfg.maxRedraws(),
		},
		model:    m,
		smoothed: smoothed,
		seed:     cfg.Seed,
	}, nil
}

// Name 생성기 이름
func (g *RegimeMovingBlock) Name() string { return "regime_bootstrap" }

// MaxIterations 무작위 소스: 사실상 무제한
func (g *RegimeMovingBlock) MaxIterations(int) int { return scenario.Unbounded }

// Scenario Source 구현
func (g *RegimeMovingBlock) Scenario(iteration, years int) (scenario.Scenario, error) {
	s, _, err := g.Generate(iteration, years)
	return s, err
}

// Generate 초기 국면은 무조건부 분포에서, 이후 블록마다 전이
func (g *RegimeMovingBlock) Generate(iteration, years int) (scenario.Scenario, scenario.Stats, error) {
	if err := scenario.CheckRequest(iteration, years); err != nil {
		return nil, scenario.Stats{}, err
	}

	rng := scenario.NewRand(g.seed, iteration)
	out := make(scenario.Scenario, 0, years)
	var (
		st   scenario.Stats
		prev *blocks.Block
	)

	active := regime.Pick(rng, g.model.Transition.Unconditional)
	for len(out) < years {
		b := g.draw(rng, g.model.Regimes[active].Blocks, prev, &st)
		if g.trace != nil {
			g.trace(iteration, b)
		}
		out = fill(out, b, years)
		prev = b

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

// Smoothed 생성기가 사용하는 평활 전이 행렬 (읽기 전용)
func (g *RegimeMovingBlock) Smoothed() [][]float64 { return g.smoothed }
