package bootstrap

import (
	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/scenario"
)

// MovingBlock 전체 카탈로그에서 블록을 이어 붙이는 moving-block bootstrap
type MovingBlock struct {
	sampler
	seed int64
}

// NewMovingBlock 생성
func NewMovingBlock(c *blocks.Catalog, th blocks.Thresholds, cfg Config) (*MovingBlock, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrNoCatalog
	}
	return &MovingBlock{
		sampler: sampler{
			catalog:    c,
			thresholds: th,
			avoid:      cfg.AvoidExtremePairs,
			maxRedraws: cfg.maxRedraws(),
		},
		seed: cfg.Seed,
	}, nil
}

// Name 생성기 이름
func (g *MovingBlock) Name() string { return "bootstrap" }

// MaxIterations 무작위 소스: 사실상 무제한
func (g *MovingBlock) MaxIterations(int) int { return scenario.Unbounded }

// Scenario Source 구현
func (g *MovingBlock) Scenario(iteration, years int) (scenario.Scenario, error) {
	s, _, err := g.Generate(iteration, years)
	return s, err
}

// Generate 반복 i의 경로와 진단 카운터
func (g *MovingBlock) Generate(iteration, years int) (scenario.Scenario, scenario.Stats, error) {
	if err := scenario.CheckRequest(iteration, years); err != nil {
		return nil, scenario.Stats{}, err
	}

	rng := scenario.NewRand(g.seed, iteration)
	out := make(scenario.Scenario, 0, years)
	var (
		st   scenario.Stats
		prev *blocks.Block
	)
	group := g.catalog.All()
	for len(out) < years {
		b := g.draw(rng, group, prev, &st)
		if g.trace != nil {
			g.trace(iteration, b)
		}
		out = fill(out, b, years)
		prev = b
	}
	return out, st, nil
}
