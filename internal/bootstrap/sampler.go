package bootstrap

import (
	"errors"
	"math/rand"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/scenario"
)

// DefaultMaxRedraws 극단 쌍 거절 시 재추출 상한
const DefaultMaxRedraws = 64

var ErrNoCatalog = errors.New("bootstrap requires a non-empty block catalog")

// Config 블록 재표본 설정
type Config struct {
	Seed              int64   // 전역 seed hint
	AvoidExtremePairs bool    // 겹치는 연속 블록이 둘 다 disaster/jackpot이면 재추출
	MaxRedraws        int     // 0 = DefaultMaxRedraws
	Awareness         float64 // 국면 인식 λ ∈ [0,1] (regime 변형만 사용)
}

func (c Config) maxRedraws() int {
	if c.MaxRedraws <= 0 {
		return DefaultMaxRedraws
	}
	return c.MaxRedraws
}

// sampler 블록 추출 공용 로직 (불변, 반복 간 공유)
type sampler struct {
	catalog    *blocks.Catalog
	thresholds blocks.Thresholds
	avoid      bool
	maxRedraws int

	// trace 수락된 블록 통지 (테스트 전용)
	trace func(iteration int, b *blocks.Block)
}

// draw group에서 균등 추출 (복원 추출)
// 직전 블록과 겹치고 둘 다 극단이면 최대 maxRedraws번 재추출 후 마지막 후보를 수락
func (s *sampler) draw(rng *rand.Rand, group []int, prev *blocks.Block, st *scenario.Stats) *blocks.Block {
	b := s.catalog.Block(group[rng.Intn(len(group))])
	st.Samples++
	if prev == nil {
		return b
	}

	for attempt := 0; ; attempt++ {
		if !blocks.Overlaps(prev, b) {
			return b
		}
		st.Overlaps++
		if !s.avoid || !s.thresholds.BothExtreme(prev, b) {
			return b
		}
		if attempt >= s.maxRedraws {
			st.Fallbacks++
			return b
		}
		st.Resamples++
		b = s.catalog.Block(group[rng.Intn(len(group))])
	}
}

// fill 블록의 연도를 out에 이어 붙임 (horizon 초과분은 잘라냄)
func fill(out scenario.Scenario, b *blocks.Block, years int) scenario.Scenario {
	for _, o := range b.Years {
		if len(out) == years {
			break
		}
		out = append(out, scenario.Year{Stocks: o.Stocks, Bonds: o.Bonds, Inflation: o.Inflation})
	}
	return out
}
