package regime

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/wonny/ninthball/internal/blocks"
)

// stochasticTolerance 행 합계 허용 오차
const stochasticTolerance = 1e-9

// Transition 국면 전이 모델
type Transition struct {
	Counts        [][]int     `json:"counts"`
	Empirical     [][]float64 `json:"empirical"`     // 관측 없는 행은 Unconditional로 대체
	Unconditional []float64   `json:"unconditional"` // 국면별 블록 점유율
}

// EstimateTransition 시간상 바로 이어지는 블록 쌍으로 전이 횟수 집계
// 인접 규칙: b.Start == a.Start + a.Length (겹치지 않고 공백 없이 이어짐, 길이 무관)
func EstimateTransition(c *blocks.Catalog, assignments []int, k int) (*Transition, error) {
	if len(assignments) != c.Len() {
		return nil, fmt.Errorf("%w: %d assignments for %d blocks", ErrPartition, len(assignments), c.Len())
	}

	t := &Transition{
		Counts:        make([][]int, k),
		Empirical:     make([][]float64, k),
		Unconditional: make([]float64, k),
	}
	for i := range t.Counts {
		t.Counts[i] = make([]int, k)
		t.Empirical[i] = make([]float64, k)
	}

	for i := 0; i < c.Len(); i++ {
		b := c.Block(i)
		from := assignments[i]
		t.Unconditional[from]++
		for _, j := range c.StartingAt(b.Start + b.Length) {
			t.Counts[from][assignments[j]]++
		}
	}
	for r := range t.Unconditional {
		t.Unconditional[r] /= float64(c.Len())
	}

	for r, row := range t.Counts {
		total := 0
		for _, n := range row {
			total += n
		}
		if total == 0 {
			copy(t.Empirical[r], t.Unconditional)
			continue
		}
		for col, n := range row {
			t.Empirical[r][col] = float64(n) / float64(total)
		}
	}
	return t, t.Validate()
}

// Smoothed λ·empirical + (1-λ)·unconditional
// λ=0: 무기억 (매번 무조건부 분포), λ=1: 순수 경험적 마르코프 체인
func (t *Transition) Smoothed(lambda float64) [][]float64 {
	out := make([][]float64, len(t.Empirical))
	for r, row := range t.Empirical {
		out[r] = make([]float64, len(row))
		for c, p := range row {
			out[r][c] = lambda*p + (1-lambda)*t.Unconditional[c]
		}
	}
	return out
}

// Validate 모든 행과 무조건부 분포가 확률분포인지 확인
func (t *Transition) Validate() error {
	if err := checkDistribution(t.Unconditional); err != nil {
		return fmt.Errorf("unconditional: %w", err)
	}
	for r, row := range t.Empirical {
		if err := checkDistribution(row); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	return nil
}

// CheckRows 임의 전이 행렬 검증 (평활 결과 확인용)
func CheckRows(rows [][]float64) error {
	for r, row := range rows {
		if err := checkDistribution(row); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	return nil
}

func checkDistribution(p []float64) error {
	var sum float64
	for _, v := range p {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative or NaN entry %v", ErrNotStochastic, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > stochasticTolerance {
		return fmt.Errorf("%w: sum=%.12f", ErrNotStochastic, sum)
	}
	return nil
}

// Pick 이산 분포에서 인덱스 추출
// 반올림으로 누적합이 1에 못 미치면 마지막 양수 확률 인덱스
func Pick(rng *rand.Rand, probs []float64) int {
	u := rng.Float64()
	last := 0
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		last = i
		if u < p {
			return i
		}
		u -= p
	}
	return last
}
