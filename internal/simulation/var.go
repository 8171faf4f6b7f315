package simulation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/ninthball/internal/blocks"
)

// =============================================================================
// VaR (Value at Risk) Calculation
// =============================================================================

// CalculateVaR 결과 분포 기반 VaR 계산 (Historical Simulation)
// returns: 반복별 수익률 (양수=이익, 음수=손실)
// confidence: 신뢰수준 (예: 0.95, 0.99)
// 반환값: VaR는 손실을 양수로 표현 (예: 0.05 = 5% 손실 가능)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 오름차순: 손실이 앞에
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// VaR: (1-confidence) 백분위수
	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	var varValue float64
	if sorted[idx] < 0 {
		varValue = -sorted[idx]
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        varValue,
		CVaR:       CalculateCVaR(sorted, idx),
	}
}

// CalculateCVaR Conditional VaR (Expected Shortfall)
// sorted: 오름차순 정렬된 수익률, varIdx 이하가 tail
func CalculateCVaR(sorted []float64, varIdx int) float64 {
	if len(sorted) == 0 || varIdx < 0 {
		return 0
	}
	if varIdx >= len(sorted) {
		varIdx = len(sorted) - 1
	}

	tail := stat.Mean(sorted[:varIdx+1], nil)
	if tail < 0 {
		return -tail
	}
	return 0
}

// =============================================================================
// 분포 요약
// =============================================================================

// Summarize 평균/표본 표준편차/백분위 (입력 순서와 무관)
func Summarize(values []float64, percentiles []int) Distribution {
	d := Distribution{Percentiles: make(map[int]float64, len(percentiles))}
	if len(values) == 0 {
		return d
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	if len(sorted) == 1 {
		d.Mean = sorted[0]
	} else {
		d.Mean, d.StdDev = stat.MeanStdDev(sorted, nil)
	}
	for _, p := range percentiles {
		d.Percentiles[p] = blocks.Percentile(sorted, float64(p))
	}
	return d
}
