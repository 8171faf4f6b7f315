package blocks

import "math"

// Blend60 기준 혼합 포트폴리오의 주식 비중 (60/40)
const Blend60 = 0.6

// Real 명목 수익률을 실질 수익률로 변환
// real = (1+nominal)/(1+inflation) - 1
func Real(nominal, inflation float64) float64 {
	return (1+nominal)/(1+inflation) - 1
}

// CAGR 기하평균 연복리 수익률
// (Π(1+r))^(1/n) - 1
func CAGR(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return math.Pow(growth, 1/float64(len(returns))) - 1
}

// MaxDrawdown 누적 가치 기준 최대 낙폭 (양수, 0.25 = 25% 하락)
// 시작 가치 1.0을 첫 고점으로 간주
func MaxDrawdown(returns []float64) float64 {
	value, peak, worst := 1.0, 1.0, 0.0
	for _, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if dd := (peak - value) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

// Percentile 백분위수 (p: 0~100, 선형 보간)
// sorted는 오름차순 정렬되어 있어야 함
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
