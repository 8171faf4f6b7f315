package regime

import "fmt"

// 라벨 판정 경계 (멤버 평균 특성 기준)
const (
	highInflation  = 0.06
	bearRealStocks = -0.02
	bullRealStocks = 0.08
	deepDrawdown   = 0.25
)

// labelFor 평균 특성으로 사람이 읽을 라벨 결정
func labelFor(r *Regime) string {
	p := r.Profile
	switch {
	case p.InflationCAGR >= highInflation && p.StocksRealCAGR < 0:
		return "Stagflation"
	case p.InflationCAGR >= highInflation:
		return "Inflationary"
	case p.StocksRealCAGR <= bearRealStocks || p.StocksMaxDrawdown >= deepDrawdown:
		return "Bear"
	case p.StocksRealCAGR >= bullRealStocks:
		return "Bull"
	default:
		return "Moderate"
	}
}

// assignLabels 중복 라벨은 번호를 붙여 구분
func assignLabels(regimes []Regime) {
	seen := make(map[string]int, len(regimes))
	for i := range regimes {
		base := labelFor(&regimes[i])
		seen[base]++
		if n := seen[base]; n > 1 {
			regimes[i].Label = fmt.Sprintf("%s %d", base, n)
			continue
		}
		regimes[i].Label = base
	}
}
