package dist

// Bounds 자산별 연간 수익률 하드 클램프 범위
type Bounds struct {
	Min, Max float64
}

// 고정 범위 (설정 불가)
var bounds = [NumAssets]Bounds{
	Stocks:    {Min: -0.60, Max: 0.60},
	Bonds:     {Min: -0.15, Max: 0.25},
	Inflation: {Min: -0.10, Max: 0.30},
}

// BoundsFor 자산의 클램프 범위
func BoundsFor(a Asset) Bounds { return bounds[a] }

// Clamp 범위로 자르고 잘렸는지 여부 반환
func Clamp(a Asset, v float64) (float64, bool) {
	b := bounds[a]
	switch {
	case v < b.Min:
		return b.Min, true
	case v > b.Max:
		return b.Max, true
	}
	return v, false
}
