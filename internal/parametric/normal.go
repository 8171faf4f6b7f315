package parametric

import "math"

// uniform 경계값 회피 범위 (NormInv가 ±Inf가 되지 않도록)
const uniformEps = 1e-10

// =============================================================================
// 정규분포 유틸리티
// =============================================================================

// Acklam rational approximation 계수 (상대오차 < 1.15e-9)
var (
	normA = [6]float64{
		-3.969683028665376e+01,
		2.209460984245205e+02,
		-2.759285104469687e+02,
		1.383577518672690e+02,
		-3.066479806614716e+01,
		2.506628277459239e+00,
	}
	normB = [5]float64{
		-5.447609879822406e+01,
		1.615858368580409e+02,
		-1.556989798598866e+02,
		6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	normC = [6]float64{
		-7.784894002430293e-03,
		-3.223964580411365e-01,
		-2.400758277161838e+00,
		-2.549732539343734e+00,
		4.374664141464968e+00,
		2.938163982698783e+00,
	}
	normD = [4]float64{
		7.784695709041462e-03,
		3.224671290700398e-01,
		2.445134137142996e+00,
		3.754408661907416e+00,
	}
)

// 구간 경계: 하단 꼬리 / 중앙 / 상단 꼬리
const (
	pLow  = 0.02425
	pHigh = 1 - pLow
)

// NormInv 표준정규분포 역함수 (Quantile Function)
// 세 구간 piecewise rational approximation
func NormInv(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return math.NaN()
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	}

	a, b, c, d := &normA, &normB, &normC, &normD

	if p < pLow {
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
	if p <= pHigh {
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
	q := math.Sqrt(-2 * math.Log(1-p))
	return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
		((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
}

// ClampUniform (0,1) 경계에서 떨어뜨림
func ClampUniform(u float64) float64 {
	return math.Max(uniformEps, math.Min(1-uniformEps, u))
}

// CornishFisher 표준정규 z에 왜도/초과첨도 반영
// w = z + (z²-1)S/6 + (z³-3z)K/24 - (2z³-5z)S²/36
func CornishFisher(z, skew, excessKurtosis float64) float64 {
	z2 := z * z
	z3 := z2 * z
	return z +
		(z2-1)*skew/6 +
		(z3-3*z)*excessKurtosis/24 -
		(2*z3-5*z)*skew*skew/36
}
