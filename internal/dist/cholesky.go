package dist

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotPositiveDefinite 상관행렬이 양의 (준)정부호가 아님
var ErrNotPositiveDefinite = errors.New("correlation matrix is not positive semi-definite")

// pivotEps 이 값 이하의 피벗은 0으로 취급 (준정부호 허용)
const pivotEps = 1e-12

// Lower 3×3 하삼각 Cholesky 인자 (M = L·Lᵀ)
type Lower [NumAssets][NumAssets]float64

// Identity 무상관 인자
func Identity() Lower {
	return Lower{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply 독립 표준정규 e에 상관 주입: c = L·e
func (l *Lower) Apply(e [NumAssets]float64) [NumAssets]float64 {
	var out [NumAssets]float64
	for i := 0; i < NumAssets; i++ {
		var sum float64
		for j := 0; j <= i; j++ {
			sum += l[i][j] * e[j]
		}
		out[i] = sum
	}
	return out
}

// Cholesky 명시적 3×3 분해
// 피벗이 -pivotEps 미만이면 에러, [−eps, eps]이면 해당 열을 0으로 둠 (|ρ|=1 허용)
func Cholesky(m [NumAssets][NumAssets]float64) (Lower, error) {
	var l Lower
	for i := 0; i < NumAssets; i++ {
		for j := 0; j <= i; j++ {
			sum := m[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}

			if i == j {
				if sum < -pivotEps || math.IsNaN(sum) {
					return Lower{}, fmt.Errorf("%w: pivot %d = %g", ErrNotPositiveDefinite, i, sum)
				}
				if sum <= pivotEps {
					l[i][i] = 0
					continue
				}
				l[i][i] = math.Sqrt(sum)
				continue
			}

			if l[j][j] == 0 {
				// 퇴화된 열: 남은 잔차가 0이어야 일관됨
				if math.Abs(sum) > 1e-9 {
					return Lower{}, fmt.Errorf("%w: inconsistent column %d", ErrNotPositiveDefinite, j)
				}
				l[i][j] = 0
				continue
			}
			l[i][j] = sum / l[j][j]
		}
	}
	return l, nil
}

// shrinkFactor 한 단계당 비대각 축소 비율
const shrinkFactor = 0.95

// Shrink 분해 가능할 때까지 비대각을 반복 축소
// 추정된(fitted) 상관계수에만 사용, 설정값은 Validate에서 거부
func Shrink(c Correlations) (Correlations, Lower) {
	cur := c
	for i := 0; i < 500; i++ {
		if l, err := Cholesky(cur.Matrix()); err == nil {
			return cur, l
		}
		cur = cur.Scale(shrinkFactor)
	}
	return Correlations{}, Identity()
}
