package parametric

import (
	"math"
	"math/rand"

	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/scenario"
)

// arState 자산별 AR(1) 직전 z (반복 전용, 0에서 시작)
type arState [dist.NumAssets]float64

// step 한 해 합성: 균등 → 정규 → 상관 주입 → AR(1) → Cornish-Fisher → 스케일 → 클램프
func step(rng *rand.Rand, p *dist.Params, l *dist.Lower, state *arState, st *scenario.Stats) scenario.Year {
	var e [dist.NumAssets]float64
	for a := range e {
		e[a] = NormInv(ClampUniform(rng.Float64()))
	}
	c := l.Apply(e)

	var out [dist.NumAssets]float64
	for i := range out {
		a := dist.Asset(i)
		ap := p.Asset(a)

		rho := ap.Autocorrelation
		z := rho*state[i] + math.Sqrt(1-rho*rho)*c[i]
		state[i] = z

		w := CornishFisher(z, ap.Skew, ap.ExcessKurtosis())
		v, clamped := dist.Clamp(a, ap.Mean+w*ap.Volatility)
		if clamped {
			st.Clamps++
		}
		out[i] = v
	}
	st.Samples++

	return scenario.Year{
		Stocks:    out[dist.Stocks],
		Bonds:     out[dist.Bonds],
		Inflation: out[dist.Inflation],
	}
}
