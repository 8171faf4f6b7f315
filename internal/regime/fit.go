package regime

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/dist"
)

// FitParams 멤버 블록의 연간 수익률로 분포/상관 추정
// 추정값은 설정 허용 범위로 잘라내고, 상관행렬은 분해 가능할 때까지 축소
func FitParams(members []*blocks.Block) dist.Params {
	var series [dist.NumAssets][]float64
	for _, b := range members {
		for _, o := range b.Years {
			series[dist.Stocks] = append(series[dist.Stocks], o.Stocks)
			series[dist.Bonds] = append(series[dist.Bonds], o.Bonds)
			series[dist.Inflation] = append(series[dist.Inflation], o.Inflation)
		}
	}

	var assets [dist.NumAssets]dist.AssetParams
	for a := range assets {
		assets[a] = fitAsset(series[a], members, dist.Asset(a))
	}

	corr := dist.Correlations{
		StocksBonds:     correlation(series[dist.Stocks], series[dist.Bonds]),
		StocksInflation: correlation(series[dist.Stocks], series[dist.Inflation]),
		BondsInflation:  correlation(series[dist.Bonds], series[dist.Inflation]),
	}
	corr, _ = dist.Shrink(corr)

	return dist.Params{
		Stocks:       assets[dist.Stocks],
		Bonds:        assets[dist.Bonds],
		Inflation:    assets[dist.Inflation],
		Correlations: corr,
	}
}

func fitAsset(x []float64, members []*blocks.Block, a dist.Asset) dist.AssetParams {
	p := dist.AssetParams{Kurtosis: 3}
	if len(x) == 0 {
		return p
	}

	p.Mean = stat.Mean(x, nil)
	if len(x) >= 2 {
		p.Volatility = stat.StdDev(x, nil)
	}
	if p.Volatility > 0 {
		if len(x) >= 3 {
			p.Skew = finite(stat.Skew(x, nil), 0)
		}
		if len(x) >= 4 {
			p.Kurtosis = finite(stat.ExKurtosis(x, nil)+3, 3)
		}
	}
	p.Autocorrelation = pooledLag1(members, a, p.Mean)

	p.Mean = clampTo(p.Mean, -1, 1)
	p.Volatility = clampTo(finite(p.Volatility, 0), 0, 1)
	p.Skew = clampTo(p.Skew, -10, 10)
	p.Kurtosis = clampTo(p.Kurtosis, 0, 10)
	p.Autocorrelation = clampTo(p.Autocorrelation, -1, 1)
	return p
}

// pooledLag1 블록 내부의 연속 연도 쌍만 사용한 lag-1 자기상관
// (블록 경계를 넘는 쌍은 시계열상 연속이 아니므로 제외)
func pooledLag1(members []*blocks.Block, a dist.Asset, mean float64) float64 {
	var num, den float64
	for _, b := range members {
		for t, o := range b.Years {
			d := value(o.Stocks, o.Bonds, o.Inflation, a) - mean
			den += d * d
			if t+1 < len(b.Years) {
				n := b.Years[t+1]
				num += d * (value(n.Stocks, n.Bonds, n.Inflation, a) - mean)
			}
		}
	}
	if den == 0 {
		return 0
	}
	return finite(num/den, 0)
}

func value(stocks, bonds, inflation float64, a dist.Asset) float64 {
	switch a {
	case dist.Stocks:
		return stocks
	case dist.Bonds:
		return bonds
	default:
		return inflation
	}
}

// correlation 분산이 0이면 0 (무상관 취급)
func correlation(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return clampTo(finite(stat.Correlation(x, y, nil), 0), -1, 1)
}

func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clampTo(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
