package dist

import (
	"fmt"
	"math"
)

// Asset 자산 인덱스 (Year 필드 순서와 동일)
type Asset int

const (
	Stocks Asset = iota
	Bonds
	Inflation
)

// NumAssets 자산 수
const NumAssets = 3

func (a Asset) String() string {
	switch a {
	case Stocks:
		return "stocks"
	case Bonds:
		return "bonds"
	case Inflation:
		return "inflation"
	}
	return fmt.Sprintf("asset(%d)", int(a))
}

// AssetParams 단일 자산의 연간 수익률 분포 파라미터
type AssetParams struct {
	Mean            float64 `json:"mean" yaml:"mean"`
	Volatility      float64 `json:"volatility" yaml:"volatility"`
	Skew            float64 `json:"skew" yaml:"skew"`
	Kurtosis        float64 `json:"kurtosis" yaml:"kurtosis"` // 정규분포 = 3 (excess 아님)
	Autocorrelation float64 `json:"autocorrelation" yaml:"autocorrelation"`
}

// ExcessKurtosis kurtosis - 3
func (p AssetParams) ExcessKurtosis() float64 { return p.Kurtosis - 3 }

// Normal 평균/변동성만 지정된 정규분포 파라미터
func Normal(mean, vol float64) AssetParams {
	return AssetParams{Mean: mean, Volatility: vol, Kurtosis: 3}
}

// Correlations 자산 간 상관계수
type Correlations struct {
	StocksBonds     float64 `json:"stocks_bonds" yaml:"stocks_bonds"`
	StocksInflation float64 `json:"stocks_inflation" yaml:"stocks_inflation"`
	BondsInflation  float64 `json:"bonds_inflation" yaml:"bonds_inflation"`
}

// Matrix 3×3 상관행렬 (대각 = 1)
func (c Correlations) Matrix() [NumAssets][NumAssets]float64 {
	return [NumAssets][NumAssets]float64{
		{1, c.StocksBonds, c.StocksInflation},
		{c.StocksBonds, 1, c.BondsInflation},
		{c.StocksInflation, c.BondsInflation, 1},
	}
}

// Scale 비대각 원소에 factor 적용
func (c Correlations) Scale(factor float64) Correlations {
	return Correlations{
		StocksBonds:     c.StocksBonds * factor,
		StocksInflation: c.StocksInflation * factor,
		BondsInflation:  c.BondsInflation * factor,
	}
}

// Params 3자산 결합 분포
type Params struct {
	Stocks       AssetParams  `json:"stocks" yaml:"stocks"`
	Bonds        AssetParams  `json:"bonds" yaml:"bonds"`
	Inflation    AssetParams  `json:"inflation" yaml:"inflation"`
	Correlations Correlations `json:"correlations" yaml:"correlations"`
}

// Asset 인덱스로 자산 파라미터 조회
func (p *Params) Asset(a Asset) AssetParams {
	switch a {
	case Stocks:
		return p.Stocks
	case Bonds:
		return p.Bonds
	default:
		return p.Inflation
	}
}

// Validate 허용 범위 검사
// mean ∈ [-1,1], volatility ∈ [0,1], skew ∈ [-10,10], kurtosis ∈ [0,10], autocorrelation ∈ [-1,1]
func (p *Params) Validate() error {
	for a := Stocks; a <= Inflation; a++ {
		ap := p.Asset(a)
		checks := []struct {
			name     string
			v        float64
			min, max float64
		}{
			{"mean", ap.Mean, -1, 1},
			{"volatility", ap.Volatility, 0, 1},
			{"skew", ap.Skew, -10, 10},
			{"kurtosis", ap.Kurtosis, 0, 10},
			{"autocorrelation", ap.Autocorrelation, -1, 1},
		}
		for _, c := range checks {
			if !inRange(c.v, c.min, c.max) {
				return fmt.Errorf("%s.%s=%v out of range [%v, %v]", a, c.name, c.v, c.min, c.max)
			}
		}
	}

	corr := []struct {
		name string
		v    float64
	}{
		{"stocks_bonds", p.Correlations.StocksBonds},
		{"stocks_inflation", p.Correlations.StocksInflation},
		{"bonds_inflation", p.Correlations.BondsInflation},
	}
	for _, c := range corr {
		if !inRange(c.v, -1, 1) {
			return fmt.Errorf("correlations.%s=%v out of range [-1, 1]", c.name, c.v)
		}
	}

	if _, err := Cholesky(p.Correlations.Matrix()); err != nil {
		return err
	}
	return nil
}

func inRange(v, min, max float64) bool {
	return !math.IsNaN(v) && v >= min && v <= max
}
