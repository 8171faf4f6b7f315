package blocks

import (
	"github.com/wonny/ninthball/internal/history"
)

// FeatureNames Features.Vector()의 컬럼 순서
var FeatureNames = []string{
	"stocks_cagr",
	"stocks_real_cagr",
	"bonds_cagr",
	"bonds_real_cagr",
	"stocks_max_drawdown",
	"bonds_max_drawdown",
	"inflation_cagr",
	"blend_real_cagr",
}

// Features 블록 요약 통계 (군집화 입력)
type Features struct {
	StocksCAGR        float64 `json:"stocks_cagr"`
	StocksRealCAGR    float64 `json:"stocks_real_cagr"`
	BondsCAGR         float64 `json:"bonds_cagr"`
	BondsRealCAGR     float64 `json:"bonds_real_cagr"`
	StocksMaxDrawdown float64 `json:"stocks_max_drawdown"`
	BondsMaxDrawdown  float64 `json:"bonds_max_drawdown"`
	InflationCAGR     float64 `json:"inflation_cagr"`  // 기하평균 물가상승률
	BlendRealCAGR     float64 `json:"blend_real_cagr"` // 60/40 실질 CAGR (랭킹 점수)
}

// Vector FeatureNames 순서의 특성 벡터
func (f Features) Vector() []float64 {
	return []float64{
		f.StocksCAGR,
		f.StocksRealCAGR,
		f.BondsCAGR,
		f.BondsRealCAGR,
		f.StocksMaxDrawdown,
		f.BondsMaxDrawdown,
		f.InflationCAGR,
		f.BlendRealCAGR,
	}
}

// Block 연속된 L년 구간과 그 특성
type Block struct {
	Index     int                   `json:"index"` // 카탈로그 내 위치
	Start     int                   `json:"start"` // 시계열 내 시작 offset
	Length    int                   `json:"length"`
	FirstYear int                   `json:"first_year"`
	LastYear  int                   `json:"last_year"`
	Years     []history.Observation `json:"-"`
	Features  Features              `json:"features"`
}

// Score 랭킹 점수: 60/40 혼합 포트폴리오의 실질 CAGR
func (b *Block) Score() float64 {
	return b.Features.BlendRealCAGR
}

// Overlaps 두 블록의 연도 범위가 겹치는지 여부 (반사적, 대칭적)
func Overlaps(a, b *Block) bool {
	return a.FirstYear <= b.LastYear && b.FirstYear <= a.LastYear
}

// ComputeFeatures 관측치 구간의 특성 계산
func ComputeFeatures(years []history.Observation) Features {
	n := len(years)
	stocks := make([]float64, n)
	bonds := make([]float64, n)
	infl := make([]float64, n)
	stocksReal := make([]float64, n)
	bondsReal := make([]float64, n)
	blendReal := make([]float64, n)

	for i, o := range years {
		stocks[i] = o.Stocks
		bonds[i] = o.Bonds
		infl[i] = o.Inflation
		stocksReal[i] = Real(o.Stocks, o.Inflation)
		bondsReal[i] = Real(o.Bonds, o.Inflation)
		blendReal[i] = Real(Blend60*o.Stocks+(1-Blend60)*o.Bonds, o.Inflation)
	}

	return Features{
		StocksCAGR:        CAGR(stocks),
		StocksRealCAGR:    CAGR(stocksReal),
		BondsCAGR:         CAGR(bonds),
		BondsRealCAGR:     CAGR(bondsReal),
		StocksMaxDrawdown: MaxDrawdown(stocks),
		BondsMaxDrawdown:  MaxDrawdown(bonds),
		InflationCAGR:     CAGR(infl),
		BlendRealCAGR:     CAGR(blendReal),
	}
}
