package regime

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Standardizer 컬럼별 z-score 변환 (카탈로그 전체 평균/표준편차 기준)
type Standardizer struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitStandardizer 행렬(행 = 블록, 열 = 특성)로부터 평균/표준편차 추정
// 분산이 0인 컬럼은 std=1로 두어 0으로 나누지 않음
func FitStandardizer(rows [][]float64) Standardizer {
	if len(rows) == 0 {
		return Standardizer{}
	}
	dim := len(rows[0])
	s := Standardizer{
		Mean: make([]float64, dim),
		Std:  make([]float64, dim),
	}

	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return s
}

// Transform 단일 행 변환 (새 슬라이스 반환)
func (s Standardizer) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll 전체 행 변환
func (s Standardizer) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.Transform(r)
	}
	return out
}
