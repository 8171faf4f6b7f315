package blocks

import (
	"fmt"
	"sort"
)

// 기본 극단 구간 백분위
const (
	DefaultDisasterPercentile = 10.0
	DefaultJackpotPercentile  = 90.0
)

// Thresholds 랭킹 점수 기준 극단(disaster/jackpot) 경계값
type Thresholds struct {
	DisasterPercentile float64 `json:"disaster_percentile"`
	JackpotPercentile  float64 `json:"jackpot_percentile"`
	Disaster           float64 `json:"disaster"` // 이 값 이하 = disaster
	Jackpot            float64 `json:"jackpot"`  // 이 값 이상 = jackpot
}

// NewThresholds 카탈로그 전체 점수의 백분위로 경계값 계산
func NewThresholds(c *Catalog, low, high float64) (Thresholds, error) {
	if low < 0 || high > 100 || low >= high {
		return Thresholds{}, fmt.Errorf("invalid percentiles: low=%.2f high=%.2f", low, high)
	}

	scores := c.Scores()
	sort.Float64s(scores)

	return Thresholds{
		DisasterPercentile: low,
		JackpotPercentile:  high,
		Disaster:           Percentile(scores, low),
		Jackpot:            Percentile(scores, high),
	}, nil
}

// IsDisaster 점수가 하위 경계 이하인지
func (t Thresholds) IsDisaster(b *Block) bool { return b.Score() <= t.Disaster }

// IsJackpot 점수가 상위 경계 이상인지
func (t Thresholds) IsJackpot(b *Block) bool { return b.Score() >= t.Jackpot }

// BothExtreme 두 블록이 동시에 disaster이거나 동시에 jackpot인지
func (t Thresholds) BothExtreme(a, b *Block) bool {
	return (t.IsDisaster(a) && t.IsDisaster(b)) || (t.IsJackpot(a) && t.IsJackpot(b))
}
