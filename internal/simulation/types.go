package simulation

import (
	"time"

	"github.com/wonny/ninthball/internal/scenario"
)

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=0.05 → 5% 손실 가능)
const VaRConvention = "loss_positive"

// 요약 백분위
var DefaultPercentiles = []int{1, 5, 10, 25, 50, 75, 90, 95, 99}

// VaRResult VaR 계산 결과 (손실 양수)
type VaRResult struct {
	Confidence float64 `json:"confidence"` // 신뢰수준 (예: 0.95, 0.99)
	VaR        float64 `json:"var"`        // Value at Risk (손실, 양수)
	CVaR       float64 `json:"cvar"`       // Conditional VaR (Expected Shortfall, 양수)
}

// Config 시뮬레이션 설정
// ⭐ 재현성: 결과에 그대로 기록
type Config struct {
	Iterations       int     `json:"iterations"`
	Years            int     `json:"years"`
	Workers          int     `json:"workers"` // 0 = runtime.NumCPU()
	StocksAllocation float64 `json:"stocks_allocation"`
}

// Outcome 반복 1회 결과 (고정 비중, 매년 리밸런싱, 실질 기준)
type Outcome struct {
	Iteration        int            `json:"iteration"`
	AnnualizedReturn float64        `json:"annualized_return"` // 실질 연복리
	TerminalWealth   float64        `json:"terminal_wealth"`   // 시작 1.0 기준 실질 가치
	MaxDrawdown      float64        `json:"max_drawdown"`      // 양수
	Stats            scenario.Stats `json:"stats"`
}

// Distribution 결과 분포 요약
type Distribution struct {
	Mean        float64         `json:"mean"`
	StdDev      float64         `json:"std_dev"`
	Min         float64         `json:"min"`
	Max         float64         `json:"max"`
	Percentiles map[int]float64 `json:"percentiles"`
}

// Result 시뮬레이션 결과
type Result struct {
	RunID     string    `json:"run_id"`
	RunDate   time.Time `json:"run_date"`
	Generator string    `json:"generator"`
	Config    Config    `json:"config"`

	Iterations int  `json:"iterations"` // 실제 수행 반복 수
	Truncated  bool `json:"truncated"`  // 소스 상한으로 요청보다 적게 수행

	AnnualizedReturn Distribution `json:"annualized_return"`
	TerminalWealth   Distribution `json:"terminal_wealth"`
	MaxDrawdown      Distribution `json:"max_drawdown"`

	VaR95           VaRResult `json:"var_95"` // 연복리 실질 수익률 기준
	VaR99           VaRResult `json:"var_99"`
	LossProbability float64   `json:"loss_probability"` // 실질 가치 < 1.0 비율

	Stats    scenario.Stats `json:"stats"`
	Duration time.Duration  `json:"duration"`

	Outcomes []Outcome `json:"-"`
}
