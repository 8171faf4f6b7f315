package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/scenario"
	"github.com/wonny/ninthball/pkg/logger"
)

var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrNoIterations  = errors.New("source yields no iterations for this horizon")
)

// Recorder 실행 시간 기록 (pkg/metrics.Recorder)
type Recorder interface {
	RecordSimulation(generator string, d time.Duration)
}

// Runner 시나리오 소비 루프
// 반복 i의 결과는 항상 outcomes[i]에 기록 → 워커 수와 무관하게 같은 결과
type Runner struct {
	logger   *logger.Logger
	recorder Recorder
}

// NewRunner creates a runner (recorder는 nil 가능)
func NewRunner(log *logger.Logger, rec Recorder) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{logger: log, recorder: rec}
}

// Validate 설정 검사
func (c Config) Validate() error {
	switch {
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations must be >= 1", ErrInvalidConfig)
	case c.Years < 1:
		return fmt.Errorf("%w: years must be >= 1", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	case math.IsNaN(c.StocksAllocation) || c.StocksAllocation < 0 || c.StocksAllocation > 1:
		return fmt.Errorf("%w: stocks_allocation must be in [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Run 시나리오를 병렬로 생성/평가하고 분포를 요약
func (r *Runner) Run(ctx context.Context, src scenario.Generator, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{
		RunID:     uuid.New().String(),
		RunDate:   start,
		Generator: src.Name(),
		Config:    cfg,
	}

	n := cfg.Iterations
	if limit := src.MaxIterations(cfg.Years); limit < n {
		n = limit
		result.Truncated = true
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: %s, %d years", ErrNoIterations, src.Name(), cfg.Years)
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	log := r.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"generator": result.Generator,
	})
	log.WithFields(map[string]interface{}{
		"iterations": n,
		"years":      cfg.Years,
		"workers":    workers,
		"truncated":  result.Truncated,
	}).Info("Simulation started")

	outcomes := make([]Outcome, n)
	next := int64(-1)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(atomic.AddInt64(&next, 1))
				if i >= n {
					return nil
				}

				s, st, err := src.Generate(i, cfg.Years)
				if err != nil {
					return fmt.Errorf("iteration %d: %w", i, err)
				}
				o := Evaluate(s, cfg.StocksAllocation)
				o.Iteration = i
				o.Stats = st
				outcomes[i] = o
			}
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Simulation failed")
		return nil, err
	}

	summarize(result, outcomes)
	result.Duration = time.Since(start)
	if r.recorder != nil {
		r.recorder.RecordSimulation(result.Generator, result.Duration)
	}

	log.WithFields(map[string]interface{}{
		"median_return":    result.AnnualizedReturn.Percentiles[50],
		"loss_probability": result.LossProbability,
		"var_95":           result.VaR95.VaR,
		"fallbacks":        result.Stats.Fallbacks,
		"duration":         result.Duration.String(),
	}).Info("Simulation finished")
	return result, nil
}

// Evaluate 시나리오 1개를 고정 비중 포트폴리오로 평가
// 매년 주식 stocksAllocation / 채권 나머지로 리밸런싱, 물가로 실질화
func Evaluate(s scenario.Scenario, stocksAllocation float64) Outcome {
	rets := make([]float64, len(s))
	wealth := 1.0
	for i, y := range s {
		nominal := stocksAllocation*y.Stocks + (1-stocksAllocation)*y.Bonds
		rets[i] = blocks.Real(nominal, y.Inflation)
		wealth *= 1 + rets[i]
	}
	return Outcome{
		AnnualizedReturn: blocks.CAGR(rets),
		TerminalWealth:   wealth,
		MaxDrawdown:      blocks.MaxDrawdown(rets),
	}
}

func summarize(result *Result, outcomes []Outcome) {
	n := len(outcomes)
	annual := make([]float64, n)
	terminal := make([]float64, n)
	drawdown := make([]float64, n)
	losses := 0
	for i, o := range outcomes {
		annual[i] = o.AnnualizedReturn
		terminal[i] = o.TerminalWealth
		drawdown[i] = o.MaxDrawdown
		if o.TerminalWealth < 1 {
			losses++
		}
		result.Stats.Add(o.Stats)
	}

	result.Iterations = n
	result.AnnualizedReturn = Summarize(annual, DefaultPercentiles)
	result.TerminalWealth = Summarize(terminal, DefaultPercentiles)
	result.MaxDrawdown = Summarize(drawdown, DefaultPercentiles)
	result.VaR95 = CalculateVaR(annual, 0.95)
	result.VaR99 = CalculateVaR(annual, 0.99)
	result.LossProbability = float64(losses) / float64(n)
	result.Outcomes = outcomes
}
