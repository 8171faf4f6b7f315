package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/ninthball/internal/generator"
	"github.com/wonny/ninthball/internal/scenario"
	"github.com/wonny/ninthball/internal/simulation"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "몬테카를로 시뮬레이션 실행",
	Long: `고정 비중(매년 리밸런싱) 포트폴리오의 실질 수익률 분포를 계산합니다.

출력 항목:
- 연복리 실질 수익률 / 실질 자산 배수 / 최대 낙폭 백분위
- VaR / CVaR (95%, 99%, 손실 양수)
- 손실 확률 (실질 자산 < 1.0)
- 생성기 진단 카운터

Example:
  go run ./cmd/ninthball simulate
  go run ./cmd/ninthball simulate --iterations 50000 --years 40 --stocks 0.8
  go run ./cmd/ninthball simulate --all`,
	RunE: runSimulate,
}

var (
	simIterations int
	simYears      int
	simWorkers    int
	simStocks     float64
	simAll        bool
	simJSON       bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simIterations, "iterations", "n", 0, "반복 수 (0 = simulation.iterations)")
	simulateCmd.Flags().IntVar(&simYears, "years", 0, "기간 (0 = simulation.years)")
	simulateCmd.Flags().IntVar(&simWorkers, "workers", -1, "워커 수 (-1 = simulation.workers, 0 = CPU 수)")
	simulateCmd.Flags().Float64Var(&simStocks, "stocks", -1, "주식 비중 0..1 (-1 = simulation.stocks_allocation)")
	simulateCmd.Flags().BoolVar(&simAll, "all", false, "사용 가능한 모든 생성기 비교")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "JSON 출력")
}

// simulationConfig YAML simulation 설정 + 플래그 override
func simulationConfig(a *app) simulation.Config {
	cfg := simulation.Config{
		Iterations:       a.sim.Simulation.Iterations,
		Years:            a.sim.Simulation.Years,
		Workers:          a.sim.Simulation.Workers,
		StocksAllocation: a.sim.Simulation.StocksAllocation,
	}
	if simIterations > 0 {
		cfg.Iterations = simIterations
	}
	if simYears > 0 {
		cfg.Years = simYears
	}
	if simWorkers >= 0 {
		cfg.Workers = simWorkers
	}
	if simStocks >= 0 {
		cfg.StocksAllocation = simStocks
	}
	return cfg
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := simulationConfig(a)
	if err := cfg.Validate(); err != nil {
		return err
	}
	runner := simulation.NewRunner(a.log.Component("simulation"), a.metrics)

	kinds := []generator.Kind{a.sim.Kind()}
	if simAll {
		kinds = generator.Kinds()
	}

	results := make([]*simulation.Result, 0, len(kinds))
	for _, k := range kinds {
		g, err := a.engine.GeneratorFor(ctx, k)
		if err != nil {
			if simAll {
				a.log.WithError(err).Warn("Skipping generator")
				continue
			}
			return err
		}
		res, err := runner.Run(ctx, g, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		results = append(results, res)
	}

	if simJSON {
		if len(results) == 1 {
			return PrintJSON(out, results[0])
		}
		return PrintJSON(out, results)
	}

	if len(results) > 1 {
		printComparison(cmd, results, cfg)
		return nil
	}
	printResult(cmd, results[0])
	return nil
}

func printResult(cmd *cobra.Command, r *simulation.Result) {
	out := cmd.OutOrStdout()

	PrintHeader(out, fmt.Sprintf("Simulation %s", r.RunID))
	PrintKeyValue(out, "Generator", r.Generator, 12)
	PrintKeyValue(out, "Iterations", fmt.Sprintf("%d (requested %d, truncated: %v)", r.Iterations, r.Config.Iterations, r.Truncated), 12)
	PrintKeyValue(out, "Horizon", fmt.Sprintf("%d years", r.Config.Years), 12)
	PrintKeyValue(out, "Allocation", fmt.Sprintf("%.0f/%.0f stocks/bonds", r.Config.StocksAllocation*100, (1-r.Config.StocksAllocation)*100), 12)
	PrintKeyValue(out, "Duration", r.Duration.String(), 12)

	fmt.Fprintln(out)
	widths := []int{6, 12, 12, 12}
	PrintTableHeader(out, []string{"Pctl", "Real CAGR", "Wealth", "Drawdown"}, widths)
	for _, p := range simulation.DefaultPercentiles {
		PrintTableRow(out, []string{
			"p" + strconv.Itoa(p),
			pct(r.AnnualizedReturn.Percentiles[p]),
			fmt.Sprintf("%.3fx", r.TerminalWealth.Percentiles[p]),
			pct(r.MaxDrawdown.Percentiles[p]),
		}, widths)
	}
	PrintTableRow(out, []string{
		"mean",
		pct(r.AnnualizedReturn.Mean),
		fmt.Sprintf("%.3fx", r.TerminalWealth.Mean),
		pct(r.MaxDrawdown.Mean),
	}, widths)

	fmt.Fprintln(out)
	PrintKeyValue(out, "VaR 95", fmt.Sprintf("%s (CVaR %s)", pct(r.VaR95.VaR), pct(r.VaR95.CVaR)), 12)
	PrintKeyValue(out, "VaR 99", fmt.Sprintf("%s (CVaR %s)", pct(r.VaR99.VaR), pct(r.VaR99.CVaR)), 12)
	PrintKeyValue(out, "P(loss)", pct(r.LossProbability), 12)
	printStats(cmd, r.Stats)

	if r.Stats.Fallbacks > 0 {
		PrintWarning(out, fmt.Sprintf("%d draws accepted after exhausting redraws", r.Stats.Fallbacks))
	}
}

func printStats(cmd *cobra.Command, st scenario.Stats) {
	PrintKeyValue(cmd.OutOrStdout(), "Stats", fmt.Sprintf("samples=%d overlaps=%d resamples=%d fallbacks=%d switches=%d clamps=%d",
		st.Samples, st.Overlaps, st.Resamples, st.Fallbacks, st.RegimeSwitches, st.Clamps), 12)
}

func printComparison(cmd *cobra.Command, results []*simulation.Result, cfg simulation.Config) {
	out := cmd.OutOrStdout()

	PrintHeader(out, fmt.Sprintf("Generator comparison (%d years, %.0f%% stocks)", cfg.Years, cfg.StocksAllocation*100))
	widths := []int{18, 6, 8, 8, 8, 8, 8}
	PrintTableHeader(out, []string{"Generator", "Runs", "p5", "p50", "p95", "VaR95", "P(loss)"}, widths)
	for _, r := range results {
		runs := strconv.Itoa(r.Iterations)
		if r.Truncated {
			runs += "*"
		}
		PrintTableRow(out, []string{
			r.Generator,
			runs,
			pct(r.AnnualizedReturn.Percentiles[5]),
			pct(r.AnnualizedReturn.Percentiles[50]),
			pct(r.AnnualizedReturn.Percentiles[95]),
			pct(r.VaR95.VaR),
			pct(r.LossProbability),
		}, widths)
	}
	fmt.Fprintln(out, "\n* truncated: the source has fewer distinct paths than requested")
}
