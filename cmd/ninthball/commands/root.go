package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	simConfigFile string
	generatorName string
	seedOverride  int64
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ninthball",
	Short: "ninthball - 과거 수익률 기반 몬테카를로 시나리오 엔진",
	Long: `ninthball Unified CLI

연간 (주식, 채권, 물가) 과거 수익률로 미래 수익률 경로를 생성합니다.
생성기: historical | bootstrap | regime_bootstrap | parametric | regime_parametric

Usage:
  go run ./cmd/ninthball [command]

Examples:
  go run ./cmd/ninthball catalog
  go run ./cmd/ninthball regimes
  go run ./cmd/ninthball scenario --iteration 7 --years 30
  go run ./cmd/ninthball simulate --iterations 10000
  go run ./cmd/ninthball api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM은 커맨드 context 취소로 전달
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&simConfigFile, "sim-config", "", "simulation YAML (default: $SIM_CONFIG or configs/simulation.yaml)")
	rootCmd.PersistentFlags().StringVarP(&generatorName, "generator", "g", "", "generator override")
	rootCmd.PersistentFlags().Int64Var(&seedOverride, "seed", 0, "seed override (0 = keep config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
