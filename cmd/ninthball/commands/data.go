package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/simconfig"
)

// dataCmd represents the data command group
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "과거 수익률 데이터 관리",
}

// dataCheckCmd represents the data check command
var dataCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "과거 수익률 데이터 상태 확인",
	Long: `설정된 소스(csv | html | postgres)에서 시계열을 읽고 검증합니다.

확인 항목:
- 기간 / 연도 수 (정렬, 누락 연도 검사)
- 자산별 평균 / 표준편차 / 최소 / 최대
- 시계열 digest (국면 모델 캐시 키)

Example:
  go run ./cmd/ninthball data check
  HISTORY_SOURCE=postgres go run ./cmd/ninthball data check`,
	RunE: runDataCheck,
}

// dataImportCmd represents the data import command
var dataImportCmd = &cobra.Command{
	Use:   "import",
	Short: "CSV/HTML 시계열을 PostgreSQL로 저장",
	Long: `CSV 또는 HTML 표를 읽어 검증 후 history.table에 저장합니다 (기존 데이터 교체).
DATABASE_URL이 필요합니다.

Example:
  go run ./cmd/ninthball data import --from csv --path data/returns.csv
  go run ./cmd/ninthball data import --from html --path https://example.com/returns.html`,
	RunE: runDataImport,
}

var (
	importFrom  string
	importPath  string
	importTable string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataCheckCmd)
	dataCmd.AddCommand(dataImportCmd)

	dataImportCmd.Flags().StringVar(&importFrom, "from", simconfig.SourceCSV, "소스 형식 (csv | html)")
	dataImportCmd.Flags().StringVar(&importPath, "path", "", "파일 경로 또는 URL (기본: history.path)")
	dataImportCmd.Flags().StringVar(&importTable, "table", "", "대상 테이블 (기본: history.table)")
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	loader, err := a.loader(a.sim.History)
	if err != nil {
		return err
	}
	series, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s history: %w", a.sim.History.Source, err)
	}

	PrintHeader(out, "History Check")
	PrintKeyValue(out, "Source", fmt.Sprintf("%s (%s)", a.sim.History.Source, a.sim.History.Path), 8)
	PrintKeyValue(out, "Period", fmt.Sprintf("%d..%d", series.MinYear(), series.MaxYear()), 8)
	PrintKeyValue(out, "Years", strconv.Itoa(series.Len()), 8)
	PrintKeyValue(out, "Digest", series.Digest(), 8)

	obs := series.Observations()
	cols := [3][]float64{}
	for _, o := range obs {
		cols[0] = append(cols[0], o.Stocks)
		cols[1] = append(cols[1], o.Bonds)
		cols[2] = append(cols[2], o.Inflation)
	}

	fmt.Fprintln(out)
	widths := []int{10, 9, 9, 9, 9}
	PrintTableHeader(out, []string{"Asset", "Mean", "StdDev", "Min", "Max"}, widths)
	for i, name := range []string{"Stocks", "Bonds", "Inflation"} {
		mean, std := stat.MeanStdDev(cols[i], nil)
		lo, hi := cols[i][0], cols[i][0]
		for _, v := range cols[i] {
			lo, hi = min(lo, v), max(hi, v)
		}
		PrintTableRow(out, []string{name, pct(mean), pct(std), pct(lo), pct(hi)}, widths)
	}

	for _, l := range a.sim.Bootstrap.BlockLengths {
		if l > series.Len() {
			PrintWarning(out, fmt.Sprintf("block length %d exceeds history (%d years)", l, series.Len()))
		}
	}

	fmt.Fprintln(out)
	PrintSuccess(out, "History is valid")
	return nil
}

func runDataImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db == nil {
		return errors.New("data import requires DATABASE_URL")
	}
	if importFrom != simconfig.SourceCSV && importFrom != simconfig.SourceHTML {
		return fmt.Errorf("unsupported import source %q (want csv or html)", importFrom)
	}

	src := a.sim.History
	src.Source = importFrom
	if importPath != "" {
		src.Path = importPath
	}
	table := src.Table
	if importTable != "" {
		table = importTable
	}

	loader, err := a.loader(src)
	if err != nil {
		return err
	}
	series, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Path, err)
	}

	n, err := history.Import(ctx, a.db.Pool, table, series)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	a.log.WithFields(map[string]interface{}{
		"table":  table,
		"rows":   n,
		"digest": series.Digest(),
	}).Info("History imported")
	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Imported %d years (%d..%d) into %s", n, series.MinYear(), series.MaxYear(), table))
	return nil
}
