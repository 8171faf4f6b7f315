package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/ninthball/internal/blocks"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "블록 카탈로그 / 극단 구간 확인",
	Long: `과거 시계열에서 추출한 블록 카탈로그를 출력합니다.

출력 항목:
- 길이별 블록 수
- disaster / jackpot 경계값 (60/40 실질 CAGR 백분위)
- 점수 상위 / 하위 블록

Example:
  go run ./cmd/ninthball catalog
  go run ./cmd/ninthball catalog --length 5 --top 10`,
	RunE: runCatalog,
}

var (
	catalogLength int
	catalogTop    int
	catalogJSON   bool
)

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().IntVar(&catalogLength, "length", 0, "이 길이의 블록만 (0 = 전체)")
	catalogCmd.Flags().IntVar(&catalogTop, "top", 5, "상위/하위 블록 출력 개수")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "JSON 출력")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.engine.Snapshot(ctx)
	if err != nil {
		return err
	}

	c := snap.Catalog
	selected := make([]*blocks.Block, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if b := c.Block(i); catalogLength == 0 || b.Length == catalogLength {
			selected = append(selected, b)
		}
	}
	if catalogJSON {
		return PrintJSON(out, map[string]interface{}{
			"thresholds": snap.Thresholds,
			"by_length":  c.CountByLength(),
			"blocks":     selected,
		})
	}

	PrintHeader(out, "Block Catalog")
	PrintKeyValue(out, "History", fmt.Sprintf("%d..%d (%d years)", snap.Series.MinYear(), snap.Series.MaxYear(), snap.Series.Len()), 10)
	PrintKeyValue(out, "Blocks", strconv.Itoa(c.Len()), 10)
	for _, l := range c.Lengths() {
		PrintKeyValue(out, fmt.Sprintf("L=%d", l), strconv.Itoa(c.CountByLength()[l]), 10)
	}
	PrintKeyValue(out, "Disaster", fmt.Sprintf("<= %s (p%.0f)", pct(snap.Thresholds.Disaster), snap.Thresholds.DisasterPercentile), 10)
	PrintKeyValue(out, "Jackpot", fmt.Sprintf(">= %s (p%.0f)", pct(snap.Thresholds.Jackpot), snap.Thresholds.JackpotPercentile), 10)

	if len(selected) == 0 {
		PrintWarning(out, fmt.Sprintf("길이 %d 블록 없음", catalogLength))
		return nil
	}

	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Score() > selected[j].Score() })
	n := catalogTop
	if n > len(selected) {
		n = len(selected)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Top blocks")
	printBlocks(cmd, selected[:n], snap.Thresholds)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Bottom blocks")
	printBlocks(cmd, selected[len(selected)-n:], snap.Thresholds)
	return nil
}

func printBlocks(cmd *cobra.Command, bs []*blocks.Block, t blocks.Thresholds) {
	out := cmd.OutOrStdout()
	widths := []int{11, 3, 10, 10, 10, 10, 8}
	PrintTableHeader(out, []string{"Years", "L", "60/40 real", "Stocks", "Bonds", "Inflation", "Class"}, widths)
	for _, b := range bs {
		class := ""
		switch {
		case t.IsDisaster(b):
			class = "disaster"
		case t.IsJackpot(b):
			class = "jackpot"
		}
		PrintTableRow(out, []string{
			fmt.Sprintf("%d-%d", b.FirstYear, b.LastYear),
			strconv.Itoa(b.Length),
			pct(b.Score()),
			pct(b.Features.StocksRealCAGR),
			pct(b.Features.BondsRealCAGR),
			pct(b.Features.InflationCAGR),
			class,
		}, widths)
	}
}
