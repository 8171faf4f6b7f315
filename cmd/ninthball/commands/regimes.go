package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// regimesCmd represents the regimes command
var regimesCmd = &cobra.Command{
	Use:   "regimes",
	Short: "시장 국면 발견 결과 확인",
	Long: `블록 특성을 k-means로 군집화한 시장 국면을 출력합니다.

출력 항목:
- 국면별 라벨 / 블록 수 / 평균 특성
- 군집 품질 지표 (Silhouette, Davies-Bouldin, Calinski-Harabasz, Dunn)
- 국면 전이 확률 행렬

Example:
  go run ./cmd/ninthball regimes
  go run ./cmd/ninthball regimes --json`,
	RunE: runRegimes,
}

var regimesJSON bool

func init() {
	rootCmd.AddCommand(regimesCmd)

	regimesCmd.Flags().BoolVar(&regimesJSON, "json", false, "JSON 출력 (전체 모델)")
}

func runRegimes(cmd *cobra.Command, args []string) error {
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
	m := snap.Model

	if regimesJSON {
		return PrintJSON(out, m)
	}

	PrintHeader(out, "Market Regimes")
	PrintKeyValue(out, "K", strconv.Itoa(m.K()), 12)
	PrintKeyValue(out, "Iterations", fmt.Sprintf("%d (converged: %v, reseeds: %d)", m.Iterations, m.Converged, m.Reseeds), 12)
	PrintKeyValue(out, "Cached", strconv.FormatBool(snap.ModelCached), 12)
	PrintKeyValue(out, "Silhouette", fmt.Sprintf("%.3f", m.Quality.Silhouette), 12)
	PrintKeyValue(out, "Davies-B.", fmt.Sprintf("%.3f", m.Quality.DaviesBouldin), 12)
	PrintKeyValue(out, "Calinski-H.", fmt.Sprintf("%.1f", m.Quality.CalinskiHarabasz), 12)
	PrintKeyValue(out, "Dunn", fmt.Sprintf("%.3f", m.Quality.Dunn), 12)
	PrintKeyValue(out, "Inertia", fmt.Sprintf("%.2f", m.Quality.Inertia), 12)

	fmt.Fprintln(out)
	widths := []int{3, 22, 6, 10, 10, 10, 10}
	PrintTableHeader(out, []string{"ID", "Label", "Blocks", "60/40 real", "Stocks", "Bonds", "Inflation"}, widths)
	for i := range m.Regimes {
		r := &m.Regimes[i]
		PrintTableRow(out, []string{
			strconv.Itoa(r.ID),
			r.Label,
			strconv.Itoa(r.Size()),
			pct(r.Profile.BlendRealCAGR),
			pct(r.Profile.StocksCAGR),
			pct(r.Profile.BondsCAGR),
			pct(r.Profile.InflationCAGR),
		}, widths)
	}

	if m.Transition == nil {
		return errors.New("regime model has no transition matrix")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Transition (row = from, col = to)")
	cols := make([]string, 0, m.K()+2)
	tw := make([]int, 0, m.K()+2)
	cols, tw = append(cols, "from"), append(tw, 6)
	for j := 0; j < m.K(); j++ {
		cols, tw = append(cols, strconv.Itoa(j)), append(tw, 7)
	}
	cols, tw = append(cols, "obs"), append(tw, 5)
	PrintTableHeader(out, cols, tw)
	for i, row := range m.Transition.Empirical {
		vals := []string{strconv.Itoa(i)}
		obs := 0
		for j, p := range row {
			vals = append(vals, fmt.Sprintf("%.3f", p))
			obs += m.Transition.Counts[i][j]
		}
		vals = append(vals, strconv.Itoa(obs))
		PrintTableRow(out, vals, tw)
	}

	shares := make([]string, len(m.Transition.Unconditional))
	for i, p := range m.Transition.Unconditional {
		shares[i] = fmt.Sprintf("%.3f", p)
	}
	fmt.Fprintf(out, "\nUnconditional: [%s]\n", strings.Join(shares, " "))
	return nil
}
