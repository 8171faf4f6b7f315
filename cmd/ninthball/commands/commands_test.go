package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ninthball/internal/simulation"
)

// writeSimConfig 저장소의 data/returns.csv를 가리키는 임시 YAML
func writeSimConfig(t *testing.T, generator string) string {
	t.Helper()
	csvPath, err := filepath.Abs("../../../data/returns.csv")
	require.NoError(t, err)

	yaml := "seed: 7\n" +
		"generator: " + generator + "\n" +
		"history:\n  source: csv\n  path: " + csvPath + "\n" +
		"regimes:\n  count: 3\n" +
		"simulation:\n  iterations: 200\n  years: 20\n  workers: 2\n"

	path := filepath.Join(t.TempDir(), "simulation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

// run rootCmd 실행 후 stdout 반환
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("HISTORY_SOURCE", "")
	t.Setenv("HISTORY_PATH", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimulateCommand(t *testing.T) {
	cfgPath := writeSimConfig(t, "bootstrap")

	out, err := run(t, "simulate", "--sim-config", cfgPath, "--iterations", "150", "--json")
	require.NoError(t, err)

	var res simulation.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "bootstrap", res.Generator)
	assert.Equal(t, 150, res.Iterations)
	assert.Equal(t, 20, res.Config.Years)
	assert.Equal(t, 0.6, res.Config.StocksAllocation)
	assert.NotEmpty(t, res.RunID)
}

func TestScenarioCommand(t *testing.T) {
	cfgPath := writeSimConfig(t, "regime_bootstrap")

	out, err := run(t, "scenario", "--sim-config", cfgPath, "--iteration", "3", "--years", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario #3 (regime_bootstrap, seed 7)")
	assert.Contains(t, out, "Real CAGR")

	// 같은 입력 → 같은 출력
	again, err := run(t, "scenario", "--sim-config", cfgPath, "--iteration", "3", "--years", "12")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestCatalogCommand(t *testing.T) {
	cfgPath := writeSimConfig(t, "bootstrap")

	out, err := run(t, "catalog", "--sim-config", cfgPath, "--top", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Block Catalog")
	assert.Contains(t, out, "1928..2023 (96 years)")
	assert.Contains(t, out, "Top blocks")
	assert.Contains(t, out, "Bottom blocks")
}

func TestRegimesCommand(t *testing.T) {
	cfgPath := writeSimConfig(t, "regime_parametric")

	out, err := run(t, "regimes", "--sim-config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Market Regimes")
	assert.Contains(t, out, "Transition (row = from, col = to)")
	assert.Contains(t, out, "Unconditional:")
}

func TestDataCheckCommand(t *testing.T) {
	cfgPath := writeSimConfig(t, "bootstrap")

	out, err := run(t, "data", "check", "--sim-config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1928..2023")
	assert.Contains(t, out, "History is valid")
}

func TestDataImportRequiresDatabase(t *testing.T) {
	cfgPath := writeSimConfig(t, "bootstrap")

	_, err := run(t, "data", "import", "--sim-config", cfgPath)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestUnknownGenerator(t *testing.T) {
	cfgPath := writeSimConfig(t, "bootstrap")

	_, err := run(t, "scenario", "--sim-config", cfgPath, "--generator", "nope")
	assert.Error(t, err)
	generatorName = ""
}
