package simconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
seed: 42
generator: regime_parametric
history:
  source: csv
  path: data/returns.csv
bootstrap:
  block_lengths: [2, 6]
  avoid_back_to_back_extremes: false
  max_redraws: 16
regimes:
  count: 3
  awareness: 0.25
parametric:
  stocks:    { mean: 0.09, volatility: 0.17, skew: -0.4, kurtosis: 4.5, autocorrelation: 0.0 }
  bonds:     { mean: 0.04, volatility: 0.06, skew: 0.1, kurtosis: 3.0, autocorrelation: 0.2 }
  inflation: { mean: 0.03, volatility: 0.02, skew: 0.5, kurtosis: 3.5, autocorrelation: 0.7 }
  correlations: { stocks_bonds: 0.2, stocks_inflation: -0.2, bonds_inflation: -0.4 }
simulation:
  iterations: 500
  years: 40
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Seed != 42 {
		t.Errorf("expected seed=42, got %d", cfg.Seed)
	}
	if cfg.Kind() != "regime_parametric" {
		t.Errorf("expected regime_parametric, got %s", cfg.Kind())
	}
	if len(cfg.Bootstrap.BlockLengths) != 2 || cfg.Bootstrap.BlockLengths[1] != 6 {
		t.Errorf("expected block_lengths=[2 6], got %v", cfg.Bootstrap.BlockLengths)
	}
	if cfg.Bootstrap.AvoidBackToBackExtremes {
		t.Error("expected avoid_back_to_back_extremes=false")
	}
	if cfg.Parametric.Inflation.Autocorrelation != 0.7 {
		t.Errorf("expected inflation autocorrelation=0.7, got %v", cfg.Parametric.Inflation.Autocorrelation)
	}
	if cfg.Parametric.Correlations.BondsInflation != -0.4 {
		t.Errorf("expected bonds_inflation=-0.4, got %v", cfg.Parametric.Correlations.BondsInflation)
	}

	// 생략된 필드는 기본값 유지
	if cfg.Bootstrap.DisasterPercentile != 10 || cfg.Bootstrap.JackpotPercentile != 90 {
		t.Errorf("expected default percentiles, got %v/%v", cfg.Bootstrap.DisasterPercentile, cfg.Bootstrap.JackpotPercentile)
	}
	if cfg.Regimes.MaxIterations != 100 {
		t.Errorf("expected default max_iterations=100, got %d", cfg.Regimes.MaxIterations)
	}
	if cfg.Simulation.StocksAllocation != 0.6 {
		t.Errorf("expected default stocks_allocation=0.6, got %v", cfg.Simulation.StocksAllocation)
	}

	opts := cfg.GeneratorOptions()
	if opts.Awareness != 0.25 || opts.MaxRedraws != 16 || opts.Seed != 42 {
		t.Errorf("unexpected generator options: %+v", opts)
	}
	if ro := cfg.RegimeOptions(); ro.K != 3 || ro.Seed != 42 {
		t.Errorf("unexpected regime options: %+v", ro)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("seed: 1\nregimes:\n  cuont: 3\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "cuont") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown generator", func(c *Config) { c.Generator = "garch" }, "generator"},
		{"unknown source", func(c *Config) { c.History.Source = "excel" }, "history.source"},
		{"csv without path", func(c *Config) { c.History.Path = "" }, "history.path"},
		{"postgres without table", func(c *Config) { c.History.Source = SourcePostgres; c.History.Table = "" }, "history.table"},
		{"no lengths", func(c *Config) { c.Bootstrap.BlockLengths = nil }, "bootstrap.block_lengths"},
		{"zero length", func(c *Config) { c.Bootstrap.BlockLengths = []int{0, 3} }, "bootstrap.block_lengths"},
		{"duplicate length", func(c *Config) { c.Bootstrap.BlockLengths = []int{3, 3} }, "bootstrap.block_lengths"},
		{"no redraws", func(c *Config) { c.Bootstrap.MaxRedraws = 0 }, "bootstrap.max_redraws"},
		{"inverted percentiles", func(c *Config) { c.Bootstrap.DisasterPercentile = 95 }, "bootstrap"},
		{"percentile over 100", func(c *Config) { c.Bootstrap.JackpotPercentile = 101 }, "bootstrap.jackpot_percentile"},
		{"zero regimes", func(c *Config) { c.Regimes.Count = 0 }, "regimes.count"},
		{"awareness above 1", func(c *Config) { c.Regimes.Awareness = 1.01 }, "regimes.awareness"},
		{"awareness below 0", func(c *Config) { c.Regimes.Awareness = -0.01 }, "regimes.awareness"},
		{"zero tolerance", func(c *Config) { c.Regimes.Tolerance = 0 }, "regimes.tolerance"},
		{"mean out of range", func(c *Config) { c.Parametric.Stocks.Mean = 1.5 }, "parametric"},
		{"negative volatility", func(c *Config) { c.Parametric.Bonds.Volatility = -0.01 }, "parametric"},
		{"skew out of range", func(c *Config) { c.Parametric.Inflation.Skew = 11 }, "parametric"},
		{"kurtosis out of range", func(c *Config) { c.Parametric.Stocks.Kurtosis = -1 }, "parametric"},
		{"autocorrelation out of range", func(c *Config) { c.Parametric.Stocks.Autocorrelation = 1.1 }, "parametric"},
		{"correlation out of range", func(c *Config) { c.Parametric.Correlations.StocksBonds = -1.1 }, "parametric"},
		{"not positive definite", func(c *Config) {
			c.Parametric.Correlations.StocksBonds = 0.9
			c.Parametric.Correlations.StocksInflation = 0.9
			c.Parametric.Correlations.BondsInflation = -0.9
		}, "parametric.correlations"},
		{"zero iterations", func(c *Config) { c.Simulation.Iterations = 0 }, "simulation.iterations"},
		{"zero years", func(c *Config) { c.Simulation.Years = 0 }, "simulation.years"},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -1 }, "simulation.workers"},
		{"allocation above 1", func(c *Config) { c.Simulation.StocksAllocation = 1.2 }, "simulation.stocks_allocation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %q, got %q (%s)", tt.field, ve.Field, ve.Message)
			}
		})
	}
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(a))
	}

	b, _ := Hash(Default())
	if a != b {
		t.Error("hash not deterministic")
	}

	cfg := Default()
	cfg.Simulation.Years = 31
	c, _ := Hash(cfg)
	if a == c {
		t.Error("hash should change with config")
	}
}

func TestModelHash(t *testing.T) {
	base, err := ModelHash(Default())
	if err != nil {
		t.Fatalf("ModelHash failed: %v", err)
	}

	// 시뮬레이션 설정은 모델 키에 영향 없음
	cfg := Default()
	cfg.Simulation.Years = 50
	cfg.Generator = "bootstrap"
	if h, _ := ModelHash(cfg); h != base {
		t.Error("model hash should ignore simulation settings")
	}

	cfg = Default()
	cfg.Regimes.Count = 5
	if h, _ := ModelHash(cfg); h == base {
		t.Error("model hash should change with regime count")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, data, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulation.Iterations != 500 {
		t.Errorf("expected iterations=500, got %d", cfg.Simulation.Iterations)
	}
	if len(data) == 0 {
		t.Error("expected raw yaml bytes")
	}

	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadShippedConfig(t *testing.T) {
	path := "../../configs/simulation.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}
	if _, _, err := Load(path); err != nil {
		t.Fatalf("shipped config invalid: %v", err)
	}
}
