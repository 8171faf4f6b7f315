package simconfig

import (
	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/bootstrap"
	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/generator"
	"github.com/wonny/ninthball/internal/regime"
)

// Config 시나리오 생성/시뮬레이션 전체 설정
type Config struct {
	Seed       int64       `yaml:"seed" json:"seed"` // 0 = 시작 시 시계로 결정 (로그에 기록)
	Generator  string      `yaml:"generator" json:"generator"`
	History    History     `yaml:"history" json:"history"`
	Bootstrap  Bootstrap   `yaml:"bootstrap" json:"bootstrap"`
	Regimes    Regimes     `yaml:"regimes" json:"regimes"`
	Parametric dist.Params `yaml:"parametric" json:"parametric"`
	Simulation Simulation  `yaml:"simulation" json:"simulation"`
}

// History 과거 수익률 소스
type History struct {
	Source   string `yaml:"source" json:"source"` // csv | html | postgres
	Path     string `yaml:"path" json:"path"`     // csv/html 파일 경로 또는 URL
	Selector string `yaml:"selector" json:"selector"`
	Table    string `yaml:"table" json:"table"`
}

// 지원 history.source 값
const (
	SourceCSV      = "csv"
	SourceHTML     = "html"
	SourcePostgres = "postgres"
)

// Bootstrap 블록 재표본 설정
type Bootstrap struct {
	BlockLengths            []int   `yaml:"block_lengths" json:"block_lengths"`
	AvoidBackToBackExtremes bool    `yaml:"avoid_back_to_back_extremes" json:"avoid_back_to_back_extremes"`
	MaxRedraws              int     `yaml:"max_redraws" json:"max_redraws"`
	DisasterPercentile      float64 `yaml:"disaster_percentile" json:"disaster_percentile"`
	JackpotPercentile       float64 `yaml:"jackpot_percentile" json:"jackpot_percentile"`
}

// Regimes 국면 발견 설정
type Regimes struct {
	Count         int     `yaml:"count" json:"count"`
	Awareness     float64 `yaml:"awareness" json:"awareness"` // λ ∈ [0,1]
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
}

// Simulation 시나리오 소비 루프 설정
type Simulation struct {
	Iterations       int     `yaml:"iterations" json:"iterations"`
	Years            int     `yaml:"years" json:"years"`
	Workers          int     `yaml:"workers" json:"workers"` // 0 = runtime.NumCPU()
	StocksAllocation float64 `yaml:"stocks_allocation" json:"stocks_allocation"`
}

// Default 기본 설정 (YAML에서 생략된 필드는 이 값 유지)
func Default() *Config {
	return &Config{
		Seed:      0,
		Generator: string(generator.KindRegimeBootstrap),
		History: History{
			Source:   SourceCSV,
			Path:     "data/returns.csv",
			Selector: "table",
			Table:    "annual_returns",
		},
		Bootstrap: Bootstrap{
			BlockLengths:            []int{3, 4, 5},
			AvoidBackToBackExtremes: true,
			MaxRedraws:              bootstrap.DefaultMaxRedraws,
			DisasterPercentile:      blocks.DefaultDisasterPercentile,
			JackpotPercentile:       blocks.DefaultJackpotPercentile,
		},
		Regimes: Regimes{
			Count:         4,
			Awareness:     0.5,
			MaxIterations: regime.DefaultMaxIterations,
			Tolerance:     regime.DefaultTolerance,
		},
		Parametric: dist.Params{
			Stocks:    dist.AssetParams{Mean: 0.10, Volatility: 0.18, Skew: -0.5, Kurtosis: 4.0},
			Bonds:     dist.AssetParams{Mean: 0.05, Volatility: 0.07, Skew: 0.2, Kurtosis: 3.0, Autocorrelation: 0.1},
			Inflation: dist.AssetParams{Mean: 0.03, Volatility: 0.03, Skew: 0.8, Kurtosis: 4.0, Autocorrelation: 0.6},
			Correlations: dist.Correlations{
				StocksBonds:     0.1,
				StocksInflation: -0.1,
				BondsInflation:  -0.3,
			},
		},
		Simulation: Simulation{
			Iterations:       10000,
			Years:            30,
			Workers:          0,
			StocksAllocation: 0.6,
		},
	}
}

// Kind 생성기 종류
func (c *Config) Kind() generator.Kind { return generator.Kind(c.Generator) }

// RegimeOptions 국면 발견 옵션
func (c *Config) RegimeOptions() regime.Options {
	return regime.Options{
		K:             c.Regimes.Count,
		MaxIterations: c.Regimes.MaxIterations,
		Tolerance:     c.Regimes.Tolerance,
		Seed:          c.Seed,
	}
}

// GeneratorOptions 생성기 옵션
func (c *Config) GeneratorOptions() generator.Options {
	return generator.Options{
		Seed:              c.Seed,
		BlockLengths:      append([]int(nil), c.Bootstrap.BlockLengths...),
		AvoidExtremePairs: c.Bootstrap.AvoidBackToBackExtremes,
		MaxRedraws:        c.Bootstrap.MaxRedraws,
		Awareness:         c.Regimes.Awareness,
		Params:            c.Parametric,
	}
}
