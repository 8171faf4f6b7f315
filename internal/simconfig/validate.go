package simconfig

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/generator"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate 모든 필수 제약 검사
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Generator ===
	if !generator.Valid(cfg.Kind()) {
		return ValidationError{"generator", fmt.Sprintf("unknown kind %q (want one of %v)", cfg.Generator, generator.Kinds())}
	}

	// === History ===
	switch cfg.History.Source {
	case SourceCSV, SourceHTML:
		if cfg.History.Path == "" {
			return ValidationError{"history.path", "required for " + cfg.History.Source}
		}
	case SourcePostgres:
		if cfg.History.Table == "" {
			return ValidationError{"history.table", "required for postgres"}
		}
	default:
		return ValidationError{"history.source", fmt.Sprintf("must be one of csv, html, postgres (got %q)", cfg.History.Source)}
	}

	// === Bootstrap ===
	b := cfg.Bootstrap
	if len(b.BlockLengths) == 0 {
		return ValidationError{"bootstrap.block_lengths", "at least one length required"}
	}
	seen := make(map[int]bool, len(b.BlockLengths))
	for _, l := range b.BlockLengths {
		if l < 1 {
			return ValidationError{"bootstrap.block_lengths", fmt.Sprintf("length %d must be >= 1", l)}
		}
		if seen[l] {
			return ValidationError{"bootstrap.block_lengths", fmt.Sprintf("duplicate length %d", l)}
		}
		seen[l] = true
	}
	if b.MaxRedraws < 1 {
		return ValidationError{"bootstrap.max_redraws", "must be >= 1"}
	}
	if err := validateRange(b.DisasterPercentile, 0, 100, "bootstrap.disaster_percentile"); err != nil {
		return err
	}
	if err := validateRange(b.JackpotPercentile, 0, 100, "bootstrap.jackpot_percentile"); err != nil {
		return err
	}
	if b.DisasterPercentile >= b.JackpotPercentile {
		return ValidationError{"bootstrap", "disaster_percentile must be < jackpot_percentile"}
	}

	// === Regimes ===
	r := cfg.Regimes
	if r.Count < 1 {
		return ValidationError{"regimes.count", "must be >= 1"}
	}
	if err := validateRange(r.Awareness, 0, 1, "regimes.awareness"); err != nil {
		return err
	}
	if r.MaxIterations < 1 {
		return ValidationError{"regimes.max_iterations", "must be >= 1"}
	}
	if r.Tolerance <= 0 || math.IsNaN(r.Tolerance) {
		return ValidationError{"regimes.tolerance", "must be > 0"}
	}

	// === Parametric ===
	if err := cfg.Parametric.Validate(); err != nil {
		if errors.Is(err, dist.ErrNotPositiveDefinite) {
			return ValidationError{"parametric.correlations", err.Error()}
		}
		return ValidationError{"parametric", err.Error()}
	}

	// === Simulation ===
	s := cfg.Simulation
	if s.Iterations < 1 {
		return ValidationError{"simulation.iterations", "must be >= 1"}
	}
	if s.Years < 1 {
		return ValidationError{"simulation.years", "must be >= 1"}
	}
	if s.Workers < 0 {
		return ValidationError{"simulation.workers", "must be >= 0"}
	}
	if err := validateRange(s.StocksAllocation, 0, 1, "simulation.stocks_allocation"); err != nil {
		return err
	}

	return nil
}

func validateRange(v, min, max float64, field string) error {
	if math.IsNaN(v) || v < min || v > max {
		return ValidationError{field, fmt.Sprintf("must be in [%v, %v], got %v", min, max, v)}
	}
	return nil
}
