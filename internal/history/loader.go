package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Loader 연간 시계열 공급자
type Loader interface {
	Load(ctx context.Context) (*Series, error)
}

// parseRows converts tabular rows (year, stocks, bonds, inflation) into a Series.
// The first row is a header and is always skipped. Blank rows are ignored.
func parseRows(rows [][]string) (*Series, error) {
	if len(rows) <= 1 {
		return nil, ErrEmptySeries
	}

	obs := make([]Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		o, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		obs = append(obs, o)
	}

	return NewSeries(obs)
}

func parseRow(row []string) (Observation, error) {
	if len(row) < 4 {
		return Observation{}, fmt.Errorf("%w: want 4 columns, got %d", ErrMalformedRow, len(row))
	}

	year, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return Observation{}, fmt.Errorf("%w: year %q", ErrMalformedRow, row[0])
	}

	var vals [3]float64
	for k := 0; k < 3; k++ {
		v, err := ParseRate(row[k+1])
		if err != nil {
			return Observation{}, err
		}
		vals[k] = v
	}

	return Observation{Year: year, Stocks: vals[0], Bonds: vals[1], Inflation: vals[2]}, nil
}

// ParseRate parses "0.105", "10.5%" or "(3.2%)" style values into a fraction.
func ParseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrMalformedRow)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: value %q", ErrMalformedRow, s)
	}
	if pct {
		v /= 100
	}
	if negative {
		v = -v
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
