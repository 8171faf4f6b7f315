package history

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObservations() []Observation {
	return []Observation{
		{Year: 2000, Stocks: 0.10, Bonds: 0.04, Inflation: 0.02},
		{Year: 2001, Stocks: -0.05, Bonds: 0.03, Inflation: 0.03},
		{Year: 2002, Stocks: 0.08, Bonds: 0.02, Inflation: 0.01},
		{Year: 2003, Stocks: -0.12, Bonds: 0.05, Inflation: 0.04},
		{Year: 2004, Stocks: 0.15, Bonds: 0.01, Inflation: 0.02},
	}
}

func TestNewSeries(t *testing.T) {
	s, err := NewSeries(sampleObservations())
	require.NoError(t, err)

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 2000, s.MinYear())
	assert.Equal(t, 2004, s.MaxYear())
	assert.Equal(t, -0.12, s.At(3).Stocks)

	w := s.Window(1, 3)
	require.Len(t, w, 3)
	assert.Equal(t, 2001, w[0].Year)
	assert.Equal(t, 2003, w[2].Year)
}

func TestNewSeries_Errors(t *testing.T) {
	obs := sampleObservations()

	tests := []struct {
		name string
		obs  []Observation
		want error
	}{
		{"empty", nil, ErrEmptySeries},
		{"unsorted", []Observation{obs[1], obs[0]}, ErrUnsorted},
		{"duplicate", []Observation{obs[0], obs[0]}, ErrUnsorted},
		{"gap", []Observation{obs[0], obs[2]}, ErrGap},
		{"total loss", []Observation{{Year: 2000, Stocks: -1.0}}, ErrMalformedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries(tt.obs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSeries_Immutable(t *testing.T) {
	obs := sampleObservations()
	s, err := NewSeries(obs)
	require.NoError(t, err)

	obs[0].Stocks = 9
	assert.Equal(t, 0.10, s.At(0).Stocks)

	cp := s.Observations()
	cp[0].Stocks = 9
	assert.Equal(t, 0.10, s.At(0).Stocks)
}

func TestSeries_Digest(t *testing.T) {
	a, _ := NewSeries(sampleObservations())
	b, _ := NewSeries(sampleObservations())
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Len(t, a.Digest(), 64)

	obs := sampleObservations()
	obs[4].Inflation = 0.021
	c, _ := NewSeries(obs)
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"0.105", 0.105},
		{"10.5%", 0.105},
		{" -3% ", -0.03},
		{"(3.2%)", -0.032},
		{"1,250%", 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRate(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := ParseRate("n/a")
	assert.ErrorIs(t, err, ErrMalformedRow)
	_, err = ParseRate("")
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestReadCSV(t *testing.T) {
	input := `year,stocks,bonds,inflation
# comment lines are ignored
2000,10%,4%,2%
2001,-5%,3%,3%
2002,0.08,0.02,0.01
`
	s, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.InDelta(t, -0.05, s.At(1).Stocks, 1e-12)
	assert.InDelta(t, 0.01, s.At(2).Inflation, 1e-12)
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("year,stocks,bonds,inflation\n"))
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestReadCSV_Gap(t *testing.T) {
	input := "year,stocks,bonds,inflation\n2000,1%,1%,1%\n2002,1%,1%,1%\n"
	_, err := ReadCSV(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrGap)
}

func TestReadHTML(t *testing.T) {
	sampleHTML := `
		<html><body>
		<table class="returns">
			<tr><th>Year</th><th>S&amp;P 500</th><th>T-Bond</th><th>CPI</th></tr>
			<tr><td>2000</td><td>-9.03%</td><td>16.66%</td><td>3.39%</td></tr>
			<tr><td>2001</td><td>-11.85%</td><td>5.57%</td><td>1.55%</td></tr>
		</table>
		</body></html>`

	s, err := ReadHTML(strings.NewReader(sampleHTML), "table.returns")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.InDelta(t, -0.0903, s.At(0).Stocks, 1e-12)
	assert.InDelta(t, 0.0557, s.At(1).Bonds, 1e-12)
}

func TestReadHTML_NoTable(t *testing.T) {
	_, err := ReadHTML(strings.NewReader("<html><body><p>nothing</p></body></html>"), "table")
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestPostgresRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	series, err := NewSeries(sampleObservations())
	require.NoError(t, err)

	n, err := Import(ctx, pool, "annual_returns_test", series)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	loaded, err := NewPostgresLoader(pool, "annual_returns_test").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, series.Digest(), loaded.Digest())
}
