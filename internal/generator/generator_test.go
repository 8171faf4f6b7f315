package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/regime"
	"github.com/wonny/ninthball/internal/scenario"
)

func sampleSeries(t *testing.T) *history.Series {
	t.Helper()
	s, err := history.NewSeries([]history.Observation{
		{Year: 2000, Stocks: 0.10, Bonds: 0.04, Inflation: 0.02},
		{Year: 2001, Stocks: -0.05, Bonds: 0.03, Inflation: 0.03},
		{Year: 2002, Stocks: 0.08, Bonds: 0.02, Inflation: 0.01},
		{Year: 2003, Stocks: -0.12, Bonds: 0.05, Inflation: 0.04},
		{Year: 2004, Stocks: 0.15, Bonds: 0.01, Inflation: 0.02},
	})
	require.NoError(t, err)
	return s
}

func buildInputs(t *testing.T) Inputs {
	t.Helper()
	s := sampleSeries(t)
	c, err := blocks.Extract(s, []int{1, 2})
	require.NoError(t, err)
	th, err := blocks.NewThresholds(c, 10, 90)
	require.NoError(t, err)
	m, err := regime.Discover(c, regime.Options{K: 2, Seed: 1})
	require.NoError(t, err)
	return Inputs{Series: s, Catalog: c, Thresholds: th, Model: m}
}

func testOptions() Options {
	return Options{
		Seed:              42,
		BlockLengths:      []int{1, 2},
		AvoidExtremePairs: true,
		Awareness:         0.5,
		Params: dist.Params{
			Stocks:    dist.Normal(0.08, 0.15),
			Bonds:     dist.Normal(0.04, 0.05),
			Inflation: dist.Normal(0.03, 0.02),
		},
	}
}

func TestHistorical(t *testing.T) {
	h := NewHistorical(sampleSeries(t))

	assert.Equal(t, 3, h.MaxIterations(3))
	assert.Equal(t, 5, h.MaxIterations(1))
	assert.Equal(t, 0, h.MaxIterations(6))
	assert.Equal(t, 0, h.MaxIterations(0))

	s, err := h.Scenario(1, 3)
	require.NoError(t, err)
	assert.Equal(t, scenario.Scenario{
		{Stocks: -0.05, Bonds: 0.03, Inflation: 0.03},
		{Stocks: 0.08, Bonds: 0.02, Inflation: 0.01},
		{Stocks: -0.12, Bonds: 0.05, Inflation: 0.04},
	}, s)

	_, err = h.Scenario(3, 3)
	assert.ErrorIs(t, err, scenario.ErrIterationOutOfRange)
	_, err = h.Scenario(0, 0)
	assert.ErrorIs(t, err, scenario.ErrInvalidHorizon)
}

func TestNew_AllKinds(t *testing.T) {
	in := buildInputs(t)
	opts := testOptions()

	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			g, err := New(k, in, opts)
			require.NoError(t, err)
			assert.Equal(t, string(k), g.Name())

			s, err := g.Scenario(0, 4)
			require.NoError(t, err)
			assert.Len(t, s, 4)

			again, err := g.Scenario(0, 4)
			require.NoError(t, err)
			assert.Equal(t, s, again)

			if k == KindHistorical {
				assert.Equal(t, 2, g.MaxIterations(4))
			} else {
				assert.Equal(t, scenario.Unbounded, g.MaxIterations(4))
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("monte", Inputs{}, Options{})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = New(KindRegimeBootstrap, Inputs{}, testOptions())
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = New(KindHistorical, Inputs{}, testOptions())
	assert.ErrorIs(t, err, ErrMissingInput)

	bad := testOptions()
	bad.Params.Stocks.Mean = 2
	_, err = New(KindParametric, Inputs{}, bad)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("regime_parametric")
	require.NoError(t, err)
	assert.Equal(t, KindRegimeParametric, k)
	assert.True(t, k.NeedsModel())
	assert.False(t, KindBootstrap.NeedsModel())

	_, err = ParseKind("garch")
	assert.ErrorIs(t, err, ErrUnknownKind)

	assert.Len(t, Kinds(), 5)
}
