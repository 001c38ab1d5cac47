package returns

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/catalyst-alpha/internal/contracts"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(closes ...float64) []contracts.PricePoint {
	out := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = contracts.PricePoint{Date: day(i), AdjClose: c}
	}
	return out
}

func TestBuild_LogReturns(t *testing.T) {
	store, err := Build(map[string][]contracts.PricePoint{
		"AAA": series(100, 110, 99),
		"XBI": series(50, 50, 55),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"AAA", "XBI"}, store.Symbols())
	assert.Equal(t, []time.Time{day(1), day(2)}, store.Dates())

	r, err := store.ReturnAt("AAA", 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(110.0/100.0), r, 1e-12)

	r, err = store.ReturnAt("AAA", 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(99.0/110.0), r, 1e-12)

	r, err = store.ReturnAt("XBI", 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(55.0/50.0), r, 1e-12)
}

func TestBuild_UnorderedInput(t *testing.T) {
	in := series(100, 105, 103, 108)
	in[0], in[3] = in[3], in[0]
	in[1], in[2] = in[2], in[1]

	store, err := Build(map[string][]contracts.PricePoint{"AAA": in})
	require.NoError(t, err)

	got, err := store.Slice("AAA", 0, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{
		math.Log(105.0 / 100.0),
		math.Log(103.0 / 105.0),
		math.Log(108.0 / 103.0),
	}, got, 1e-12)
}

func TestBuild_DropsRowsMissingAnySymbol(t *testing.T) {
	// BBB is missing day 2, so rows 2 (no close) and 3 (no previous close) are dropped
	bbb := []contracts.PricePoint{
		{Date: day(0), AdjClose: 10},
		{Date: day(1), AdjClose: 11},
		{Date: day(3), AdjClose: 12},
		{Date: day(4), AdjClose: 13},
	}

	store, err := Build(map[string][]contracts.PricePoint{
		"AAA": series(1, 2, 3, 4, 5),
		"BBB": bbb,
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{day(1), day(4)}, store.Dates())

	r, err := store.ReturnAt("AAA", 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(5.0/4.0), r, 1e-12)

	r, err = store.ReturnAt("BBB", 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(13.0/12.0), r, 1e-12)

	_, err = store.IndexOf(day(3))
	assert.ErrorIs(t, err, ErrDateNotFound)
}

func TestBuild_InvalidPrices(t *testing.T) {
	store, err := Build(map[string][]contracts.PricePoint{
		"AAA": series(100, 0, 101, 102, math.NaN(), 104, math.Inf(1), 106),
	})
	require.NoError(t, err)

	// only day 3 (101 -> 102) has two valid neighbours
	assert.Equal(t, []time.Time{day(3)}, store.Dates())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Build(map[string][]contracts.PricePoint{"AAA": {}})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Build(map[string][]contracts.PricePoint{"AAA": series(100)})
	assert.ErrorIs(t, err, ErrInsufficientData, "a single close yields no return")

	_, err = Build(map[string][]contracts.PricePoint{
		"AAA": {{Date: day(0), AdjClose: 1}, {Date: day(0), AdjClose: 2}},
	})
	assert.ErrorIs(t, err, ErrInsufficientData)

	// disjoint calendars never produce a complete row
	_, err = Build(map[string][]contracts.PricePoint{
		"AAA": {{Date: day(0), AdjClose: 1}, {Date: day(2), AdjClose: 2}},
		"BBB": {{Date: day(1), AdjClose: 1}, {Date: day(3), AdjClose: 2}},
	})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestIndexOf_RoundTrip(t *testing.T) {
	store, err := Build(map[string][]contracts.PricePoint{
		"AAA": series(10, 11, 12, 13, 14, 15),
	})
	require.NoError(t, err)

	for i := 0; i < store.Len(); i++ {
		d, err := store.DateAt(i)
		require.NoError(t, err)

		pos, err := store.IndexOf(d)
		require.NoError(t, err)
		assert.Equal(t, i, pos)
	}
}

func TestIndexOf_IgnoresClockAndZone(t *testing.T) {
	store, err := Build(map[string][]contracts.PricePoint{"AAA": series(10, 11, 12)})
	require.NoError(t, err)

	pos, err := store.IndexOf(time.Date(2024, 1, 3, 15, 30, 0, 0, time.FixedZone("EST", -5*3600)))
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	_, err = store.IndexOf(day(0))
	assert.ErrorIs(t, err, ErrDateNotFound, "the first close has no return")
}

func TestAccessors_Errors(t *testing.T) {
	store, err := Build(map[string][]contracts.PricePoint{"AAA": series(10, 11, 12, 13)})
	require.NoError(t, err)

	assert.True(t, store.Has("AAA"))
	assert.False(t, store.Has("ZZZ"))

	_, err = store.ReturnAt("ZZZ", 0)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = store.ReturnAt("AAA", 3)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = store.ReturnAt("AAA", -1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = store.DateAt(3)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = store.Slice("ZZZ", 0, 1)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	tests := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 1},
		{"end past last", 0, 3},
		{"reversed", 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Slice("AAA", tt.start, tt.end)
			assert.ErrorIs(t, err, ErrOutOfRange)
		})
	}
}

func TestSlice_ReturnsCopy(t *testing.T) {
	store, err := Build(map[string][]contracts.PricePoint{"AAA": series(10, 11, 12, 13)})
	require.NoError(t, err)

	got, err := store.Slice("AAA", 0, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)

	got[0] = 42
	again, err := store.Slice("AAA", 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(11.0/10.0), again[0], 1e-12)
}
