package eventstudy

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/returns"
)

const (
	benchmark = "B"
	security  = "X"
	tolerance = 1e-9
)

// storeFromReturns rebuilds prices from log returns so the store yields them back.
// Return i lands on store position i.
func storeFromReturns(t *testing.T, series map[string][]float64) *returns.Store {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := make(map[string][]contracts.PricePoint, len(series))
	for symbol, rets := range series {
		price := 100.0
		points := []contracts.PricePoint{{Date: start, AdjClose: price}}
		for i, r := range rets {
			price *= math.Exp(r)
			points = append(points, contracts.PricePoint{Date: start.AddDate(0, 0, i+1), AdjClose: price})
		}
		raw[symbol] = points
	}

	store, err := returns.Build(raw)
	require.NoError(t, err)
	return store
}

func benchmarkReturns(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.01*math.Sin(float64(i)*0.7) + 0.002*math.Cos(float64(i)*1.3)
	}
	return out
}

// linear returns alpha + beta*b at every position
func linear(b []float64, alpha, beta float64) []float64 {
	out := make([]float64, len(b))
	for i := range b {
		out[i] = alpha + beta*b[i]
	}
	return out
}

func event(t *testing.T, store *returns.Store, ticker string, pos int) contracts.EventDescriptor {
	t.Helper()
	date, err := store.DateAt(pos)
	require.NoError(t, err)

	ev, err := contracts.NewEventDescriptor(ticker, date, "High", "PHASE3")
	require.NoError(t, err)
	return ev
}

func defaultTestConfig() Config {
	cfg := DefaultConfig()
	cfg.BenchmarkSymbol = benchmark
	return cfg
}

func newTestEngine(t *testing.T, store *returns.Store, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(store, defaultTestConfig(), opts...)
	require.NoError(t, err)
	return engine
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	store := storeFromReturns(t, map[string][]float64{
		benchmark: benchmarkReturns(10),
		security:  benchmarkReturns(10),
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty benchmark", func(c *Config) { c.BenchmarkSymbol = "" }},
		{"benchmark not in store", func(c *Config) { c.BenchmarkSymbol = "SPY" }},
		{"estimation window too short", func(c *Config) { c.EstimationWindow = 1 }},
		{"lead after lag", func(c *Config) { c.LeadDays, c.LagDays = 2, 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig()
			tt.mutate(&cfg)

			_, err := NewEngine(store, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := NewEngine(nil, defaultTestConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "XBI", cfg.BenchmarkSymbol)
	assert.Equal(t, 60, cfg.EstimationWindow)
	assert.Equal(t, -5, cfg.LeadDays)
	assert.Equal(t, 1, cfg.LagDays)
	assert.NoError(t, cfg.Validate())
}

func TestScenarioA_RecordEmitted(t *testing.T) {
	b := benchmarkReturns(100)
	x := linear(b, 0.002, 1.5)
	for i := 65; i <= 71; i++ {
		x[i] += 0.01
	}

	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: x})
	require.Equal(t, 100, store.Len())
	engine := newTestEngine(t, store)

	model, err := engine.EstimateRiskModel(security, 70)
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Equal(t, 5, model.EstimationStart)
	assert.Equal(t, 65, model.EstimationEnd)
	assert.InDelta(t, 0.002, model.Alpha, tolerance)
	assert.InDelta(t, 1.5, model.Beta, tolerance)

	ev := event(t, store, security, 70)
	records, err := engine.Run([]contracts.EventDescriptor{ev})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, security, rec.Ticker)
	assert.Equal(t, ev.EventDate, rec.EventDate)
	assert.Equal(t, "High", rec.QualityScore)
	assert.Equal(t, "PHASE3", rec.CatalystType)
	assert.InDelta(t, 0.07, rec.CAR, tolerance)

	var realized float64
	for i := 65; i <= 71; i++ {
		realized += x[i]
	}
	assert.InDelta(t, realized, rec.RealizedReturn, tolerance)
}

func TestScenarioB_InsufficientHistory(t *testing.T) {
	b := benchmarkReturns(100)
	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: linear(b, 0, 1)})
	engine := newTestEngine(t, store)

	model, err := engine.EstimateRiskModel(security, 50)
	require.NoError(t, err)
	assert.Nil(t, model)

	// the first position with enough history is 65
	model, err = engine.EstimateRiskModel(security, 65)
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Equal(t, 0, model.EstimationStart)

	model, err = engine.EstimateRiskModel(security, 64)
	require.NoError(t, err)
	assert.Nil(t, model)

	outcome, err := engine.Classify(event(t, store, security, 50))
	require.NoError(t, err)
	assert.False(t, outcome.Processed())
	assert.Equal(t, SkipInsufficientHistory, outcome.Reason)

	records, err := engine.Run([]contracts.EventDescriptor{event(t, store, security, 50)})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScenarioC_DateNotFound(t *testing.T) {
	b := benchmarkReturns(100)
	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: b})
	engine := newTestEngine(t, store)

	ev, err := contracts.NewEventDescriptor(security, time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC), "Low", "PHASE2")
	require.NoError(t, err)

	outcome, err := engine.Classify(ev)
	require.NoError(t, err)
	assert.Equal(t, SkipDateNotFound, outcome.Reason)

	records, err := engine.Run([]contracts.EventDescriptor{ev})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScenarioD_FlatBenchmarkInTradeWindow(t *testing.T) {
	b := benchmarkReturns(100)
	for i := 65; i <= 71; i++ {
		b[i] = 0
	}
	x := linear(b, 0.001, 1.2)
	shocks := []float64{0.03, -0.01, 0.02, 0.05, -0.04, 0.01, 0.015}
	for i, s := range shocks {
		x[65+i] = s
	}

	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: x})
	engine := newTestEngine(t, store)

	model, err := engine.EstimateRiskModel(security, 70)
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.InDelta(t, 0.001, model.Alpha, tolerance)
	assert.InDelta(t, 1.2, model.Beta, tolerance)

	records, err := engine.Run([]contracts.EventDescriptor{event(t, store, security, 70)})
	require.NoError(t, err)
	require.Len(t, records, 1)

	var realized float64
	for _, s := range shocks {
		realized += s
	}
	assert.InDelta(t, realized, records[0].RealizedReturn, tolerance)
	assert.InDelta(t, realized-0.001*7, records[0].CAR, tolerance)
}

func TestNoLookAhead(t *testing.T) {
	b := benchmarkReturns(100)
	x := linear(b, 0.002, 0.8)

	// same history up to position 64, different afterwards
	b2 := append([]float64(nil), b...)
	x2 := append([]float64(nil), x...)
	for i := 65; i < 100; i++ {
		b2[i] = -0.05
		x2[i] = 0.09
	}

	engine1 := newTestEngine(t, storeFromReturns(t, map[string][]float64{benchmark: b, security: x}))
	engine2 := newTestEngine(t, storeFromReturns(t, map[string][]float64{benchmark: b2, security: x2}))

	for _, pos := range []int{70, 80, 98} {
		m1, err := engine1.EstimateRiskModel(security, pos)
		require.NoError(t, err)
		require.NotNil(t, m1)
		assert.Less(t, m1.EstimationEnd-1, pos-5, "last estimation day precedes the trade window")

		if pos == 70 {
			m2, err := engine2.EstimateRiskModel(security, pos)
			require.NoError(t, err)
			assert.Equal(t, m1.Alpha, m2.Alpha)
			assert.Equal(t, m1.Beta, m2.Beta)
		}
	}
}

func TestCARDegeneracy_ZeroModel(t *testing.T) {
	b := benchmarkReturns(100)
	x := make([]float64, 100)
	for i := 65; i <= 71; i++ {
		x[i] = 0.004 * float64(i-67)
	}

	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: x})
	engine := newTestEngine(t, store)

	model, err := engine.EstimateRiskModel(security, 70)
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Zero(t, model.Alpha)
	assert.Zero(t, model.Beta)

	records, err := engine.Run([]contracts.EventDescriptor{event(t, store, security, 70)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, records[0].RealizedReturn, records[0].CAR)
}

func TestConstantBenchmarkEstimation(t *testing.T) {
	b := make([]float64, 100)
	x := benchmarkReturns(100)

	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: x})
	engine := newTestEngine(t, store)

	model, err := engine.EstimateRiskModel(security, 70)
	require.NoError(t, err)
	require.NotNil(t, model)

	var mean float64
	for i := 5; i < 65; i++ {
		mean += x[i]
	}
	mean /= 60

	assert.Zero(t, model.Beta)
	assert.InDelta(t, mean, model.Alpha, tolerance)
	assert.False(t, math.IsNaN(model.Alpha))
}

func TestTradeWindowOutOfRange(t *testing.T) {
	b := benchmarkReturns(100)
	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: b})
	engine := newTestEngine(t, store)

	outcome, err := engine.Classify(event(t, store, security, 99))
	require.NoError(t, err)
	assert.Equal(t, SkipTradeWindowOutOfRange, outcome.Reason)

	outcome, err = engine.Classify(event(t, store, security, 98))
	require.NoError(t, err)
	assert.True(t, outcome.Processed())
}

func TestRunPreservesOrder(t *testing.T) {
	b := benchmarkReturns(100)
	store := storeFromReturns(t, map[string][]float64{
		benchmark: b,
		security:  linear(b, 0.001, 1.1),
		"Y":       linear(b, -0.001, 0.7),
	})

	var hooked []SkipReason
	engine := newTestEngine(t, store, WithSkipHook(func(_ contracts.EventDescriptor, reason SkipReason) {
		hooked = append(hooked, reason)
	}))

	unknown, err := contracts.NewEventDescriptor("ZZZ", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Low", "PHASE1")
	require.NoError(t, err)

	events := []contracts.EventDescriptor{
		event(t, store, "Y", 90),
		unknown,
		event(t, store, security, 66),
		event(t, store, security, 10),
		event(t, store, "Y", 70),
		event(t, store, security, 99),
		event(t, store, security, 80),
	}

	report, err := engine.RunDetailed(events)
	require.NoError(t, err)

	require.Len(t, report.Records, 4)
	wantOrder := []contracts.EventDescriptor{events[0], events[2], events[4], events[6]}
	for i, rec := range report.Records {
		assert.Equal(t, wantOrder[i].Ticker, rec.Ticker)
		assert.Equal(t, wantOrder[i].EventDate, rec.EventDate)
	}

	assert.Equal(t, 7, report.Total())
	assert.Equal(t, []SkipReason{SkipUnknownTicker, SkipInsufficientHistory, SkipTradeWindowOutOfRange}, hooked)
	assert.Equal(t, map[SkipReason]int{
		SkipUnknownTicker:         1,
		SkipInsufficientHistory:   1,
		SkipTradeWindowOutOfRange: 1,
	}, report.SkipCounts)
	require.Len(t, report.Skipped, 3)
	assert.Equal(t, "ZZZ", report.Skipped[0].Event.Ticker)

	records, err := engine.Run(events)
	require.NoError(t, err)
	assert.Equal(t, report.Records, records)
}

func TestRunReturnsFreshSlices(t *testing.T) {
	b := benchmarkReturns(100)
	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: linear(b, 0, 1)})
	engine := newTestEngine(t, store)
	events := []contracts.EventDescriptor{event(t, store, security, 75)}

	first, err := engine.Run(events)
	require.NoError(t, err)
	first[0].CAR = 42

	second, err := engine.Run(events)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.NotEqual(t, 42.0, second[0].CAR)

	empty, err := engine.Run(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRunConcurrent(t *testing.T) {
	b := benchmarkReturns(100)
	store := storeFromReturns(t, map[string][]float64{benchmark: b, security: linear(b, 0.003, 0.9)})
	engine := newTestEngine(t, store)

	events := make([]contracts.EventDescriptor, 0, 30)
	for pos := 65; pos < 95; pos++ {
		events = append(events, event(t, store, security, pos))
	}

	want, err := engine.Run(events)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]contracts.ResultRecord, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = engine.Run(events)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
