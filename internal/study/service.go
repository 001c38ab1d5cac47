package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/eventstudy"
	"github.com/wonny/catalyst-alpha/internal/metrics"
	"github.com/wonny/catalyst-alpha/internal/returns"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// Service errors
var (
	ErrInvalidRequest         = errors.New("invalid study request")
	ErrNoBenchmarkPrices      = errors.New("no benchmark prices")
	ErrPersistenceUnavailable = errors.New("result persistence unavailable")
)

const defaultWorkers = 4

// ResultStore persists finished runs
type ResultStore interface {
	SaveRun(ctx context.Context, run contracts.StudyRun, records []contracts.ResultRecord) error
}

// Request describes one study run
type Request struct {
	Tickers []string                    `json:"tickers,omitempty"`
	From    time.Time                   `json:"from,omitempty"`
	To      time.Time                   `json:"to,omitempty"`
	Events  []contracts.EventDescriptor `json:"events"`
	Config  eventstudy.Config           `json:"config"`
	GroupBy GroupBy                     `json:"group_by,omitempty"`
	Persist bool                        `json:"persist,omitempty"`
}

// Result is the outcome of one study run
type Result struct {
	RunID      string                        `json:"run_id"`
	Run        contracts.StudyRun            `json:"run"`
	Records    []contracts.ResultRecord      `json:"records"`
	Skipped    []eventstudy.Skip             `json:"skipped"`
	SkipCounts map[eventstudy.SkipReason]int `json:"skip_counts"`
	Missing    []string                      `json:"missing_symbols,omitempty"`
	Summary    []GroupSummary                `json:"summary"`
}

// Service loads prices, runs the event study and optionally stores the results
// ⭐ SSOT: 스터디 실행 오케스트레이션은 여기서만
type Service struct {
	prices  PriceSource
	results ResultStore
	metrics *metrics.Metrics
	logger  *logger.Logger
	workers int
	now     func() time.Time
}

// NewService creates a study service. results and m may be nil.
func NewService(prices PriceSource, results ResultStore, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		prices:  prices,
		results: results,
		metrics: m,
		logger:  log.WithComponent("study"),
		workers: defaultWorkers,
		now:     time.Now,
	}
}

// WithWorkers sets the number of concurrent price fetches
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Run executes one study
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := s.now()

	result, err := s.run(ctx, req)
	if s.metrics != nil {
		processed := 0
		if result != nil {
			processed = len(result.Records)
		}
		s.metrics.ObserveRun(processed, time.Since(start), err)
	}
	return result, err
}

func (s *Service) run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if req.Persist && s.results == nil {
		return nil, ErrPersistenceUnavailable
	}
	groupBy, err := ParseGroupBy(string(req.GroupBy))
	if err != nil {
		return nil, err
	}

	from, to := req.From, req.To
	if from.IsZero() || to.IsZero() {
		dFrom, dTo := DefaultRange(req.Events, req.Config.EstimationWindow, req.Config.Gap(), req.Config.LagDays)
		if from.IsZero() {
			from = dFrom
		}
		if to.IsZero() {
			to = dTo
		}
	}
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, fmt.Errorf("%w: date range [%s, %s) is empty", ErrInvalidRequest,
			from.Format(contracts.DateLayout), to.Format(contracts.DateLayout))
	}

	raw, missing, err := s.loadRaw(ctx, req, from, to)
	if err != nil {
		return nil, err
	}

	store, err := returns.Build(raw)
	if err != nil {
		return nil, fmt.Errorf("build return store: %w", err)
	}

	opts := []eventstudy.Option{eventstudy.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, eventstudy.WithSkipHook(s.metrics.SkipHook()))
	}
	engine, err := eventstudy.NewEngine(store, req.Config, opts...)
	if err != nil {
		return nil, err
	}

	report, err := engine.RunDetailed(req.Events)
	if err != nil {
		return nil, fmt.Errorf("run event study: %w", err)
	}

	summary, err := Summarize(report.Records, groupBy)
	if err != nil {
		return nil, err
	}

	run := contracts.StudyRun{
		RunID:            uuid.NewString(),
		Benchmark:        req.Config.BenchmarkSymbol,
		EstimationWindow: req.Config.EstimationWindow,
		LeadDays:         req.Config.LeadDays,
		LagDays:          req.Config.LagDays,
		EventCount:       len(req.Events),
		SkippedCount:     len(report.Skipped),
		CreatedAt:        s.now().UTC(),
	}

	if req.Persist {
		if err := s.results.SaveRun(ctx, run, report.Records); err != nil {
			return nil, fmt.Errorf("save run %s: %w", run.RunID, err)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":    run.RunID,
		"events":    len(req.Events),
		"processed": len(report.Records),
		"skipped":   len(report.Skipped),
		"trading":   store.Len(),
		"persisted": req.Persist,
	}).Info("Study run completed")

	return &Result{
		RunID:      run.RunID,
		Run:        run,
		Records:    report.Records,
		Skipped:    report.Skipped,
		SkipCounts: report.SkipCounts,
		Missing:    missing,
		Summary:    summary,
	}, nil
}

// loadRaw fetches the benchmark and the universe. Symbols without prices are
// left out of the store; their events are skipped as unknown tickers.
func (s *Service) loadRaw(ctx context.Context, req Request, from, to time.Time) (map[string][]contracts.PricePoint, []string, error) {
	benchmark := req.Config.BenchmarkSymbol
	symbols := append([]string{benchmark}, Universe(req.Tickers, req.Events, benchmark)...)

	s.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"from":    from.Format(contracts.DateLayout),
		"to":      to.Format(contracts.DateLayout),
	}).Info("Loading prices")

	fetched := LoadPrices(ctx, s.prices, symbols, from, to, s.workers, s.logger)

	raw := make(map[string][]contracts.PricePoint, len(fetched))
	var missing []string
	for _, f := range fetched {
		if f.Error != nil {
			return nil, nil, f.Error
		}
		if len(f.Points) == 0 {
			if f.Symbol == benchmark {
				return nil, nil, fmt.Errorf("%w: %s", ErrNoBenchmarkPrices, benchmark)
			}
			missing = append(missing, f.Symbol)
			continue
		}
		raw[f.Symbol] = f.Points
	}

	if len(missing) > 0 {
		s.logger.WithField("symbols", missing).Warn("No prices for symbols, their events will be skipped")
	}

	return raw, missing, nil
}
