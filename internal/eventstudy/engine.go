package eventstudy

import (
	"errors"
	"fmt"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/returns"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// Engine computes cumulative abnormal returns around catalyst events.
// It holds no per-run state; Run may be called concurrently on one engine.
// ⭐ SSOT: CAR 계산은 여기서만
type Engine struct {
	store    *returns.Store
	cfg      Config
	skipHook func(contracts.EventDescriptor, SkipReason)
	logger   *logger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithSkipHook registers a callback invoked once per skipped event
func WithSkipHook(hook func(contracts.EventDescriptor, SkipReason)) Option {
	return func(e *Engine) {
		e.skipHook = hook
	}
}

// WithLogger sets the logger used for skip diagnostics
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log.WithComponent("eventstudy")
		}
	}
}

// NewEngine binds a return store to a market-model configuration
func NewEngine(store *returns.Store, cfg Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: return store is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !store.Has(cfg.BenchmarkSymbol) {
		return nil, fmt.Errorf("%w: benchmark %s not in return store", ErrInvalidConfig, cfg.BenchmarkSymbol)
	}

	e := &Engine{
		store:  store,
		cfg:    cfg,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's market-model parameters
func (e *Engine) Config() Config {
	return e.cfg
}

// Classify runs one event through the study.
// Skips are outcomes, not errors; an error means the store itself is inconsistent.
func (e *Engine) Classify(ev contracts.EventDescriptor) (Outcome, error) {
	if !e.store.Has(ev.Ticker) {
		return skipped(ev, SkipUnknownTicker), nil
	}

	eventPos, err := e.store.IndexOf(ev.EventDate)
	if err != nil {
		if errors.Is(err, returns.ErrDateNotFound) {
			return skipped(ev, SkipDateNotFound), nil
		}
		return Outcome{}, err
	}

	model, err := e.EstimateRiskModel(ev.Ticker, eventPos)
	if err != nil {
		return Outcome{}, err
	}
	if model == nil {
		return skipped(ev, SkipInsufficientHistory), nil
	}

	winStart := eventPos + e.cfg.LeadDays
	winEnd := eventPos + e.cfg.LagDays
	if winStart < 0 || winEnd >= e.store.Len() {
		return skipped(ev, SkipTradeWindowOutOfRange), nil
	}

	realized, err := e.store.Slice(ev.Ticker, winStart, winEnd)
	if err != nil {
		return Outcome{}, fmt.Errorf("trade window for %s: %w", ev.Ticker, err)
	}
	market, err := e.store.Slice(e.cfg.BenchmarkSymbol, winStart, winEnd)
	if err != nil {
		return Outcome{}, fmt.Errorf("trade window for %s: %w", e.cfg.BenchmarkSymbol, err)
	}

	var car, total float64
	for i := range realized {
		car += realized[i] - model.Expected(market[i])
		total += realized[i]
	}

	return processed(ev, contracts.ResultRecord{
		Ticker:         ev.Ticker,
		EventDate:      ev.EventDate,
		QualityScore:   ev.QualityScore,
		CatalystType:   ev.CatalystType,
		CAR:            car,
		RealizedReturn: total,
	}), nil
}

// Run returns one record per processable event, in input order
func (e *Engine) Run(events []contracts.EventDescriptor) ([]contracts.ResultRecord, error) {
	report, err := e.RunDetailed(events)
	if err != nil {
		return nil, err
	}
	return report.Records, nil
}

// RunDetailed is Run plus every skipped event and a count per skip reason
func (e *Engine) RunDetailed(events []contracts.EventDescriptor) (*Report, error) {
	report := &Report{
		Records:    make([]contracts.ResultRecord, 0, len(events)),
		Skipped:    make([]Skip, 0),
		SkipCounts: make(map[SkipReason]int),
	}

	for i, ev := range events {
		outcome, err := e.Classify(ev)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s %s): %w", i, ev.Ticker, ev.EventDate.Format(contracts.DateLayout), err)
		}

		if outcome.Processed() {
			report.Records = append(report.Records, *outcome.Record)
			continue
		}

		report.Skipped = append(report.Skipped, Skip{Event: ev, Reason: outcome.Reason})
		report.SkipCounts[outcome.Reason]++
		e.onSkip(ev, outcome.Reason)
	}

	e.logger.WithFields(map[string]interface{}{
		"events":    len(events),
		"processed": len(report.Records),
		"skipped":   len(report.Skipped),
	}).Debug("Event study run complete")

	return report, nil
}

func (e *Engine) onSkip(ev contracts.EventDescriptor, reason SkipReason) {
	e.logger.WithFields(map[string]interface{}{
		"ticker":     ev.Ticker,
		"event_date": ev.EventDate.Format(contracts.DateLayout),
		"reason":     string(reason),
	}).Debug("Event skipped")

	if e.skipHook != nil {
		e.skipHook(ev, reason)
	}
}
