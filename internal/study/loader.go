package study

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// PriceSource supplies adjusted daily closes for one symbol over [from, to).
// An unknown symbol is an empty slice, not an error.
type PriceSource interface {
	DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error)
}

// FetchResult is the outcome of loading one symbol
type FetchResult struct {
	Symbol string
	Points []contracts.PricePoint
	Error  error
}

// LoadPrices fetches every symbol with a bounded worker pool.
// Results come back in the order of symbols.
func LoadPrices(ctx context.Context, src PriceSource, symbols []string, from, to time.Time, workers int, log *logger.Logger) []FetchResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	results := make([]FetchResult, len(symbols))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			results[i] = fetchOne(ctx, src, symbol, from, to)
			if results[i].Error != nil {
				log.WithError(results[i].Error).WithField("symbol", symbol).Warn("Failed to fetch prices")
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func fetchOne(ctx context.Context, src PriceSource, symbol string, from, to time.Time) FetchResult {
	if err := ctx.Err(); err != nil {
		return FetchResult{Symbol: symbol, Error: err}
	}

	points, err := src.DailyCloses(ctx, symbol, from, to)
	if err != nil {
		return FetchResult{Symbol: symbol, Error: fmt.Errorf("fetch %s: %w", symbol, err)}
	}
	return FetchResult{Symbol: symbol, Points: points}
}

// Universe returns the upper-cased, de-duplicated union of explicit tickers and
// event tickers, sorted, without the benchmark.
func Universe(tickers []string, events []contracts.EventDescriptor, benchmark string) []string {
	seen := map[string]bool{strings.ToUpper(benchmark): true}
	out := make([]string, 0, len(tickers)+len(events))

	add := func(t string) {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range tickers {
		add(t)
	}
	for _, ev := range events {
		add(ev.Ticker)
	}

	sort.Strings(out)
	return out
}

// DefaultRange covers every event with enough trading days for the estimation
// and trade windows, padded for weekends and holidays.
func DefaultRange(events []contracts.EventDescriptor, estimationWindow, gap, lag int) (from, to time.Time) {
	if len(events) == 0 {
		return time.Time{}, time.Time{}
	}

	first, last := events[0].EventDate, events[0].EventDate
	for _, ev := range events[1:] {
		if ev.EventDate.Before(first) {
			first = ev.EventDate
		}
		if ev.EventDate.After(last) {
			last = ev.EventDate
		}
	}

	back := 2*(estimationWindow+gap) + 14
	ahead := 2*lag + 14
	if ahead < 14 {
		ahead = 14
	}
	return contracts.CivilDate(first).AddDate(0, 0, -back), contracts.CivilDate(last).AddDate(0, 0, ahead)
}
