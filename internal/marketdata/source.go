package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// coverageSlack tolerates weekends and holidays at either edge of a stored series
// and between consecutive stored closes
const coverageSlack = 7 * 24 * time.Hour

// Closes reads daily closes for one symbol over [from, to)
type Closes interface {
	DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error)
}

// CloseStore is a Closes that can also be written to
type CloseStore interface {
	Closes
	UpsertCloses(ctx context.Context, symbol, source string, points []contracts.PricePoint) error
}

// StoredSource serves closes from the database and falls back to a remote
// source when the stored series does not cover the requested range.
// Remote results are written back.
type StoredSource struct {
	store      CloseStore
	remote     Closes
	sourceName string
	logger     *logger.Logger
	now        func() time.Time
}

// NewStoredSource creates a read-through price source
func NewStoredSource(store CloseStore, remote Closes, sourceName string, log *logger.Logger) *StoredSource {
	return &StoredSource{
		store:      store,
		remote:     remote,
		sourceName: sourceName,
		logger:     log.WithComponent("marketdata"),
		now:        time.Now,
	}
}

// DailyCloses implements study.PriceSource
func (s *StoredSource) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	stored, err := s.store.DailyCloses(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if s.covers(stored, from, to) {
		return stored, nil
	}

	fetched, err := s.remote.DailyCloses(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("remote closes for %s: %w", symbol, err)
	}
	if len(fetched) == 0 {
		return stored, nil
	}

	if err := s.store.UpsertCloses(ctx, symbol, s.sourceName, fetched); err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to store fetched closes")
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"stored":  len(stored),
		"fetched": len(fetched),
	}).Debug("Refreshed closes from remote")

	return fetched, nil
}

// covers reports whether points span [from, to) up to coverageSlack with no
// interior hole wider than coverageSlack. The upper edge is capped at today.
func (s *StoredSource) covers(points []contracts.PricePoint, from, to time.Time) bool {
	if len(points) == 0 {
		return false
	}

	today := contracts.CivilDate(s.now())
	end := contracts.CivilDate(to)
	if end.After(today) {
		end = today
	}

	first, last := points[0].Date, points[len(points)-1].Date
	if first.Sub(contracts.CivilDate(from)) > coverageSlack || end.Sub(last) > coverageSlack {
		return false
	}

	for i := 1; i < len(points); i++ {
		if points[i].Date.Sub(points[i-1].Date) > coverageSlack {
			return false
		}
	}
	return true
}
