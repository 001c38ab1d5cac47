package catalyst

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/external/ctgov"
	"github.com/wonny/catalyst-alpha/internal/metrics"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// TrialSource fetches registry trials
type TrialSource interface {
	FetchTrials(ctx context.Context, q ctgov.Query) ([]ctgov.Trial, error)
}

// RefreshResult summarizes one catalyst refresh
type RefreshResult struct {
	Fetched   int                         `json:"fetched"`
	Matched   int                         `json:"matched"`
	Upcoming  int                         `json:"upcoming"`
	Unmatched []string                    `json:"unmatched_sponsors"`
	Events    []contracts.EventDescriptor `json:"events"`
}

// Refresher turns registry trials into upcoming catalyst events
// ⭐ SSOT: 임상 → 이벤트 변환 파이프라인은 여기서만
type Refresher struct {
	source   TrialSource
	sponsors *SponsorMap
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewRefresher creates a refresher. m may be nil.
func NewRefresher(source TrialSource, sponsors *SponsorMap, m *metrics.Metrics, log *logger.Logger) *Refresher {
	return &Refresher{
		source:   source,
		sponsors: sponsors,
		metrics:  m,
		logger:   log.WithComponent("catalyst"),
		now:      time.Now,
	}
}

// Refresh fetches, maps, filters and converts trials.
// scores may be nil; unscored trials get DefaultQualityScore.
func (r *Refresher) Refresh(ctx context.Context, q ctgov.Query, daysAhead int, scores map[string]string) (*RefreshResult, error) {
	trials, err := r.source.FetchTrials(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch trials: %w", err)
	}

	matched, unmatched := MapTrials(trials, r.sponsors)
	upcoming := FilterUpcoming(matched, r.now(), daysAhead)

	events, err := ToEvents(upcoming, scores)
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.TrialsFetched.Add(float64(len(trials)))
		r.metrics.EventsMapped.Add(float64(len(events)))
	}

	preview := unmatched
	if len(preview) > 10 {
		preview = preview[:10]
	}
	r.logger.WithFields(map[string]interface{}{
		"fetched":    len(trials),
		"matched":    len(matched),
		"upcoming":   len(upcoming),
		"days_ahead": daysAhead,
		"unmatched":  preview,
	}).Info("Catalyst refresh completed")

	return &RefreshResult{
		Fetched:   len(trials),
		Matched:   len(matched),
		Upcoming:  len(upcoming),
		Unmatched: unmatched,
		Events:    events,
	}, nil
}
