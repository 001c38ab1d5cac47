package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/catalyst-alpha/internal/catalyst"
	"github.com/wonny/catalyst-alpha/internal/external/ctgov"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// Refresher builds upcoming catalyst events from the trial registry
type Refresher interface {
	Refresh(ctx context.Context, q ctgov.Query, daysAhead int, scores map[string]string) (*catalyst.RefreshResult, error)
}

// CatalystRefreshJob fetches upcoming trial readouts and rewrites the events file
// ⭐ SSOT: 카탈리스트 갱신 스케줄은 이 Job에서만
type CatalystRefreshJob struct {
	refresher  Refresher
	query      ctgov.Query
	daysAhead  int
	eventsFile string
	scoresFile string
	schedule   string
	logger     *logger.Logger
}

// NewCatalystRefreshJob creates a new catalyst refresh job. scoresFile may be empty.
func NewCatalystRefreshJob(refresher Refresher, q ctgov.Query, daysAhead int, eventsFile, scoresFile, schedule string, log *logger.Logger) *CatalystRefreshJob {
	return &CatalystRefreshJob{
		refresher:  refresher,
		query:      q,
		daysAhead:  daysAhead,
		eventsFile: eventsFile,
		scoresFile: scoresFile,
		schedule:   schedule,
		logger:     log,
	}
}

// Name returns the job name
func (j *CatalystRefreshJob) Name() string {
	return "catalyst_refresh"
}

// Schedule returns the cron schedule
func (j *CatalystRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the refresh
func (j *CatalystRefreshJob) Run(ctx context.Context) error {
	var scores map[string]string
	if j.scoresFile != "" {
		var err error
		if scores, err = catalyst.ReadScoresFile(j.scoresFile); err != nil {
			return fmt.Errorf("read scores: %w", err)
		}
	}

	result, err := j.refresher.Refresh(ctx, j.query, j.daysAhead, scores)
	if err != nil {
		return err
	}

	if err := catalyst.WriteEventsFile(j.eventsFile, result.Events); err != nil {
		return fmt.Errorf("write events: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"events": len(result.Events),
		"file":   j.eventsFile,
	}).Info("Catalyst events written")

	return nil
}
