package jobs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wonny/catalyst-alpha/internal/study"
	"github.com/wonny/catalyst-alpha/internal/studyconfig"
	"github.com/wonny/catalyst-alpha/pkg/logger"
)

// Runner executes a study
type Runner interface {
	Run(ctx context.Context, req study.Request) (*study.Result, error)
}

// StudyRunJob runs the study file on a schedule.
// The file is re-read on every run so edits apply without a restart.
type StudyRunJob struct {
	runner    Runner
	studyFile string
	schedule  string
	logger    *logger.Logger
}

// NewStudyRunJob creates a new study run job
func NewStudyRunJob(runner Runner, studyFile, schedule string, log *logger.Logger) *StudyRunJob {
	return &StudyRunJob{
		runner:    runner,
		studyFile: studyFile,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *StudyRunJob) Name() string {
	return "study_run"
}

// Schedule returns the cron schedule
func (j *StudyRunJob) Schedule() string {
	return j.schedule
}

// Run loads the study file and executes it
func (j *StudyRunJob) Run(ctx context.Context) error {
	cfg, _, err := studyconfig.Load(j.studyFile)
	if err != nil {
		return err
	}
	for _, w := range studyconfig.Warn(cfg) {
		j.logger.WithField("code", w.Code).Warn(w.Message)
	}

	events, err := cfg.LoadEvents(filepath.Dir(j.studyFile))
	if err != nil {
		return err
	}
	req, err := cfg.Request(events)
	if err != nil {
		return err
	}

	result, err := j.runner.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("study %s: %w", cfg.Meta.StudyID, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"study_id":  cfg.Meta.StudyID,
		"run_id":    result.RunID,
		"processed": len(result.Records),
		"skipped":   len(result.Skipped),
	}).Info("Scheduled study run completed")

	return nil
}
