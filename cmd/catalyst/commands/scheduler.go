package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wonny/catalyst-alpha/internal/scheduler"
	"github.com/wonny/catalyst-alpha/internal/scheduler/jobs"
	"github.com/wonny/catalyst-alpha/internal/studyconfig"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

등록되는 작업:
- catalyst_refresh: SCHEDULE_CATALYST_REFRESH (기본 평일 06:00) 임상 조회 → EVENTS_FILE
- study_run: SCHEDULE_STUDY_RUN (기본 평일 18:30) STUDY_FILE 실행

Example:
  go run ./cmd/catalyst scheduler start
  go run ./cmd/catalyst scheduler run catalyst_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var schedulerMetricsAddr string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerStartCmd.Flags().StringVar(&schedulerMetricsAddr, "metrics-addr", ":9108", "Prometheus 메트릭 주소 (빈 값이면 비활성)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, sched, err := initScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.MetricsEnabled && schedulerMetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(schedulerMetricsAddr, a.metrics.Handler()); err != nil {
				a.log.WithError(err).Warn("Metrics listener stopped")
			}
		}()
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s (%s)\n", name, stats[name].Schedule)
	}
}

func runJob(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Running job: %s\n", args[0])
	result, err := sched.RunJob(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", result.JobName, result.Attempts, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", result.JobName, result.Duration.Seconds()))
	return nil
}

func initScheduler(cmd *cobra.Command) (*app, *scheduler.Scheduler, error) {
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	sc := a.cfg.Scheduler
	cfg, _, err := studyconfig.Load(sc.StudyFile)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	refresher, err := a.refresher()
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	toAdd := []scheduler.Job{
		jobs.NewCatalystRefreshJob(refresher, cfg.CatalystQuery(), cfg.Catalyst.DaysAhead, sc.EventsFile, sc.ScoresFile, sc.CatalystRefresh, a.log),
		jobs.NewStudyRunJob(a.studyService(), sc.StudyFile, sc.StudyRun, a.log),
	}
	for _, job := range toAdd {
		if err := sched.AddJob(job); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	return a, sched, nil
}
