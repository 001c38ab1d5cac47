package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/catalyst-alpha/internal/catalyst"
	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/study"
	"github.com/wonny/catalyst-alpha/internal/studyconfig"
)

// studyCmd represents the study command
var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "이벤트 스터디 실행/조회",
	Long: `시장모형 이벤트 스터디를 실행하고 저장된 결과를 조회합니다.

Subcommands:
  run      - 스터디 파일로 CAR 계산
  results  - 저장된 실행 결과 조회 (DATABASE_URL 필요)
  list     - 최근 실행 목록 (DATABASE_URL 필요)

Example:
  go run ./cmd/catalyst study run --file config/study.yaml
  go run ./cmd/catalyst study run --file config/study.yaml --events trial_events.csv --persist
  go run ./cmd/catalyst study results 3f0c...`,
}

var (
	studyRunCmd = &cobra.Command{
		Use:   "run",
		Short: "스터디 실행",
		RunE:  runStudy,
	}

	studyResultsCmd = &cobra.Command{
		Use:   "results [run_id]",
		Short: "저장된 결과 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  showStudyResults,
	}

	studyListCmd = &cobra.Command{
		Use:   "list",
		Short: "최근 실행 목록",
		RunE:  listStudyRuns,
	}
)

var (
	studyFile    string
	studyEvents  string
	studyPersist bool
	studyJSON    bool
	studyGroupBy string
	studyLimit   int
)

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studyRunCmd)
	studyCmd.AddCommand(studyResultsCmd)
	studyCmd.AddCommand(studyListCmd)

	studyRunCmd.Flags().StringVar(&studyFile, "file", "config/study.yaml", "스터디 YAML 파일")
	studyRunCmd.Flags().StringVar(&studyEvents, "events", "", "이벤트 CSV (파일의 events 섹션 대체)")
	studyRunCmd.Flags().BoolVar(&studyPersist, "persist", false, "결과를 DB에 저장")
	studyRunCmd.Flags().BoolVar(&studyJSON, "json", false, "JSON 출력")
	studyResultsCmd.Flags().StringVar(&studyGroupBy, "by", "quality_score", "그룹 기준 (quality_score|catalyst_type)")
	studyListCmd.Flags().IntVar(&studyLimit, "limit", 20, "조회 개수")
}

func runStudy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, _, err := studyconfig.Load(studyFile)
	if err != nil {
		return err
	}
	hash, err := studyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	var events []contracts.EventDescriptor
	if studyEvents != "" {
		events, err = catalyst.ReadEventsFile(studyEvents)
	} else {
		events, err = cfg.LoadEvents(filepath.Dir(studyFile))
	}
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	req, err := cfg.Request(events)
	if err != nil {
		return err
	}
	if studyPersist {
		req.Persist = true
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, w := range studyconfig.Warn(cfg) {
		a.log.WithField("code", w.Code).Warn(w.Message)
	}

	start := time.Now()
	result, err := a.studyService().Run(ctx, req)
	if err != nil {
		return err
	}

	if studyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	PrintHeader(fmt.Sprintf("Event Study: %s", cfg.Meta.StudyID), [][2]string{
		{"Run ID", result.RunID},
		{"Config", hash[:12]},
		{"Model", fmt.Sprintf("%s, L=%d, window [%+d, %+d]", req.Config.BenchmarkSymbol,
			req.Config.EstimationWindow, req.Config.LeadDays, req.Config.LagDays)},
		{"Events", fmt.Sprintf("%d processed / %d total", len(result.Records), len(events))},
	})

	if len(result.Records) > 0 {
		PrintRecords(result.Records)
		fmt.Println()
		PrintSummary(req.GroupBy, result.Summary)
		fmt.Println()
	}
	PrintSkipCounts(result.SkipCounts)
	if len(result.Missing) > 0 {
		PrintWarning(fmt.Sprintf("No prices for: %v", result.Missing))
	}

	PrintSuccess(fmt.Sprintf("Study completed in %.2fs", time.Since(start).Seconds()))
	return nil
}

func showStudyResults(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	by, err := study.ParseGroupBy(studyGroupBy)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.results == nil {
		return fmt.Errorf("study results: %w", a.cfg.RequireDatabase())
	}

	run, err := a.results.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	records, err := a.results.ListResults(ctx, run.RunID)
	if err != nil {
		return err
	}
	summary, err := study.Summarize(records, by)
	if err != nil {
		return err
	}

	PrintHeader("Study Run", [][2]string{
		{"Run ID", run.RunID},
		{"Created", run.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Model", fmt.Sprintf("%s, L=%d, window [%+d, %+d]", run.Benchmark, run.EstimationWindow, run.LeadDays, run.LagDays)},
		{"Events", fmt.Sprintf("%d processed / %d total", len(records), run.EventCount)},
	})
	PrintRecords(records)
	fmt.Println()
	PrintSummary(by, summary)
	return nil
}

func listStudyRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.results == nil {
		return fmt.Errorf("study list: %w", a.cfg.RequireDatabase())
	}

	runs, err := a.results.ListRuns(ctx, studyLimit)
	if err != nil {
		return err
	}

	widths := []int{36, 19, 8, 7, 7}
	PrintTableHeader([]string{"Run ID", "Created", "Bench", "Events", "Skipped"}, widths)
	for _, r := range runs {
		PrintTableRow([]string{
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Benchmark,
			fmt.Sprint(r.EventCount),
			fmt.Sprint(r.SkippedCount),
		}, widths)
	}
	return nil
}
