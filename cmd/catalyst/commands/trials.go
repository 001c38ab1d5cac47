package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/catalyst-alpha/internal/catalyst"
	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/external/ctgov"
	"github.com/wonny/catalyst-alpha/internal/studyconfig"
)

// trialsCmd represents the trials command
var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "임상시험 카탈리스트 수집",
	Long: `ClinicalTrials.gov에서 임상시험을 조회하고 상장사 이벤트로 변환합니다.

Subcommands:
  fetch  - 예정된 결과 발표를 이벤트 CSV로 저장

Example:
  go run ./cmd/catalyst trials fetch
  go run ./cmd/catalyst trials fetch --condition "Alzheimer Disease" --days-ahead 90 --out trial_events.csv`,
}

var trialsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "예정 임상 결과 → 이벤트 CSV",
	RunE:  runTrialsFetch,
}

var (
	trialsStudyFile string
	trialsCondition string
	trialsPhase     string
	trialsMax       int
	trialsDaysAhead int
	trialsOut       string
	trialsScores    string
)

func init() {
	rootCmd.AddCommand(trialsCmd)
	trialsCmd.AddCommand(trialsFetchCmd)

	trialsFetchCmd.Flags().StringVar(&trialsStudyFile, "file", "config/study.yaml", "catalyst 섹션을 읽을 스터디 파일")
	trialsFetchCmd.Flags().StringVar(&trialsCondition, "condition", "", "질환 (파일 값 대체)")
	trialsFetchCmd.Flags().StringVar(&trialsPhase, "phase", "", "임상 단계, 예: PHASE3 (파일 값 대체)")
	trialsFetchCmd.Flags().IntVar(&trialsMax, "max", 0, "최대 조회 건수 (파일 값 대체)")
	trialsFetchCmd.Flags().IntVar(&trialsDaysAhead, "days-ahead", 0, "오늘부터 N일 이내 완료 예정 (파일 값 대체)")
	trialsFetchCmd.Flags().StringVar(&trialsOut, "out", "", "이벤트 CSV 경로 (기본: EVENTS_FILE)")
	trialsFetchCmd.Flags().StringVar(&trialsScores, "scores", "", "nct_id,quality_score CSV (기본: SCORES_FILE)")
}

func runTrialsFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, _, err := studyconfig.Load(trialsStudyFile)
	if err != nil {
		return err
	}
	q := cfg.CatalystQuery()
	daysAhead := cfg.Catalyst.DaysAhead
	if trialsCondition != "" {
		q.Condition = trialsCondition
	}
	if trialsPhase != "" {
		q.Phase = trialsPhase
	}
	if trialsMax > 0 {
		q.MaxResults = trialsMax
	}
	if trialsDaysAhead > 0 {
		daysAhead = trialsDaysAhead
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := trialsOut
	if out == "" {
		out = a.cfg.Scheduler.EventsFile
	}
	scoresFile := trialsScores
	if scoresFile == "" {
		scoresFile = a.cfg.Scheduler.ScoresFile
	}

	var scores map[string]string
	if scoresFile != "" {
		if scores, err = catalyst.ReadScoresFile(scoresFile); err != nil {
			return fmt.Errorf("read scores: %w", err)
		}
	}

	refresher, err := a.refresher()
	if err != nil {
		return err
	}

	PrintHeader("Trial Catalysts", [][2]string{
		{"Condition", orNA(q.Condition)},
		{"Phase", orNA(q.Phase)},
		{"Max", fmt.Sprint(q.MaxResults)},
		{"Horizon", fmt.Sprintf("%d days", daysAhead)},
	})

	result, err := refresher.Refresh(ctx, q, daysAhead, scores)
	if err != nil {
		return err
	}
	if err := catalyst.WriteEventsFile(out, result.Events); err != nil {
		return fmt.Errorf("write events: %w", err)
	}

	fmt.Printf("Fetched %d trials, %d matched a ticker, %d upcoming\n", result.Fetched, result.Matched, result.Upcoming)
	if len(result.Events) > 0 {
		widths := []int{8, 10, 12, 16, 16}
		PrintTableHeader([]string{"Ticker", "Date", "Trial", "Catalyst", "Quality"}, widths)
		for _, ev := range result.Events {
			PrintTableRow([]string{ev.Ticker, ev.EventDate.Format(contracts.DateLayout), ev.TrialID, ev.CatalystType, ev.QualityScore}, widths)
		}
	}
	if n := len(result.Unmatched); n > 0 {
		PrintWarning(fmt.Sprintf("%d sponsors have no ticker mapping (see %s)", n, a.cfg.Scheduler.SponsorMapFile))
	}

	PrintSuccess(fmt.Sprintf("Wrote %d events to %s", len(result.Events), out))
	return nil
}

func orNA(s string) string {
	if s == "" {
		return ctgov.NotAvailable
	}
	return s
}
