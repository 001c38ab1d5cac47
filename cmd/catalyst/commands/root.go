package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catalyst",
	Short: "Catalyst Alpha - 임상시험 이벤트 스터디",
	Long: `Catalyst Alpha Unified CLI

임상시험 결과 발표 전후의 누적 초과수익(CAR)을 측정합니다.
ClinicalTrials.gov → 스폰서 매핑 → 가격 수집 → 시장모형 이벤트 스터디.

Usage:
  go run ./cmd/catalyst [command]

Examples:
  go run ./cmd/catalyst study run --file config/study.yaml
  go run ./cmd/catalyst trials fetch --condition oncology --out trial_events.csv
  go run ./cmd/catalyst prices fetch XBI VRTX --from 2024-01-01
  go run ./cmd/catalyst api
  go run ./cmd/catalyst scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). Ctrl+C cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
