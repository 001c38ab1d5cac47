package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/study"
)

// pricesCmd represents the prices command
var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "가격 데이터 수집",
	Long: `Yahoo Finance 수정종가를 수집합니다.
DATABASE_URL이 설정되어 있으면 market.daily_closes에 저장합니다.

Example:
  go run ./cmd/catalyst prices fetch XBI VRTX BIIB --from 2024-01-01 --to 2025-01-01`,
}

var pricesFetchCmd = &cobra.Command{
	Use:   "fetch [symbols...]",
	Short: "종목별 수정종가 수집",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPricesFetch,
}

var (
	pricesFrom    string
	pricesTo      string
	pricesWorkers int
)

func init() {
	rootCmd.AddCommand(pricesCmd)
	pricesCmd.AddCommand(pricesFetchCmd)

	pricesFetchCmd.Flags().StringVar(&pricesFrom, "from", "", "시작일 YYYY-MM-DD (기본: 1년 전)")
	pricesFetchCmd.Flags().StringVar(&pricesTo, "to", "", "종료일 YYYY-MM-DD, 미포함 (기본: 오늘)")
	pricesFetchCmd.Flags().IntVar(&pricesWorkers, "workers", 4, "동시 요청 수")
}

func runPricesFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	to := contracts.CivilDate(time.Now().UTC())
	if pricesTo != "" {
		t, err := time.Parse(contracts.DateLayout, pricesTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		to = t
	}
	from := to.AddDate(-1, 0, 0)
	if pricesFrom != "" {
		t, err := time.Parse(contracts.DateLayout, pricesFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		from = t
	}
	if !from.Before(to) {
		return fmt.Errorf("--from must be before --to")
	}

	symbols := make([]string, len(args))
	for i, s := range args {
		symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Daily Closes", [][2]string{
		{"Period", fmt.Sprintf("%s ~ %s", from.Format(contracts.DateLayout), to.Format(contracts.DateLayout))},
		{"Symbols", strings.Join(symbols, ", ")},
		{"Storage", storageLabel(a)},
	})

	// Through the stored source a fetch also upserts market.daily_closes
	results := study.LoadPrices(ctx, a.prices, symbols, from, to, pricesWorkers, a.log)

	widths := []int{8, 6, 10, 10, 10}
	PrintTableHeader([]string{"Symbol", "Days", "First", "Last", "Close"}, widths)
	failed := 0
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
			PrintTableRow([]string{r.Symbol, "-", "-", "-", "error"}, widths)
		case len(r.Points) == 0:
			PrintTableRow([]string{r.Symbol, "0", "-", "-", "-"}, widths)
		default:
			first, last := r.Points[0], r.Points[len(r.Points)-1]
			PrintTableRow([]string{
				r.Symbol,
				fmt.Sprint(len(r.Points)),
				first.Date.Format(contracts.DateLayout),
				last.Date.Format(contracts.DateLayout),
				fmt.Sprintf("%.2f", last.AdjClose),
			}, widths)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(symbols))
	}
	PrintSuccess(fmt.Sprintf("Fetched %d symbols", len(symbols)))
	return nil
}

func storageLabel(a *app) string {
	if a.closes != nil {
		return "market.daily_closes"
	}
	return "none (DATABASE_URL not set)"
}
