package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/eventstudy"
	"github.com/wonny/catalyst-alpha/internal/study"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block of key-value lines
func PrintHeader(title string, lines [][2]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, kv := range lines {
		fmt.Printf("  %-10s: %s\n", kv[0], kv[1])
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// PrintRecords prints one row per processed event
func PrintRecords(records []contracts.ResultRecord) {
	widths := []int{8, 10, 16, 16, 9, 9}
	PrintTableHeader([]string{"Ticker", "Event", "Quality", "Catalyst", "CAR", "Realized"}, widths)
	for _, r := range records {
		PrintTableRow([]string{
			r.Ticker,
			r.EventDate.Format(contracts.DateLayout),
			r.QualityScore,
			r.CatalystType,
			pct(r.CAR),
			pct(r.RealizedReturn),
		}, widths)
	}
}

// PrintSummary prints grouped means
func PrintSummary(by study.GroupBy, summary []study.GroupSummary) {
	widths := []int{20, 6, 10, 10}
	PrintTableHeader([]string{string(by), "N", "Mean CAR", "Mean Real"}, widths)
	for _, g := range summary {
		PrintTableRow([]string{g.Key, fmt.Sprint(g.Count), pct(g.MeanCAR), pct(g.MeanRealized)}, widths)
	}
}

// PrintSkipCounts prints the number of skipped events per reason
func PrintSkipCounts(counts map[eventstudy.SkipReason]int) {
	var items []string
	for _, reason := range eventstudy.SkipReasons() {
		if n := counts[reason]; n > 0 {
			items = append(items, fmt.Sprintf("%s: %d", reason, n))
		}
	}
	if len(items) > 0 {
		fmt.Println("Skipped events:")
		PrintList(items)
	}
}
