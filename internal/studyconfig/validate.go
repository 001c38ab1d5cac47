package studyconfig

import (
	"fmt"
	"strings"

	"github.com/wonny/catalyst-alpha/internal/eventstudy"
	"github.com/wonny/catalyst-alpha/internal/study"
)

// maxCatalystResults caps one registry fetch
const maxCatalystResults = 10000

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// applyDefaults fills an absent model section and catalyst limits
func applyDefaults(cfg *Config) {
	if cfg.Model == (Model{}) {
		def := eventstudy.DefaultConfig()
		cfg.Model = Model{
			Benchmark:        def.BenchmarkSymbol,
			EstimationWindow: def.EstimationWindow,
			LeadDays:         def.LeadDays,
			LagDays:          def.LagDays,
		}
	}
	cfg.Model.Benchmark = strings.ToUpper(strings.TrimSpace(cfg.Model.Benchmark))

	if cfg.Catalyst.MaxResults == 0 {
		cfg.Catalyst.MaxResults = 100
	}
	if cfg.Catalyst.DaysAhead == 0 {
		cfg.Catalyst.DaysAhead = 180
	}
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StudyID == "" {
		return ValidationError{"meta.study_id", "required"}
	}

	// === Model ===
	if err := cfg.EngineConfig().Validate(); err != nil {
		return ValidationError{"model", err.Error()}
	}

	// === Data ===
	from, to, err := cfg.Range()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return ValidationError{"data", "from must be before to"}
	}
	for i, t := range cfg.Data.Tickers {
		if strings.TrimSpace(t) == "" {
			return ValidationError{fmt.Sprintf("data.tickers[%d]", i), "must not be empty"}
		}
	}

	// === Events ===
	if cfg.Events.File == "" && len(cfg.Events.Inline) == 0 {
		return ValidationError{"events", "file or inline events required"}
	}
	if _, err := cfg.InlineEvents(); err != nil {
		return err
	}

	// === Output ===
	if _, err := study.ParseGroupBy(cfg.Output.GroupBy); err != nil {
		return ValidationError{"output.group_by", "must be quality_score or catalyst_type"}
	}

	// === Catalyst ===
	if cfg.Catalyst.MaxResults < 0 || cfg.Catalyst.MaxResults > maxCatalystResults {
		return ValidationError{"catalyst.max_results", fmt.Sprintf("must be in [0, %d]", maxCatalystResults)}
	}
	if cfg.Catalyst.DaysAhead < 0 {
		return ValidationError{"catalyst.days_ahead", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 추정 구간이 짧으면 베타 추정 불안정
	if cfg.Model.EstimationWindow < 30 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_ESTIMATION",
			Message: "estimation_window < 30: beta estimate is noisy",
		})
	}

	if cfg.Model.LeadDays > 0 {
		warnings = append(warnings, Warning{
			Code:    "LEAD_AFTER_EVENT",
			Message: "lead_days > 0: trade window starts after the event date",
		})
	}

	if cfg.Model.LagDays-cfg.Model.LeadDays+1 > 20 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_TRADE_WINDOW",
			Message: "trade window > 20 days: CAR mixes in unrelated news",
		})
	}

	return warnings
}
