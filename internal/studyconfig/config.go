package studyconfig

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/wonny/catalyst-alpha/internal/catalyst"
	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/eventstudy"
	"github.com/wonny/catalyst-alpha/internal/external/ctgov"
	"github.com/wonny/catalyst-alpha/internal/study"
)

// Config는 이벤트 스터디 한 건의 전체 정의
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Model    Model    `yaml:"model" json:"model"`
	Data     Data     `yaml:"data" json:"data"`
	Events   Events   `yaml:"events" json:"events"`
	Output   Output   `yaml:"output" json:"output"`
	Catalyst Catalyst `yaml:"catalyst" json:"catalyst"`
}

// Meta 메타 정보
type Meta struct {
	StudyID     string `yaml:"study_id" json:"study_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Model 마켓 모델 파라미터
type Model struct {
	Benchmark        string `yaml:"benchmark" json:"benchmark"`
	EstimationWindow int    `yaml:"estimation_window" json:"estimation_window"`
	LeadDays         int    `yaml:"lead_days" json:"lead_days"` // 보통 음수
	LagDays          int    `yaml:"lag_days" json:"lag_days"`
}

// Data 가격 데이터 범위
type Data struct {
	From    string   `yaml:"from" json:"from"` // YYYY-MM-DD, 비우면 이벤트 기준 자동
	To      string   `yaml:"to" json:"to"`     // YYYY-MM-DD, exclusive
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// Events 이벤트 입력 (CSV 파일 및/또는 인라인)
type Events struct {
	File   string        `yaml:"file" json:"file"`
	Inline []InlineEvent `yaml:"inline" json:"inline"`
}

type InlineEvent struct {
	Ticker       string `yaml:"ticker" json:"ticker"`
	EventDate    string `yaml:"event_date" json:"event_date"`
	QualityScore string `yaml:"quality_score" json:"quality_score"`
	CatalystType string `yaml:"catalyst_type" json:"catalyst_type"`
	TrialID      string `yaml:"trial_id" json:"trial_id"`
}

// Output 결과 처리
type Output struct {
	GroupBy string `yaml:"group_by" json:"group_by"` // quality_score | catalyst_type
	Persist bool   `yaml:"persist" json:"persist"`
}

// Catalyst 임상시험 카탈리스트 수집 조건
type Catalyst struct {
	Condition  string   `yaml:"condition" json:"condition"`
	Phase      string   `yaml:"phase" json:"phase"`
	Statuses   []string `yaml:"statuses" json:"statuses"`
	MaxResults int      `yaml:"max_results" json:"max_results"`
	DaysAhead  int      `yaml:"days_ahead" json:"days_ahead"`
}

// EngineConfig returns the market-model parameters
func (c *Config) EngineConfig() eventstudy.Config {
	return eventstudy.Config{
		BenchmarkSymbol:  c.Model.Benchmark,
		EstimationWindow: c.Model.EstimationWindow,
		LeadDays:         c.Model.LeadDays,
		LagDays:          c.Model.LagDays,
	}
}

// Range parses the data range; empty bounds stay zero
func (c *Config) Range() (from, to time.Time, err error) {
	if c.Data.From != "" {
		if from, err = time.Parse(contracts.DateLayout, c.Data.From); err != nil {
			return time.Time{}, time.Time{}, ValidationError{"data.from", "must be YYYY-MM-DD"}
		}
	}
	if c.Data.To != "" {
		if to, err = time.Parse(contracts.DateLayout, c.Data.To); err != nil {
			return time.Time{}, time.Time{}, ValidationError{"data.to", "must be YYYY-MM-DD"}
		}
	}
	return from, to, nil
}

// InlineEvents converts the inline event list into validated descriptors
func (c *Config) InlineEvents() ([]contracts.EventDescriptor, error) {
	out := make([]contracts.EventDescriptor, 0, len(c.Events.Inline))
	for i, in := range c.Events.Inline {
		date, err := time.Parse(contracts.DateLayout, in.EventDate)
		if err != nil {
			return nil, ValidationError{fmt.Sprintf("events.inline[%d].event_date", i), "must be YYYY-MM-DD"}
		}

		ev, err := contracts.NewEventDescriptor(in.Ticker, date, in.QualityScore, in.CatalystType)
		if err != nil {
			return nil, ValidationError{fmt.Sprintf("events.inline[%d]", i), err.Error()}
		}
		out = append(out, ev.WithTrialID(in.TrialID))
	}
	return out, nil
}

// LoadEvents returns the events of the events file followed by the inline events.
// A relative file path is resolved against baseDir.
func (c *Config) LoadEvents(baseDir string) ([]contracts.EventDescriptor, error) {
	var events []contracts.EventDescriptor
	if c.Events.File != "" {
		path := c.Events.File
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		fileEvents, err := catalyst.ReadEventsFile(path)
		if err != nil {
			return nil, fmt.Errorf("events.file: %w", err)
		}
		events = append(events, fileEvents...)
	}

	inline, err := c.InlineEvents()
	if err != nil {
		return nil, err
	}
	return append(events, inline...), nil
}

// CatalystQuery returns the registry query of the catalyst section
func (c *Config) CatalystQuery() ctgov.Query {
	return ctgov.Query{
		Condition:  c.Catalyst.Condition,
		Phase:      c.Catalyst.Phase,
		Statuses:   c.Catalyst.Statuses,
		MaxResults: c.Catalyst.MaxResults,
	}
}

// Request builds a study request for the given events
func (c *Config) Request(events []contracts.EventDescriptor) (study.Request, error) {
	from, to, err := c.Range()
	if err != nil {
		return study.Request{}, err
	}
	groupBy, err := study.ParseGroupBy(c.Output.GroupBy)
	if err != nil {
		return study.Request{}, ValidationError{"output.group_by", err.Error()}
	}

	return study.Request{
		Tickers: c.Data.Tickers,
		From:    from,
		To:      to,
		Events:  events,
		Config:  c.EngineConfig(),
		GroupBy: groupBy,
		Persist: c.Output.Persist,
	}, nil
}
