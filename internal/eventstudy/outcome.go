package eventstudy

import (
	"github.com/wonny/catalyst-alpha/internal/contracts"
)

// SkipReason tells why an event produced no record
type SkipReason string

// Skip reasons
const (
	SkipUnknownTicker         SkipReason = "unknown_ticker"
	SkipDateNotFound          SkipReason = "date_not_found"
	SkipInsufficientHistory   SkipReason = "insufficient_history"
	SkipTradeWindowOutOfRange SkipReason = "trade_window_out_of_range"
)

// SkipReasons lists every reason in classification order
func SkipReasons() []SkipReason {
	return []SkipReason{
		SkipUnknownTicker,
		SkipDateNotFound,
		SkipInsufficientHistory,
		SkipTradeWindowOutOfRange,
	}
}

// Outcome is the classification of one event: a record, or a skip reason
type Outcome struct {
	Event  contracts.EventDescriptor
	Record *contracts.ResultRecord
	Reason SkipReason
}

// Processed reports whether the event produced a record
func (o Outcome) Processed() bool {
	return o.Record != nil
}

func processed(ev contracts.EventDescriptor, rec contracts.ResultRecord) Outcome {
	return Outcome{Event: ev, Record: &rec}
}

func skipped(ev contracts.EventDescriptor, reason SkipReason) Outcome {
	return Outcome{Event: ev, Reason: reason}
}

// Skip is one event left out of a run
type Skip struct {
	Event  contracts.EventDescriptor `json:"event"`
	Reason SkipReason                `json:"reason"`
}

// Report is the detailed result of a run
type Report struct {
	Records    []contracts.ResultRecord `json:"records"`
	Skipped    []Skip                   `json:"skipped"`
	SkipCounts map[SkipReason]int       `json:"skip_counts"`
}

// Total returns the number of events classified
func (r *Report) Total() int {
	return len(r.Records) + len(r.Skipped)
}
