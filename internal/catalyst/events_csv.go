package catalyst

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wonny/catalyst-alpha/internal/contracts"
)

// EventsHeader is the column order of an events file
var EventsHeader = []string{"ticker", "event_date", "trial_id", "catalyst_type", "quality_score"}

// WriteEventsCSV writes events with EventsHeader
func WriteEventsCSV(w io.Writer, events []contracts.EventDescriptor) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EventsHeader); err != nil {
		return err
	}

	for _, ev := range events {
		if err := cw.Write([]string{
			ev.Ticker,
			ev.EventDate.Format(contracts.DateLayout),
			ev.TrialID,
			ev.CatalystType,
			ev.QualityScore,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadEventsCSV reads an events file. trial_id is optional; every other column
// is required, and a row failing descriptor validation fails the read.
func ReadEventsCSV(r io.Reader) ([]contracts.EventDescriptor, error) {
	table, err := newCSVTable(r, "ticker", "event_date", "catalyst_type", "quality_score")
	if err != nil {
		return nil, err
	}

	var events []contracts.EventDescriptor
	for {
		record, err := table.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("events line %d: %w", table.line+1, err)
		}

		date, err := parseEventDate(table.get(record, "event_date"))
		if err != nil {
			return nil, fmt.Errorf("events line %d: %w", table.line, err)
		}

		ev, err := contracts.NewEventDescriptor(
			table.get(record, "ticker"),
			date,
			table.get(record, "quality_score"),
			table.get(record, "catalyst_type"),
		)
		if err != nil {
			return nil, fmt.Errorf("events line %d: %w", table.line, err)
		}
		events = append(events, ev.WithTrialID(table.get(record, "trial_id")))
	}

	return events, nil
}

// parseEventDate accepts a date or a date-time export such as "2024-12-20 00:00:00"
func parseEventDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	d, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("event_date %q: must be YYYY-MM-DD", s)
	}
	return d, nil
}

// ReadEventsFile opens and reads an events file
func ReadEventsFile(path string) ([]contracts.EventDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadEventsCSV(f)
}

// WriteEventsFile creates or truncates path and writes events to it
func WriteEventsFile(path string, events []contracts.EventDescriptor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteEventsCSV(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadScoresCSV reads "nct_id,quality_score" rows from a trial scoring export
func ReadScoresCSV(r io.Reader) (map[string]string, error) {
	table, err := newCSVTable(r, "nct_id", "quality_score")
	if err != nil {
		return nil, err
	}

	scores := make(map[string]string)
	for {
		record, err := table.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scores line %d: %w", table.line+1, err)
		}

		id := strings.ToUpper(table.get(record, "nct_id"))
		if id == "" {
			return nil, fmt.Errorf("scores line %d: nct_id is required", table.line)
		}
		scores[id] = table.get(record, "quality_score")
	}
	return scores, nil
}

// ReadScoresFile opens and reads a scores file
func ReadScoresFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadScoresCSV(f)
}
