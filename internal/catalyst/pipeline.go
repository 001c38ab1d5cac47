package catalyst

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/catalyst-alpha/internal/contracts"
	"github.com/wonny/catalyst-alpha/internal/external/ctgov"
)

// DefaultQualityScore marks an event whose trial has not been scored yet
const DefaultQualityScore = "NEEDS_ANALYSIS"

// MappedTrial is a registry trial whose sponsor has a ticker
type MappedTrial struct {
	ctgov.Trial
	Ticker string `json:"ticker"`
}

// MapTrials keeps trials with a mapped sponsor, in input order.
// unmatched lists every other sponsor once, in first-seen order.
func MapTrials(trials []ctgov.Trial, m *SponsorMap) (matched []MappedTrial, unmatched []string) {
	seen := make(map[string]bool)
	for _, t := range trials {
		if ticker, ok := m.Lookup(t.Sponsor); ok {
			matched = append(matched, MappedTrial{Trial: t, Ticker: ticker})
			continue
		}
		if !seen[t.Sponsor] {
			seen[t.Sponsor] = true
			unmatched = append(unmatched, t.Sponsor)
		}
	}
	return matched, unmatched
}

// FilterUpcoming keeps trials completing within [today, today+daysAhead],
// ordered by completion date. Trials without a date are dropped.
func FilterUpcoming(trials []MappedTrial, now time.Time, daysAhead int) []MappedTrial {
	today := contracts.CivilDate(now)
	cutoff := today.AddDate(0, 0, daysAhead)

	out := make([]MappedTrial, 0, len(trials))
	for _, t := range trials {
		if !t.HasCompletionDate() {
			continue
		}
		d := contracts.CivilDate(t.CompletionDate)
		if d.Before(today) || d.After(cutoff) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletionDate.Before(out[j].CompletionDate)
	})
	return out
}

// ToEvents turns trials into event descriptors. scores maps NCT id to a quality label;
// unscored trials get DefaultQualityScore.
func ToEvents(trials []MappedTrial, scores map[string]string) ([]contracts.EventDescriptor, error) {
	events := make([]contracts.EventDescriptor, 0, len(trials))
	for _, t := range trials {
		quality, ok := scores[t.NCTID]
		if !ok || quality == "" {
			quality = DefaultQualityScore
		}

		ev, err := contracts.NewEventDescriptor(t.Ticker, t.CompletionDate, quality, t.Phase())
		if err != nil {
			return nil, fmt.Errorf("trial %s: %w", t.NCTID, err)
		}
		events = append(events, ev.WithTrialID(t.NCTID))
	}
	return events, nil
}
