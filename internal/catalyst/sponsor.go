package catalyst

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// SponsorMap resolves registry sponsor names to exchange tickers
type SponsorMap struct {
	tickers map[string]string
}

// NormalizeSponsor folds case and collapses whitespace
func NormalizeSponsor(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// LoadSponsorMap reads a "sponsor,ticker" CSV.
// A sponsor listed twice with different tickers is an error.
func LoadSponsorMap(r io.Reader) (*SponsorMap, error) {
	table, err := newCSVTable(r, "sponsor", "ticker")
	if err != nil {
		return nil, err
	}

	m := &SponsorMap{tickers: make(map[string]string)}
	for {
		record, err := table.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sponsor map line %d: %w", table.line+1, err)
		}

		sponsor := NormalizeSponsor(table.get(record, "sponsor"))
		ticker := strings.ToUpper(table.get(record, "ticker"))
		if sponsor == "" || ticker == "" {
			return nil, fmt.Errorf("sponsor map line %d: sponsor and ticker are required", table.line)
		}

		if prev, ok := m.tickers[sponsor]; ok && prev != ticker {
			return nil, fmt.Errorf("sponsor map line %d: %q mapped to both %s and %s", table.line, sponsor, prev, ticker)
		}
		m.tickers[sponsor] = ticker
	}

	return m, nil
}

// LoadSponsorMapFile opens and reads a sponsor map file
func LoadSponsorMapFile(path string) (*SponsorMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadSponsorMap(f)
}

// Lookup returns the ticker for a sponsor name
func (m *SponsorMap) Lookup(sponsor string) (string, bool) {
	ticker, ok := m.tickers[NormalizeSponsor(sponsor)]
	return ticker, ok
}

// Len returns the number of mapped sponsors
func (m *SponsorMap) Len() int {
	return len(m.tickers)
}
