package returns

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/catalyst-alpha/internal/contracts"
)

// Store errors
var (
	// ErrInsufficientData is returned when construction input is empty or malformed,
	// or when no trading date survives alignment.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDateNotFound is returned when a date is not on the aligned trading-date index.
	ErrDateNotFound = errors.New("date not found")

	// ErrOutOfRange is returned for positions outside the aligned series.
	ErrOutOfRange = errors.New("position out of range")

	// ErrUnknownSymbol is returned for symbols the store was not built with.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Store holds date-aligned daily log returns for a fixed set of symbols.
// It is immutable after Build, so concurrent readers need no locking.
// ⭐ SSOT: 수익률 시계열은 여기서만 생성
type Store struct {
	dates  []time.Time
	index  map[time.Time]int
	series map[string][]float64
}

// Build computes ln(p_t / p_{t-1}) per symbol over the union of all symbols' dates
// and keeps only the rows where every symbol has a valid return.
//
// A return is valid when both closes exist on that row and the previous row of the
// union index and both are finite and strictly positive.
func Build(raw map[string][]contracts.PricePoint) (*Store, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrInsufficientData)
	}

	closes := make(map[string]map[time.Time]float64, len(raw))
	union := make(map[time.Time]struct{})

	for symbol, points := range raw {
		if len(points) == 0 {
			return nil, fmt.Errorf("%w: symbol %s has no prices", ErrInsufficientData, symbol)
		}

		byDate := make(map[time.Time]float64, len(points))
		for _, p := range points {
			d := contracts.CivilDate(p.Date)
			if _, dup := byDate[d]; dup {
				return nil, fmt.Errorf("%w: symbol %s has duplicate date %s",
					ErrInsufficientData, symbol, d.Format(contracts.DateLayout))
			}
			byDate[d] = p.AdjClose
			union[d] = struct{}{}
		}
		closes[symbol] = byDate
	}

	joined := make([]time.Time, 0, len(union))
	for d := range union {
		joined = append(joined, d)
	}
	sort.Slice(joined, func(i, j int) bool { return joined[i].Before(joined[j]) })

	s := &Store{
		index:  make(map[time.Time]int),
		series: make(map[string][]float64, len(raw)),
	}

	row := make(map[string]float64, len(closes))
	for i := 1; i < len(joined); i++ {
		complete := true
		for symbol, byDate := range closes {
			r, ok := logReturn(byDate, joined[i-1], joined[i])
			if !ok {
				complete = false
				break
			}
			row[symbol] = r
		}
		if !complete {
			continue
		}

		s.index[joined[i]] = len(s.dates)
		s.dates = append(s.dates, joined[i])
		for symbol := range closes {
			s.series[symbol] = append(s.series[symbol], row[symbol])
		}
	}

	if len(s.dates) == 0 {
		return nil, fmt.Errorf("%w: no aligned trading dates across %d symbols", ErrInsufficientData, len(raw))
	}

	return s, nil
}

func logReturn(byDate map[time.Time]float64, prev, cur time.Time) (float64, bool) {
	p0, ok0 := byDate[prev]
	p1, ok1 := byDate[cur]
	if !ok0 || !ok1 || !validPrice(p0) || !validPrice(p1) {
		return 0, false
	}
	return math.Log(p1 / p0), true
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// Len returns the number of aligned trading days
func (s *Store) Len() int {
	return len(s.dates)
}

// Has reports whether symbol is tracked
func (s *Store) Has(symbol string) bool {
	_, ok := s.series[symbol]
	return ok
}

// Symbols returns the tracked symbols in lexical order
func (s *Store) Symbols() []string {
	out := make([]string, 0, len(s.series))
	for symbol := range s.series {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Dates returns a copy of the aligned trading-date index
func (s *Store) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// DateAt returns the trading date at pos
func (s *Store) DateAt(pos int) (time.Time, error) {
	if pos < 0 || pos >= len(s.dates) {
		return time.Time{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, pos, len(s.dates))
	}
	return s.dates[pos], nil
}

// IndexOf resolves a calendar date to its exact position; there is no nearest-date fallback
func (s *Store) IndexOf(date time.Time) (int, error) {
	d := contracts.CivilDate(date)
	pos, ok := s.index[d]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDateNotFound, d.Format(contracts.DateLayout))
	}
	return pos, nil
}

// ReturnAt returns symbol's log return at pos
func (s *Store) ReturnAt(symbol string, pos int) (float64, error) {
	values, ok := s.series[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if pos < 0 || pos >= len(values) {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, pos, len(values))
	}
	return values[pos], nil
}

// Slice returns a copy of symbol's returns over [start, end], both inclusive
func (s *Store) Slice(symbol string, start, end int) ([]float64, error) {
	values, ok := s.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if start < 0 || end < 0 || start >= len(values) || end >= len(values) || start > end {
		return nil, fmt.Errorf("%w: [%d, %d] not within [0, %d)", ErrOutOfRange, start, end, len(values))
	}

	out := make([]float64, end-start+1)
	copy(out, values[start:end+1])
	return out, nil
}
