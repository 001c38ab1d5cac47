package study

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/catalyst-alpha/internal/contracts"
)

// ErrInvalidGroupBy is returned for an unsupported grouping column
var ErrInvalidGroupBy = errors.New("invalid group by")

// GroupBy selects the label records are grouped on
type GroupBy string

// Grouping columns
const (
	ByQualityScore GroupBy = "quality_score"
	ByCatalystType GroupBy = "catalyst_type"
)

// ParseGroupBy accepts "quality_score" (default when empty) or "catalyst_type"
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "", ByQualityScore:
		return ByQualityScore, nil
	case ByCatalystType:
		return ByCatalystType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, s)
	}
}

// GroupSummary is the mean outcome of one label
type GroupSummary struct {
	Key          string  `json:"key"`
	Count        int     `json:"count"`
	MeanCAR      float64 `json:"mean_car"`
	MeanRealized float64 `json:"mean_realized_return"`
}

// Summarize averages CAR and realized return per label, ordered by label
func Summarize(records []contracts.ResultRecord, by GroupBy) ([]GroupSummary, error) {
	key, err := keyFunc(by)
	if err != nil {
		return nil, err
	}

	cars := make(map[string][]float64)
	realized := make(map[string][]float64)
	for _, rec := range records {
		k := key(rec)
		cars[k] = append(cars[k], rec.CAR)
		realized[k] = append(realized[k], rec.RealizedReturn)
	}

	out := make([]GroupSummary, 0, len(cars))
	for k, values := range cars {
		out = append(out, GroupSummary{
			Key:          k,
			Count:        len(values),
			MeanCAR:      stat.Mean(values, nil),
			MeanRealized: stat.Mean(realized[k], nil),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out, nil
}

func keyFunc(by GroupBy) (func(contracts.ResultRecord) string, error) {
	switch by {
	case ByQualityScore:
		return func(r contracts.ResultRecord) string { return r.QualityScore }, nil
	case ByCatalystType:
		return func(r contracts.ResultRecord) string { return r.CatalystType }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroupBy, by)
	}
}
