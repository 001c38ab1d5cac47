package eventstudy

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// RiskModel is a fitted market model: expected = Alpha + Beta * benchmark
type RiskModel struct {
	Alpha           float64 `json:"alpha"`
	Beta            float64 `json:"beta"`
	EstimationStart int     `json:"estimation_start"`
	EstimationEnd   int     `json:"estimation_end"` // exclusive
}

// Expected returns the model return for one benchmark return
func (m *RiskModel) Expected(benchmark float64) float64 {
	return m.Alpha + m.Beta*benchmark
}

// EstimateRiskModel regresses symbol returns on benchmark returns over the
// estimation window that ends |LeadDays| trading days before eventPos.
// A nil model with a nil error means the store does not reach back far enough.
func (e *Engine) EstimateRiskModel(symbol string, eventPos int) (*RiskModel, error) {
	estEnd := eventPos - e.cfg.Gap()
	estStart := estEnd - e.cfg.EstimationWindow
	if estStart < 0 {
		return nil, nil
	}

	y, err := e.store.Slice(symbol, estStart, estEnd-1)
	if err != nil {
		return nil, fmt.Errorf("estimation window for %s: %w", symbol, err)
	}
	x, err := e.store.Slice(e.cfg.BenchmarkSymbol, estStart, estEnd-1)
	if err != nil {
		return nil, fmt.Errorf("estimation window for %s: %w", e.cfg.BenchmarkSymbol, err)
	}

	alpha, beta := fitOLS(x, y)
	return &RiskModel{
		Alpha:           alpha,
		Beta:            beta,
		EstimationStart: estStart,
		EstimationEnd:   estEnd,
	}, nil
}

// fitOLS is ordinary least squares of y on x with an intercept.
// A constant x has no slope to identify; the minimum-norm solution is beta 0 and alpha mean(y).
func fitOLS(x, y []float64) (alpha, beta float64) {
	if isConstant(x) {
		return stat.Mean(y, nil), 0
	}
	return stat.LinearRegression(x, y, nil, false)
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
