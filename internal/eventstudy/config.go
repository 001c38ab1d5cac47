package eventstudy

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by NewEngine for an unusable configuration
var ErrInvalidConfig = errors.New("invalid event study config")

// Default market-model parameters
const (
	DefaultBenchmark        = "XBI"
	DefaultEstimationWindow = 60
	DefaultLeadDays         = -5
	DefaultLagDays          = 1
)

// Config fixes the market-model parameters of an engine
type Config struct {
	BenchmarkSymbol  string `json:"benchmark_symbol" yaml:"benchmark"`
	EstimationWindow int    `json:"estimation_window" yaml:"estimation_window"` // trading days regressed
	LeadDays         int    `json:"lead_days" yaml:"lead_days"`                 // trade-window start relative to the event, usually <= 0
	LagDays          int    `json:"lag_days" yaml:"lag_days"`                   // trade-window end relative to the event, inclusive
}

// DefaultConfig returns the biotech defaults: XBI benchmark, 60-day estimation, (-5, +1) trade window
func DefaultConfig() Config {
	return Config{
		BenchmarkSymbol:  DefaultBenchmark,
		EstimationWindow: DefaultEstimationWindow,
		LeadDays:         DefaultLeadDays,
		LagDays:          DefaultLagDays,
	}
}

// Validate checks the parameters that do not depend on the store
func (c Config) Validate() error {
	if c.BenchmarkSymbol == "" {
		return fmt.Errorf("%w: benchmark symbol is required", ErrInvalidConfig)
	}
	if c.EstimationWindow < 2 {
		return fmt.Errorf("%w: estimation window must be >= 2, got %d", ErrInvalidConfig, c.EstimationWindow)
	}
	if c.LeadDays > c.LagDays {
		return fmt.Errorf("%w: lead days (%d) after lag days (%d)", ErrInvalidConfig, c.LeadDays, c.LagDays)
	}
	return nil
}

// Gap is the number of trading days between the estimation window and the event
func (c Config) Gap() int {
	if c.LeadDays < 0 {
		return -c.LeadDays
	}
	return c.LeadDays
}
