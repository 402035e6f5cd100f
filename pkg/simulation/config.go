package simulation

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/colreg"
)

// HeadingPolicy decides what a vessel steers at the start of each tick.
type HeadingPolicy string

const (
	// PolicyReseek points every travelling vessel back at its destination at
	// the start of each tick; avoidance turns only last one tick.
	PolicyReseek HeadingPolicy = "reseek"
	// PolicyHold keeps the heading committed in the previous tick. Vessels
	// swing back toward their destination through the conflict-free relaxation.
	PolicyHold HeadingPolicy = "hold"
)

var ErrInvalidParams = errors.New("invalid simulation parameters")

// Params are the tunables of one run. They are fixed for the lifetime of an Engine.
type Params struct {
	TickSeconds      float64 `json:"tickSeconds" mapstructure:"tickSeconds"`           // simulated seconds per Step
	SafeDistance     float64 `json:"safeDistance" mapstructure:"safeDistance"`         // NM, hard separation radius
	RiskFactor       float64 `json:"riskFactor" mapstructure:"riskFactor"`             // detection band = RiskFactor * SafeDistance
	TurnRange        float64 `json:"turnRange" mapstructure:"turnRange"`               // degrees of starboard turn allowed per tick
	TurnStep         float64 `json:"turnStep" mapstructure:"turnStep"`                 // degrees between search candidates
	StandOnTurnCap   float64 `json:"standOnTurnCap" mapstructure:"standOnTurnCap"`     // degrees, fallback allowance of a stand-on vessel
	ArrivalThreshold float64 `json:"arrivalThreshold" mapstructure:"arrivalThreshold"` // NM
	MaxIterations    int     `json:"maxIterations" mapstructure:"maxIterations"`       // resolution passes per tick
	RelaxAfterTicks  int     `json:"relaxAfterTicks" mapstructure:"relaxAfterTicks"`   // conflict-free ticks before steering back

	HeadingPolicy HeadingPolicy     `json:"headingPolicy" mapstructure:"headingPolicy"`
	Thresholds    colreg.Thresholds `json:"thresholds" mapstructure:"thresholds"`

	// Workers > 0 evaluates search candidates concurrently. Results are
	// identical to the sequential search.
	Workers int `json:"workers" mapstructure:"workers"`
}

func DefaultParams() Params {
	return Params{
		TickSeconds:      30,
		SafeDistance:     0.2,
		RiskFactor:       3,
		TurnRange:        40,
		TurnStep:         1,
		StandOnTurnCap:   10,
		ArrivalThreshold: 0.1,
		MaxIterations:    100,
		RelaxAfterTicks:  10,
		HeadingPolicy:    PolicyReseek,
		Thresholds:       colreg.DefaultThresholds(),
	}
}

// RiskDistance is the width of the detection band in NM.
func (p Params) RiskDistance() float64 {
	return p.RiskFactor * p.SafeDistance
}

// Validate checks the parameters an Engine cannot run without.
func (p Params) Validate() error {
	switch {
	case p.TickSeconds <= 0:
		return fmt.Errorf("%w: tick duration must be positive, got %v", ErrInvalidParams, p.TickSeconds)
	case p.SafeDistance <= 0:
		return fmt.Errorf("%w: safe distance must be positive, got %v", ErrInvalidParams, p.SafeDistance)
	case p.RiskFactor < 1:
		return fmt.Errorf("%w: risk factor must be at least 1, got %v", ErrInvalidParams, p.RiskFactor)
	case p.TurnRange <= 0:
		return fmt.Errorf("%w: turn range must be positive, got %v", ErrInvalidParams, p.TurnRange)
	case p.TurnStep <= 0:
		return fmt.Errorf("%w: turn step must be positive, got %v", ErrInvalidParams, p.TurnStep)
	case p.StandOnTurnCap < 0:
		return fmt.Errorf("%w: stand-on turn cap must not be negative, got %v", ErrInvalidParams, p.StandOnTurnCap)
	case p.ArrivalThreshold <= 0:
		return fmt.Errorf("%w: arrival threshold must be positive, got %v", ErrInvalidParams, p.ArrivalThreshold)
	case p.MaxIterations <= 0:
		return fmt.Errorf("%w: iteration cap must be positive, got %d", ErrInvalidParams, p.MaxIterations)
	case p.HeadingPolicy != PolicyReseek && p.HeadingPolicy != PolicyHold:
		return fmt.Errorf("%w: unknown heading policy %q", ErrInvalidParams, p.HeadingPolicy)
	}
	return nil
}
