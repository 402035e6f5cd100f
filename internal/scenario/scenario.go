// Package scenario reads fleet scenarios from JSON files.
//
// A file is checked twice: against the embedded JSON Schema for shape and
// simple ranges, then against the rules that depend on other fields, such as
// coordinates that must lie on the map.
package scenario

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/simulation"
)

const schemaURL = "https://github.com/lao-tseu-is-alive/go-colreg-simulation/scenario.schema.json"

//go:embed scenario.schema.json
var schemaSource string

// ErrInvalid wraps every rejection of a scenario file.
var ErrInvalid = errors.New("invalid scenario")

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString(schemaURL, schemaSource)
})

// Ship describes one vessel of a scenario file.
type Ship struct {
	Name    string  `json:"name,omitempty"`
	StartX  float64 `json:"start_x"`
	StartY  float64 `json:"start_y"`
	DestX   float64 `json:"dest_x"`
	DestY   float64 `json:"dest_y"`
	Speed   float64 `json:"speed"`    // knots
	LengthM float64 `json:"length_m"` // metres
	WidthM  float64 `json:"width_m"`  // metres
}

// Scenario is a validated scenario file.
type Scenario struct {
	Name          string                   `json:"name,omitempty"`
	MapSize       float64                  `json:"map_size"`      // NM
	SafeDistance  float64                  `json:"safe_distance"` // NM
	HeadingRange  float64                  `json:"heading_range"` // degrees
	HeadingStep   float64                  `json:"heading_step"`  // degrees
	TimeStep      float64                  `json:"time_step"`     // seconds
	HeadingPolicy simulation.HeadingPolicy `json:"heading_policy,omitempty"`
	Ships         []Ship                   `json:"ships"`
}

// Load reads and validates the scenario at path. Without a name in the file
// the scenario takes the file name.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	sch, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling scenario schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding json: %w", ErrInvalid, err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate applies the rules of a scenario that span several fields.
// Parse runs it already; it is exported for scenarios built in code.
func (sc *Scenario) Validate() error {
	switch {
	case sc.MapSize <= 0 || sc.MapSize > 20:
		return fmt.Errorf("%w: map size must be > 0 and <= 20, got %v", ErrInvalid, sc.MapSize)
	case sc.SafeDistance <= 0:
		return fmt.Errorf("%w: safe distance must be positive, got %v", ErrInvalid, sc.SafeDistance)
	case sc.HeadingRange <= 0 || sc.HeadingRange > 90:
		return fmt.Errorf("%w: heading range must be > 0 and <= 90, got %v", ErrInvalid, sc.HeadingRange)
	case sc.HeadingStep <= 0:
		return fmt.Errorf("%w: heading step must be positive, got %v", ErrInvalid, sc.HeadingStep)
	case sc.TimeStep <= 0:
		return fmt.Errorf("%w: time step must be positive, got %v", ErrInvalid, sc.TimeStep)
	case len(sc.Ships) < 2 || len(sc.Ships) > 8:
		return fmt.Errorf("%w: a scenario needs 2 to 8 ships, got %d", ErrInvalid, len(sc.Ships))
	}

	onMap := func(x, y float64) bool {
		return x >= 0 && y >= 0 && x <= sc.MapSize && y <= sc.MapSize
	}
	names := make(map[string]int, len(sc.Ships))
	for i, s := range sc.Ships {
		n := i + 1
		switch {
		case !onMap(s.StartX, s.StartY):
			return fmt.Errorf("%w: ship %d start must lie within 0 and %v", ErrInvalid, n, sc.MapSize)
		case !onMap(s.DestX, s.DestY):
			return fmt.Errorf("%w: ship %d destination must lie within 0 and %v", ErrInvalid, n, sc.MapSize)
		case s.Speed <= 0 || s.Speed > 50:
			return fmt.Errorf("%w: ship %d speed must be > 0 and <= 50, got %v", ErrInvalid, n, s.Speed)
		case s.LengthM <= 0 || s.LengthM > 800:
			return fmt.Errorf("%w: ship %d length must be > 0 and <= 800, got %v", ErrInvalid, n, s.LengthM)
		case s.WidthM <= 0 || s.WidthM > 200:
			return fmt.Errorf("%w: ship %d width must be > 0 and <= 200, got %v", ErrInvalid, n, s.WidthM)
		}
		name := sc.shipName(i)
		if prev, dup := names[name]; dup {
			return fmt.Errorf("%w: ships %d and %d are both named %q", ErrInvalid, prev, n, name)
		}
		names[name] = n
	}

	if sc.HeadingPolicy != "" && sc.HeadingPolicy != simulation.PolicyReseek && sc.HeadingPolicy != simulation.PolicyHold {
		return fmt.Errorf("%w: unknown heading policy %q", ErrInvalid, sc.HeadingPolicy)
	}
	return nil
}

func (sc *Scenario) shipName(i int) string {
	if name := sc.Ships[i].Name; name != "" {
		return name
	}
	return fmt.Sprintf("Ship%d", i+1)
}

// Fleet builds fresh vessels for a run, each pointed at its destination.
func (sc *Scenario) Fleet() []*simulation.Vessel {
	fleet := make([]*simulation.Vessel, len(sc.Ships))
	for i, s := range sc.Ships {
		fleet[i] = simulation.NewVessel(
			sc.shipName(i),
			geometry.NewVector(s.StartX, s.StartY),
			s.Speed,
			geometry.NewVector(s.DestX, s.DestY),
			s.LengthM,
			s.WidthM,
		)
	}
	return fleet
}

// Pinned marks the parameters the user set explicitly. A pinned value in the
// base wins over the scenario's own.
type Pinned struct {
	SafeDistance  bool
	TurnRange     bool
	TurnStep      bool
	TickSeconds   bool
	HeadingPolicy bool
}

// Params overlays the scenario's settings on base.
func (sc *Scenario) Params(base simulation.Params) simulation.Params {
	return sc.ParamsWith(base, Pinned{})
}

// ParamsWith overlays the scenario's settings on base, leaving pinned ones alone.
func (sc *Scenario) ParamsWith(base simulation.Params, pin Pinned) simulation.Params {
	p := base
	if !pin.SafeDistance {
		p.SafeDistance = sc.SafeDistance
	}
	if !pin.TurnRange {
		p.TurnRange = sc.HeadingRange
	}
	if !pin.TurnStep {
		p.TurnStep = sc.HeadingStep
	}
	if !pin.TickSeconds {
		p.TickSeconds = sc.TimeStep
	}
	if sc.HeadingPolicy != "" && !pin.HeadingPolicy {
		p.HeadingPolicy = sc.HeadingPolicy
	}
	return p
}
