package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/xr"
)

// Event types raised by the player. Sequence states ("flying",
// "pre_startup_falling/landed", ...) are raised as events of their own name.
const (
	EventTimeElapsed      = "time_elapsed"
	EventCollision        = "collision"
	EventFormationChanged = "formation_changed"
)

// ErrInvalidScenario wraps structural problems found by Validate.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a scripted session: ordered phases that hold controller
// input, issue commands on entry and move on through triggers.
type Scenario struct {
	Name        string      `yaml:"name,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Planes      []PlaneSpec `yaml:"planes,omitempty"`
	Phases      []Phase     `yaml:"phases"`
}

// Phase describes a stage of the script.
type Phase struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Duration moves on to the following phase after this many seconds.
	Duration float64 `yaml:"duration,omitempty"`
	// Commands are issued once when the phase is entered.
	Commands []string  `yaml:"commands,omitempty"`
	Input    Input     `yaml:"input,omitempty"`
	Triggers []Trigger `yaml:"triggers,omitempty"`
}

// Trigger moves the scenario to another phase based on an event.
type Trigger struct {
	Event string `yaml:"event"`
	Value int    `yaml:"value"`
	Next  string `yaml:"next"`
}

// Event represents a runtime occurrence that may advance the scenario.
type Event struct {
	Type  string
	Value int
}

// PoseSpec is a position plus a heading in radians.
type PoseSpec struct {
	Position [3]float64 `yaml:"position"`
	Yaw      float64    `yaml:"yaw,omitempty"`
}

// Pose converts the YAML pose into a world pose.
func (p PoseSpec) Pose() geom.Pose {
	return geom.Pose{
		Position:    geom.V(p.Position[0], p.Position[1], p.Position[2]),
		Orientation: geom.FromYaw(p.Yaw),
	}
}

// Input is what the headset reports while a phase is active. Buttons use
// "<hand>.<button>" with button one of trigger, grip, lower or upper.
type Input struct {
	Right      *PoseSpec  `yaml:"right,omitempty"`
	Left       *PoseSpec  `yaml:"left,omitempty"`
	Camera     *PoseSpec  `yaml:"camera,omitempty"`
	RightStick [2]float64 `yaml:"right_stick,omitempty"`
	LeftStick  [2]float64 `yaml:"left_stick,omitempty"`
	Buttons    []string   `yaml:"buttons,omitempty"`
}

// PlaneSpec is a rectangular detected surface.
type PlaneSpec struct {
	ID       string     `yaml:"id"`
	Position [3]float64 `yaml:"position"`
	Yaw      float64    `yaml:"yaw,omitempty"`
	Width    float64    `yaml:"width"`
	Depth    float64    `yaml:"depth"`
	Vertical bool       `yaml:"vertical,omitempty"`
}

// Plane converts the YAML plane into an xr.Plane. Vertical planes are stood up
// by a quarter turn about X so their local up faces the room.
func (p PlaneSpec) Plane() xr.Plane {
	w, d := p.Width/2, p.Depth/2
	q := geom.FromYaw(p.Yaw)
	orient := xr.Horizontal
	if p.Vertical {
		q = geom.Mul(q, geom.AxisAngle(geom.V(1, 0, 0), math.Pi/2))
		orient = xr.Vertical
	}
	return xr.Plane{
		ID:          p.ID,
		Pose:        geom.Pose{Position: geom.V(p.Position[0], p.Position[1], p.Position[2]), Orientation: q},
		Polygon:     []geom.Point2{{X: -w, Z: -d}, {X: w, Z: -d}, {X: w, Z: d}, {X: -w, Z: d}},
		Orientation: orient,
	}
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Resolve returns the built-in scenario called name, or loads name as a
// YAML file.
func Resolve(name string) (*Scenario, error) {
	if sc, ok := BuiltIn()[name]; ok {
		return &sc, nil
	}
	return Load(name)
}

// Validate checks phase names are unique and every trigger leads to a
// known phase.
func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalidScenario)
	}
	names := make(map[string]bool, len(s.Phases))
	for _, p := range s.Phases {
		if p.Name == "" {
			return fmt.Errorf("%w: phase without a name", ErrInvalidScenario)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate phase %q", ErrInvalidScenario, p.Name)
		}
		names[p.Name] = true
	}
	for _, p := range s.Phases {
		for _, tr := range p.Triggers {
			if !names[tr.Next] {
				return fmt.Errorf("%w: phase %q triggers unknown phase %q", ErrInvalidScenario, p.Name, tr.Next)
			}
		}
		for _, b := range p.Input.Buttons {
			if _, _, ok := parseButton(b); !ok {
				return fmt.Errorf("%w: phase %q has unknown button %q", ErrInvalidScenario, p.Name, b)
			}
		}
	}
	return nil
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	for _, p := range s.Phases {
		if p.Name != current {
			continue
		}
		for _, tr := range p.Triggers {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}

func (s *Scenario) index(name string) int {
	for i, p := range s.Phases {
		if p.Name == name {
			return i
		}
	}
	return -1
}
