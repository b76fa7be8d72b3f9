// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/flight"
	"github.com/BB999/drone-show/internal/geom"
)

// World modes.
const (
	ModeMR = "mr"
	ModeVR = "vr"
)

// World selects the environment the drone flies in.
type World struct {
	// Mode is "mr" (detected planes) or "vr" (generated obstacle course).
	Mode       string `yaml:"mode"`
	CourseSeed int64  `yaml:"course_seed"`
}

// SwarmLayout places the follower grid.
type SwarmLayout struct {
	Columns int        `yaml:"columns"`
	Rows    int        `yaml:"rows"`
	Spacing float64    `yaml:"spacing"`
	Jitter  float64    `yaml:"jitter"`
	Origin  [3]float64 `yaml:"origin"`
}

// SimulationConfig is the root configuration for a simulation run.
type SimulationConfig struct {
	SessionID            string        `yaml:"session_id"`
	World                World         `yaml:"world"`
	Swarm                SwarmLayout   `yaml:"swarm"`
	Scale                float64       `yaml:"scale"`
	Flight               flight.Tuning `yaml:"flight"`
	CollisionEnabled     bool          `yaml:"collision_enabled"`
	FrameIntervalMS      int           `yaml:"frame_interval_ms"`
	TelemetryEveryFrames int           `yaml:"telemetry_every_frames"`
	Seed                 int64         `yaml:"seed"`
}

// Default returns the configuration used when no file is given. Load
// decodes on top of it, so omitted keys keep these values.
func Default() *SimulationConfig {
	o := drone.DefaultSwarmOrigin
	return &SimulationConfig{
		World: World{Mode: ModeMR, CourseSeed: 42},
		Swarm: SwarmLayout{
			Columns: drone.GridColumns,
			Rows:    drone.GridRows,
			Spacing: drone.GridSpacing,
			Jitter:  drone.GridJitter,
			Origin:  [3]float64{o.X, o.Y, o.Z},
		},
		Scale:                drone.ReferenceScale,
		Flight:               flight.DefaultTuning(),
		CollisionEnabled:     true,
		FrameIntervalMS:      16,
		TelemetryEveryFrames: 30,
		Seed:                 1,
	}
}

// Layout converts the swarm section into a drone layout.
func (c *SimulationConfig) Layout() drone.Layout {
	return drone.Layout{
		Columns: c.Swarm.Columns,
		Rows:    c.Swarm.Rows,
		Spacing: c.Swarm.Spacing,
		Jitter:  c.Swarm.Jitter,
	}
}

// Origin is where the main drone starts before it is positioned.
func (c *SimulationConfig) Origin() geom.Vec {
	return geom.V(c.Swarm.Origin[0], c.Swarm.Origin[1], c.Swarm.Origin[2])
}

// FrameInterval is the wall-clock period between frames.
func (c *SimulationConfig) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// Load loads YAML config and validates it against a CUE schema
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	// Validate with CUE first
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	log.Printf("Loaded configuration: mode=%s scale=%.2f followers=%d collision=%t",
		cfg.World.Mode, cfg.Scale, cfg.Layout().Count(), cfg.CollisionEnabled)

	return cfg, nil
}
