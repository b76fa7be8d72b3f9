// Package drone models the main drone and the formation followers.
package drone

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/BB999/drone-show/internal/geom"
)

// MainIndex marks the user-flown drone; followers use 0..n-1.
const MainIndex = -1

// MinScale is the smallest uniform scale a drone can be resized to.
const MinScale = 0.01

// ReferenceScale is the scale at which the flight tuning is nominal.
const ReferenceScale = 0.3

// Radius is the collision envelope of a drone.
type Radius struct {
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
}

// RadiusForScale derives the collision envelope from a uniform scale.
// At ReferenceScale it yields {0.15, 0.05}.
func RadiusForScale(scale float64) Radius {
	return Radius{Horizontal: scale * 0.5, Vertical: scale / 6}
}

// Tilt is the cosmetic bank applied on top of the heading.
type Tilt struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Personality gives each follower its own response characteristics.
type Personality struct {
	Inertia       float64 `json:"inertia"`
	ReactionDelay float64 `json:"reaction_delay"`
}

// FlightParams holds the per-follower dynamics for formation moves.
// It is created the first time a follower is asked to move.
type FlightParams struct {
	SpeedMultiplier float64 `json:"speed_multiplier"`
	AccelMultiplier float64 `json:"accel_multiplier"`
	WobbleFrequency float64 `json:"wobble_frequency"`
	WobbleAmplitude float64 `json:"wobble_amplitude"`
	WobblePhase     float64 `json:"wobble_phase"`
	DriftX          float64 `json:"drift_x"`
	DriftZ          float64 `json:"drift_z"`
	HasArrived      bool    `json:"has_arrived"`
}

// NewFlightParams draws a fresh set of flight parameters.
func NewFlightParams(r *rand.Rand) *FlightParams {
	return &FlightParams{
		SpeedMultiplier: 0.8 + r.Float64()*0.4,
		AccelMultiplier: 0.8 + r.Float64()*0.4,
		WobbleFrequency: 2 + r.Float64()*2,
		WobbleAmplitude: 0.0008 + r.Float64()*0.001,
		WobblePhase:     r.Float64() * math.Pi * 2,
		DriftX:          (r.Float64() - 0.5) * 0.0001,
		DriftZ:          (r.Float64() - 0.5) * 0.0001,
	}
}

// Drone is the full kinematic state of one drone. For followers Position,
// BasePosition and Rotation are expressed in the swarm frame.
type Drone struct {
	ID    string
	Index int

	Position     geom.Vec
	BasePosition geom.Vec
	Rotation     geom.Quat
	Scale        float64
	Radius       Radius

	// Velocity is in meters per frame and drives manual flight.
	Velocity geom.Vec
	YawRate  float64
	// FallVelocity (m/s) and AngularVelocity (rad/s) drive pre-startup
	// free fall.
	FallVelocity    geom.Vec
	AngularVelocity geom.Vec
	Tilt            Tilt

	Personality Personality
	Flight      *FlightParams
}

// New creates a level drone at p.
func New(index int, p geom.Vec, scale float64) *Drone {
	d := &Drone{
		ID:           uuid.NewString(),
		Index:        index,
		Position:     p,
		BasePosition: p,
		Rotation:     geom.Identity,
	}
	d.SetScale(scale)
	return d
}

// IsMain reports whether d is the user-flown drone.
func (d *Drone) IsMain() bool { return d.Index == MainIndex }

// SetScale applies a new uniform scale, clamped to MinScale, and refreshes
// the collision radius.
func (d *Drone) SetScale(s float64) {
	if s < MinScale {
		s = MinScale
	}
	d.Scale = s
	d.Radius = RadiusForScale(s)
}

// Yaw is the current heading.
func (d *Drone) Yaw() float64 {
	return geom.Yaw(d.Rotation)
}

// Stop zeroes every velocity component.
func (d *Drone) Stop() {
	d.Velocity = geom.Zero
	d.YawRate = 0
	d.FallVelocity = geom.Zero
	d.AngularVelocity = geom.Zero
}

// Pose returns the drone's position and orientation.
func (d *Drone) Pose() geom.Pose {
	return geom.Pose{Position: d.Position, Orientation: d.Rotation}
}
