// Package formation steers the follower swarm between named target shapes.
package formation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// ErrUnknownFormation is returned when a formation name is not configured.
var ErrUnknownFormation = errors.New("unknown formation")

// Steering constants. Distances are in swarm-frame meters, speeds in meters
// per frame.
const (
	BaseAcceleration = 0.0012
	BaseMaxSpeed     = 0.010
	BaseFriction     = 0.94
	// Timeout forces every follower onto its target.
	Timeout = 8.0
	// MaxReactionDelay bounds the per-follower start latency drawn on each
	// formation change.
	MaxReactionDelay = 1.0

	arrivalSq   = 0.012 * 0.012
	closeSq     = 0.04 * 0.04
	minDirSq    = 0.001 * 0.001
	minFriction = 0.88
	maxFriction = 0.96
)

// Animator owns the formation table and the running move.
type Animator struct {
	formations []drone.Formation
	index      int
	animating  bool
	started    bool
	start      float64
	rand       *rand.Rand
}

// New creates an animator showing the first formation. Every formation
// must have a target for each of followers.
func New(formations []drone.Formation, followers int, r *rand.Rand) (*Animator, error) {
	if len(formations) == 0 {
		return nil, fmt.Errorf("no formations configured")
	}
	for _, f := range formations {
		if err := f.Validate(followers); err != nil {
			return nil, err
		}
	}
	return &Animator{formations: formations, rand: r}, nil
}

// Index is the active formation index.
func (a *Animator) Index() int { return a.index }

// Name is the active formation name.
func (a *Animator) Name() string { return a.formations[a.index].Name }

// Names lists the configured formations in cycle order.
func (a *Animator) Names() []string {
	out := make([]string, len(a.formations))
	for i, f := range a.formations {
		out[i] = f.Name
	}
	return out
}

// Animating reports whether a move is still in progress.
func (a *Animator) Animating() bool { return a.animating }

// Target is follower i's position in the active formation.
func (a *Animator) Target(i int) (geom.Vec, bool) {
	t := a.formations[a.index].Targets
	if i < 0 || i >= len(t) {
		return geom.Zero, false
	}
	return t[i], true
}

// Next advances cyclically to the following formation and starts moving
// the swarm there. It returns the new formation name.
func (a *Animator) Next(followers []*drone.Drone) string {
	a.Start((a.index+1)%len(a.formations), followers)
	return a.Name()
}

// Select starts a move to the named formation.
func (a *Animator) Select(name string, followers []*drone.Drone) error {
	for i, f := range a.formations {
		if f.Name == name {
			a.Start(i, followers)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormation, name)
}

// Start begins a move to formation index. Followers stop, forget their
// arrival and draw a new reaction delay. The move's clock starts on the
// next Step.
func (a *Animator) Start(index int, followers []*drone.Drone) {
	a.index = index
	a.animating = true
	a.started = false
	for _, d := range followers {
		d.Velocity = geom.Zero
		d.Personality.ReactionDelay = a.rand.Float64() * MaxReactionDelay
		if d.Flight != nil {
			d.Flight.HasArrived = false
		}
	}
}

// Step advances the move to simulated time now (seconds). Followers for
// which skip returns true are left untouched and do not hold up
// completion. Step reports true on the frame the move completes.
func (a *Animator) Step(now float64, followers []*drone.Drone, skip func(*drone.Drone) bool) bool {
	if !a.animating {
		return false
	}
	if !a.started {
		a.start = now
		a.started = true
	}
	elapsed := now - a.start
	all := true
	for i, d := range followers {
		target, ok := a.Target(i)
		if !ok || (skip != nil && skip(d)) {
			continue
		}
		if d.Flight == nil {
			d.Flight = drone.NewFlightParams(a.rand)
		}
		if !a.steer(d, target, now, elapsed) {
			all = false
		}
	}
	if all {
		a.animating = false
		a.started = false
	}
	return all
}

// steer moves one follower and reports whether it no longer blocks
// completion.
func (a *Animator) steer(d *drone.Drone, target geom.Vec, now, elapsed float64) bool {
	p := d.Flight
	inertia := d.Personality.Inertia
	if inertia <= 0 {
		inertia = 1
	}

	if elapsed < d.Personality.ReactionDelay {
		d.Position.Y += math.Sin(now*3*p.WobbleFrequency+p.WobblePhase) * p.WobbleAmplitude * 0.3
		return false
	}

	if elapsed > Timeout && !p.HasArrived {
		arrive(d, target)
		return true
	}

	if p.HasArrived {
		d.Position = r3.Add(target, Wobble(p, now))
		d.BasePosition = target
		return true
	}

	diff := r3.Sub(target, d.Position)
	distSq := r3.Dot(diff, diff)
	if distSq < arrivalSq {
		arrive(d, target)
		return true
	}

	v := d.Velocity
	accel := BaseAcceleration * p.AccelMultiplier / inertia
	if distSq > minDirSq {
		v = r3.Add(v, r3.Scale(accel/math.Sqrt(distSq), diff))
	}
	v.X += p.DriftX
	v.Z += p.DriftZ
	v.Y += math.Sin(now*p.WobbleFrequency+p.WobblePhase) * p.WobbleAmplitude * 0.2

	size := 0.9 + inertia*0.2
	v = geom.ClampLength(v, BaseMaxSpeed*p.SpeedMultiplier*size)

	friction := BaseFriction + (inertia-1)*0.02
	if distSq < closeSq {
		friction = math.Max(minFriction, friction-0.04)
	}
	friction = geom.Clamp(friction, minFriction, maxFriction)
	v = r3.Scale(friction, v)

	d.Velocity = v
	d.Position = r3.Add(d.Position, v)
	d.BasePosition = d.Position
	return false
}

func arrive(d *drone.Drone, target geom.Vec) {
	d.Flight.HasArrived = true
	d.Velocity = geom.Zero
	d.Position = target
	d.BasePosition = target
}

// Wobble is the idle offset of an arrived follower at time now. Each axis
// stays within the follower's wobble amplitude.
func Wobble(p *drone.FlightParams, now float64) geom.Vec {
	ph := now*p.WobbleFrequency + p.WobblePhase
	a := p.WobbleAmplitude
	return geom.V(math.Sin(ph)*a, math.Sin(ph*1.3+1)*a*0.5, math.Cos(ph*0.8)*a)
}
