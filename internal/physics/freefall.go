package physics

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// Free-fall constants.
const (
	Gravity      = -9.8
	FrameSeconds = 0.016

	bounce        = 0.5
	groundDamping = 0.7
	spinDamping   = 0.85
	minSpin       = 0.01
	settleHeight  = 0.01
	settleSpeed   = 0.05
	settleTilt    = 0.02
	crashImpact   = 0.5
)

// Fall is the outcome of one free-fall step.
type Fall struct {
	// Settled is true when the drone is resting level on a surface.
	Settled bool
	// Contact is true when the drone touched its landing surface this step.
	Contact bool
	// Bounced is true when the contact reversed a downward velocity.
	Bounced bool
	// Crash is true for a hard impact that should fire the crash cue.
	Crash bool
	// Impact is the downward speed at contact in m/s.
	Impact float64
}

// Latch returns the collision latch after this step given last frame's.
func (f Fall) Latch(was bool) bool {
	if f.Settled {
		return was
	}
	if f.Crash {
		return true
	}
	return f.Bounced && was
}

// Haptic is the controller pulse strength for a landing impact.
func (f Fall) Haptic() float64 {
	return geom.Clamp(f.Impact*0.5, 0.3, 1.0)
}

// LandingHeight is the highest surface below the drone it can rest on: the
// floor or a horizontal plane whose polygon contains the drone.
func LandingHeight(d *drone.Drone, planes []Plane) float64 {
	h := FloorHeight + d.Radius.Vertical
	for _, p := range planes {
		if math.Abs(p.Normal().Y) < horizontalNormalY || !p.Contains(d.Position) {
			continue
		}
		top := p.Pose.Position.Y + d.Radius.Vertical
		if top <= d.Position.Y+settleHeight && top > h {
			h = top
		}
	}
	return h
}

// FreeFall advances an unpowered drone by one frame of gravity, bounce and
// tumbling. wasColliding is the collision latch from the previous frame.
func FreeFall(d *drone.Drone, planes []Plane, r *rand.Rand, wasColliding bool) Fall {
	landing := LandingHeight(d, planes)

	if math.Abs(d.Position.Y-landing) < settleHeight && r3.Norm(d.FallVelocity) < settleSpeed {
		d.Position.Y = landing
		d.BasePosition = d.Position
		d.FallVelocity = geom.Zero
		d.AngularVelocity = geom.Zero
		level := geom.YawOnly(d.Rotation)
		d.Rotation = geom.Slerp(d.Rotation, level, 0.3)
		e := geom.ToEuler(d.Rotation)
		if math.Abs(e.X) < settleTilt && math.Abs(e.Z) < settleTilt {
			d.Rotation = geom.FromYaw(e.Y)
		}
		return Fall{Settled: true}
	}

	var f Fall
	d.FallVelocity.Y += Gravity * FrameSeconds
	d.Position = r3.Add(d.Position, r3.Scale(FrameSeconds, d.FallVelocity))

	if d.Position.Y <= landing {
		f.Contact = true
		f.Impact = math.Abs(d.FallVelocity.Y)
		d.Position.Y = landing
		if d.FallVelocity.Y < 0 {
			d.FallVelocity.Y = -d.FallVelocity.Y * bounce
			f.Bounced = true
			d.AngularVelocity.X += r.Float64() - 0.5
			d.AngularVelocity.Z += r.Float64() - 0.5
			f.Crash = f.Impact > crashImpact && !wasColliding
		}
		d.FallVelocity.X *= groundDamping
		d.FallVelocity.Z *= groundDamping
		d.AngularVelocity = r3.Scale(groundDamping, d.AngularVelocity)
	}

	if w := r3.Norm(d.AngularVelocity); w > minSpin {
		d.Rotation = geom.Normalize(geom.Mul(d.Rotation, geom.AxisAngle(d.AngularVelocity, w*FrameSeconds)))
		d.AngularVelocity = r3.Scale(spinDamping, d.AngularVelocity)
	} else {
		d.AngularVelocity = geom.Zero
	}

	if d.Position.Y <= landing+0.02 {
		d.Rotation = geom.Slerp(d.Rotation, geom.YawOnly(d.Rotation), 0.2)
	}
	d.BasePosition = d.Position
	return f
}
