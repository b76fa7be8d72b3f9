package flight

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// Mode selects how the integrated velocity is applied.
type Mode int

const (
	// Manual moves the base position; the visible position follows via hover.
	Manual Mode = iota
	// Climbing moves position and base together (lift-off and descent).
	Climbing
	// Holding pins the drone at a landing height with no velocity.
	Holding
)

var (
	forwardAxis = geom.V(0, 0, -1)
	rightAxis   = geom.V(-1, 0, 0)
)

// Integrate advances d by one frame of stick input.
func Integrate(d *drone.Drone, in Sticks, lim Limits, t Tuning, mode Mode, holdY float64) {
	yawQ := geom.FromYaw(d.Yaw())
	forward := geom.Flatten(geom.Rotate(yawQ, forwardAxis))
	right := geom.Flatten(geom.Rotate(yawQ, rightAxis))

	v := d.Velocity
	v.Y += in.Vertical * lim.Acceleration
	v = r3.Add(v, r3.Scale(in.Forward*lim.Acceleration, forward))
	v = r3.Add(v, r3.Scale(in.Strafe*lim.Acceleration, right))
	v = geom.ClampLength(v, lim.MaxSpeed)
	v = r3.Scale(lim.Friction, v)
	d.Velocity = v

	switch mode {
	case Holding:
		d.Velocity = geom.Zero
		d.Position.Y = holdY
		d.BasePosition.Y = holdY
	case Climbing:
		d.Position = r3.Add(d.Position, v)
		d.BasePosition = d.Position
	default:
		d.BasePosition = r3.Add(d.BasePosition, v)
	}

	w := d.YawRate + in.Yaw*lim.AngularAcceleration
	w = geom.Clamp(w, -lim.MaxAngularSpeed, lim.MaxAngularSpeed)
	d.YawRate = w * lim.AngularFriction
	e := geom.ToEuler(d.Rotation)
	e.Y += d.YawRate
	d.Rotation = geom.FromEuler(e)

	targetX := -in.Forward * t.TiltAmount
	targetZ := in.Strafe * t.TiltAmount
	d.Tilt.X += (targetX - d.Tilt.X) * t.TiltSmoothing
	d.Tilt.Z += (targetZ - d.Tilt.Z) * t.TiltSmoothing
}

// Level eases the drone's pitch and roll toward zero by factor k.
func Level(d *drone.Drone, k float64) {
	e := geom.ToEuler(d.Rotation)
	e.X += -e.X * k
	e.Z += -e.Z * k
	d.Rotation = geom.FromEuler(e)
}
