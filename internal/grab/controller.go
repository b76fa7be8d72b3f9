// Package grab lets the user pick up, move, release and resize drones with
// controller grips or hand pinches.
package grab

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/xr"
)

// Interaction constants.
const (
	// Reach is how close the grab point must be to a drone.
	Reach = 0.08
	// PinchDistance closes a pinch between index and thumb tips.
	PinchDistance = 0.025
	// Smoothing is the per-frame low-pass factor applied to the grab pose.
	Smoothing = 0.3
	// FrameSeconds converts per-frame displacement into release velocity.
	FrameSeconds = 0.016
	// ReleaseSpin bounds each component of the random spin given to a drone
	// dropped before flight.
	ReleaseSpin = 1.5
)

// Mode is the active manipulation. At most one is active.
type Mode int

const (
	None Mode = iota
	ControllerGrip
	HandPinch
	Resize
)

func (m Mode) String() string {
	switch m {
	case ControllerGrip:
		return "controller"
	case HandPinch:
		return "hand"
	case Resize:
		return "resize"
	}
	return "none"
}

// EventKind says what happened during an update.
type EventKind int

const (
	Grabbed EventKind = iota + 1
	Released
	ResizeStarted
	Resized
	ResizeEnded
)

func (k EventKind) String() string {
	switch k {
	case Grabbed:
		return "grabbed"
	case Released:
		return "released"
	case ResizeStarted:
		return "resize_started"
	case Resized:
		return "resized"
	case ResizeEnded:
		return "resize_ended"
	}
	return "unknown"
}

// Event reports a grab or resize transition.
type Event struct {
	Kind  EventKind
	Mode  Mode
	Hand  xr.Hand
	Drone *drone.Drone
	// Velocity is the world release velocity in m/s.
	Velocity geom.Vec
	// Scale is the main drone scale after a resize.
	Scale float64
}

// Controller tracks grips, pinches and the current grab.
type Controller struct {
	mode   Mode
	hand   xr.Hand
	target *drone.Drone

	offset    geom.Vec
	rotOffset geom.Quat
	smoothed  geom.Pose
	pos       geom.Vec
	prevPos   geom.Vec

	startDistance float64
	startScale    float64

	gripWas  [2]bool
	pinchWas [2]bool
}

// NewController returns an idle controller.
func NewController() *Controller {
	return &Controller{}
}

// Mode is the active manipulation.
func (c *Controller) Mode() Mode { return c.mode }

// Active reports whether any manipulation is in progress.
func (c *Controller) Active() bool { return c.mode != None }

// Holding is the grabbed drone, or nil.
func (c *Controller) Holding() *drone.Drone { return c.target }

// Holds reports whether d is the grabbed drone.
func (c *Controller) Holds(d *drone.Drone) bool { return c.target != nil && c.target == d }

// Cancel drops any grab or resize without release effects.
func (c *Controller) Cancel() {
	c.mode = None
	c.target = nil
}

// Update polls the input for one frame. Blocked suppresses new grabs and
// resizes (during startup and shutdown); an existing grab still tracks
// and releases.
func (c *Controller) Update(in xr.InputSource, s drone.Swarm, blocked bool) []Event {
	var events []Event
	pads := [2]*xr.Gamepad{in.Gamepad(xr.Left), in.Gamepad(xr.Right)}
	grips := [2]bool{pads[xr.Left].Pressed(xr.ButtonGrip), pads[xr.Right].Pressed(xr.ButtonGrip)}

	if ev, ok := c.updateResize(in, s, grips, blocked); ok {
		events = append(events, ev)
	}
	for _, h := range xr.Hands {
		if ev, ok := c.updateGrip(in, s, h, grips[h], blocked); ok {
			events = append(events, ev)
		}
	}
	for _, h := range xr.Hands {
		if ev, ok := c.updatePinch(in, s, h, blocked); ok {
			events = append(events, ev)
		}
	}
	c.gripWas = grips
	return events
}

func (c *Controller) updateResize(in xr.InputSource, s drone.Swarm, grips [2]bool, blocked bool) (Event, bool) {
	both := grips[xr.Left] && grips[xr.Right]
	if c.mode == Resize && !both {
		c.mode = None
		return Event{Kind: ResizeEnded, Mode: Resize, Drone: s.Main, Scale: s.Main.Scale}, true
	}
	if !both || s.Main == nil {
		return Event{}, false
	}
	l, r := in.ControllerPose(xr.Left), in.ControllerPose(xr.Right)
	if l == nil || r == nil {
		return Event{}, false
	}
	dist := r3.Norm(r3.Sub(r.Position, l.Position))
	switch c.mode {
	case None:
		if blocked {
			return Event{}, false
		}
		c.mode = Resize
		c.startDistance = dist
		c.startScale = s.Main.Scale
		return Event{Kind: ResizeStarted, Mode: Resize, Drone: s.Main, Scale: s.Main.Scale}, true
	case Resize:
		if c.startDistance <= 1e-6 {
			return Event{}, false
		}
		s.Main.SetScale(c.startScale * dist / c.startDistance)
		return Event{Kind: Resized, Mode: Resize, Drone: s.Main, Scale: s.Main.Scale}, true
	}
	return Event{}, false
}

func (c *Controller) updateGrip(in xr.InputSource, s drone.Swarm, h xr.Hand, pressed, blocked bool) (Event, bool) {
	if c.mode == ControllerGrip && c.hand == h {
		if !pressed {
			return c.release(s), true
		}
		if pose := in.ControllerPose(h); pose != nil {
			c.hold(s, *pose)
		}
		return Event{}, false
	}
	if !pressed || c.gripWas[h] || c.mode != None || blocked {
		return Event{}, false
	}
	pose := in.ControllerPose(h)
	if pose == nil {
		return Event{}, false
	}
	d := s.Nearest(pose.Position, Reach)
	if d == nil {
		return Event{}, false
	}
	c.begin(s, d, ControllerGrip, h, *pose)
	return Event{Kind: Grabbed, Mode: ControllerGrip, Hand: h, Drone: d}, true
}

func (c *Controller) updatePinch(in xr.InputSource, s drone.Swarm, h xr.Hand, blocked bool) (Event, bool) {
	index := in.HandJointPose(h, xr.JointIndexTip)
	thumb := in.HandJointPose(h, xr.JointThumbTip)
	if index == nil || thumb == nil {
		// a returning hand has to open before its next pinch counts
		c.pinchWas[h] = true
		if c.mode == HandPinch && c.hand == h {
			return c.release(s), true
		}
		return Event{}, false
	}
	pinching := r3.Norm(r3.Sub(index.Position, thumb.Position)) < PinchDistance
	onset := pinching && !c.pinchWas[h]
	c.pinchWas[h] = pinching

	mid := geom.Lerp(index.Position, thumb.Position, 0.5)
	grip := geom.Pose{Position: mid, Orientation: c.handRotation(in, h)}

	if c.mode == HandPinch && c.hand == h {
		if !pinching {
			return c.release(s), true
		}
		c.hold(s, grip)
		return Event{}, false
	}
	if !onset || c.mode != None || blocked {
		return Event{}, false
	}
	d := s.Nearest(mid, Reach)
	if d == nil {
		return Event{}, false
	}
	c.begin(s, d, HandPinch, h, grip)
	return Event{Kind: Grabbed, Mode: HandPinch, Hand: h, Drone: d}, true
}

// handRotation is the wrist orientation, falling back to the hand root and
// then to the last smoothed rotation.
func (c *Controller) handRotation(in xr.InputSource, h xr.Hand) geom.Quat {
	if w := in.HandJointPose(h, xr.JointWrist); w != nil {
		return w.Orientation
	}
	if root := in.HandJointPose(h, xr.JointHandRoot); root != nil {
		return root.Orientation
	}
	if c.mode == HandPinch {
		return c.smoothed.Orientation
	}
	return geom.Identity
}

func (c *Controller) begin(s drone.Swarm, d *drone.Drone, m Mode, h xr.Hand, grip geom.Pose) {
	world := s.WorldPose(d)
	c.mode = m
	c.hand = h
	c.target = d
	c.smoothed = grip
	c.offset = r3.Sub(world.Position, grip.Position)
	c.rotOffset = geom.Mul(geom.Inverse(grip.Orientation), world.Orientation)
	c.pos = world.Position
	c.prevPos = world.Position
	if d.IsMain() {
		d.Stop()
	} else {
		d.Velocity = geom.Zero
	}
}

func (c *Controller) hold(s drone.Swarm, raw geom.Pose) {
	c.smoothed = geom.Pose{
		Position:    geom.Lerp(c.smoothed.Position, raw.Position, Smoothing),
		Orientation: geom.Slerp(c.smoothed.Orientation, raw.Orientation, Smoothing),
	}
	world := geom.Pose{
		Position:    r3.Add(c.smoothed.Position, c.offset),
		Orientation: geom.Normalize(geom.Mul(c.smoothed.Orientation, c.rotOffset)),
	}
	s.SetWorldPose(c.target, world)
	c.prevPos, c.pos = c.pos, world.Position
	c.target.Velocity = geom.Zero
	if c.target.IsMain() {
		c.target.YawRate = 0
	}
}

func (c *Controller) release(s drone.Swarm) Event {
	ev := Event{
		Kind:     Released,
		Mode:     c.mode,
		Hand:     c.hand,
		Drone:    c.target,
		Velocity: r3.Scale(1/FrameSeconds, r3.Sub(c.pos, c.prevPos)),
	}
	c.mode = None
	c.target = nil
	return ev
}

// AfterRelease applies the consequences of a release. In flight the main
// drone levels out and a follower flies back to target. Before flight the
// main drone is thrown into free fall and nil is returned.
func AfterRelease(ev Event, flying bool, target geom.Vec, r *rand.Rand) *Transient {
	d := ev.Drone
	if d == nil {
		return nil
	}
	if !d.IsMain() {
		return ReturnFollowerToFormation(d, target)
	}
	if flying {
		return ReturnToHover(d)
	}
	d.FallVelocity = ev.Velocity
	d.AngularVelocity = geom.V(
		(r.Float64()-0.5)*2*ReleaseSpin,
		(r.Float64()-0.5)*2*ReleaseSpin,
		(r.Float64()-0.5)*2*ReleaseSpin,
	)
	return nil
}
