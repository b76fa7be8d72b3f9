package grab

import (
	"math"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

// ReturnSpeed is transient progress per second; a return takes one second.
const ReturnSpeed = 1.0

// Transient eases a released drone back to a level attitude and, for
// followers, back to their formation slot.
type Transient struct {
	Drone    *drone.Drone
	Progress float64

	startPos  geom.Vec
	targetPos geom.Vec
	startRot  geom.Quat
	targetRot geom.Quat
	move      bool
}

// ReturnToHover levels the main drone around its current heading. Its
// position is left where it was released.
func ReturnToHover(d *drone.Drone) *Transient {
	return &Transient{
		Drone:     d,
		startPos:  d.Position,
		targetPos: d.Position,
		startRot:  d.Rotation,
		targetRot: geom.YawOnly(d.Rotation),
	}
}

// ReturnFollowerToFormation flies a follower back to target, in swarm
// coordinates, and levels it.
func ReturnFollowerToFormation(d *drone.Drone, target geom.Vec) *Transient {
	return &Transient{
		Drone:     d,
		startPos:  d.Position,
		targetPos: target,
		startRot:  d.Rotation,
		targetRot: geom.YawOnly(d.Rotation),
		move:      true,
	}
}

// Target is the final rotation.
func (t *Transient) Target() geom.Quat { return t.targetRot }

// Retarget changes a follower's destination mid-flight.
func (t *Transient) Retarget(p geom.Vec) {
	if t.move {
		t.targetPos = p
	}
}

// Step advances one frame and reports whether the transient finished.
func (t *Transient) Step() bool {
	t.Progress += ReturnSpeed * FrameSeconds
	done := t.Progress >= 1
	if done {
		t.Progress = 1
	}
	ease := EaseOutCubic(t.Progress)
	d := t.Drone
	d.Rotation = geom.Slerp(t.startRot, t.targetRot, ease)
	if t.move {
		d.Position = geom.Lerp(t.startPos, t.targetPos, ease)
		if done {
			d.Position = t.targetPos
		}
	}
	d.BasePosition = d.Position
	d.Velocity = geom.Zero
	d.YawRate = 0
	return done
}

// EaseOutCubic maps linear progress onto a decelerating curve.
func EaseOutCubic(p float64) float64 {
	return 1 - math.Pow(1-p, 3)
}
