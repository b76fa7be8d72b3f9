package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/telemetry"
	"github.com/BB999/drone-show/internal/xr"
)

// Auto-return tuning.
const (
	autoReturnSpeedFactor = 1.5
	autoReturnReach       = 0.05
	autoReturnTurn        = 0.1
)

var cameraForward = geom.V(0, 0, -1)

// toggleAutoReturn starts a return to the right controller, or cancels
// one in progress.
func (s *Simulator) toggleAutoReturn() {
	st := &s.st
	if st.autoReturn.active {
		s.cancelAutoReturn()
		return
	}
	ctrl := s.input.ControllerPose(xr.Right)
	if ctrl == nil {
		return
	}
	main := st.Swarm.Main
	st.autoReturn = autoReturn{
		active: true,
		stage:  stageHorizontal,
		target: ctrl.Position,
		speed:  st.Tuning.Limits(main.Scale).MaxSpeed * autoReturnSpeedFactor,
	}
	main.Velocity = geom.Zero
	main.YawRate = 0
	s.event(telemetry.EventAutoReturn, main.ID, "start", 0)
}

func (s *Simulator) cancelAutoReturn() {
	st := &s.st
	if !st.autoReturn.active {
		return
	}
	st.autoReturn = autoReturn{}
	st.Swarm.Main.BasePosition = st.Swarm.Main.Position
	s.event(telemetry.EventAutoReturn, st.Swarm.Main.ID, "cancel", 0)
}

// stepAutoReturn flies horizontally, then vertically, then turns to face
// the same way as the viewer.
func (s *Simulator) stepAutoReturn() {
	st := &s.st
	ar := &st.autoReturn
	if !ar.active || !st.Positioned {
		return
	}
	main := st.Swarm.Main
	switch ar.stage {
	case stageHorizontal:
		dir := geom.V(ar.target.X-main.Position.X, 0, ar.target.Z-main.Position.Z)
		dist := r3.Norm(dir)
		if dist < autoReturnReach {
			ar.stage = stageVertical
			break
		}
		step := math.Min(ar.speed, dist)
		main.Position = r3.Add(main.Position, r3.Scale(step/dist, dir))
		turnToward(main, math.Atan2(dir.X, dir.Z))
	case stageVertical:
		dy := ar.target.Y - main.Position.Y
		if math.Abs(dy) < autoReturnReach {
			ar.stage = stageRotation
			break
		}
		main.Position.Y += math.Copysign(math.Min(ar.speed, math.Abs(dy)), dy)
	case stageRotation:
		yaw, ok := cameraYaw(s.input.CameraPose())
		if !ok {
			break
		}
		e := geom.ToEuler(main.Rotation)
		if math.Abs(geom.WrapAngle(yaw-e.Y)) < autoReturnReach {
			e.Y = yaw
			main.Rotation = geom.FromEuler(e)
			main.Velocity = geom.Zero
			main.YawRate = 0
			st.autoReturn = autoReturn{}
			s.event(telemetry.EventAutoReturn, main.ID, "complete", 0)
		} else {
			turnToward(main, yaw)
		}
	}
	main.BasePosition = main.Position
}

// turnToward eases the heading a tenth of the way to yaw.
func turnToward(d *drone.Drone, yaw float64) {
	e := geom.ToEuler(d.Rotation)
	e.Y += geom.WrapAngle(yaw-e.Y) * autoReturnTurn
	d.Rotation = geom.FromEuler(e)
}

// cameraYaw is the heading of the viewer's horizontal gaze.
func cameraYaw(cam *geom.Pose) (float64, bool) {
	if cam == nil {
		return 0, false
	}
	fwd := geom.Flatten(geom.Rotate(cam.Orientation, cameraForward))
	if fwd == geom.Zero {
		return 0, false
	}
	return math.Atan2(fwd.X, fwd.Z), true
}
