package sim

import (
	"math"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/flight"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/grab"
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
	"github.com/BB999/drone-show/internal/xr"
)

// setState switches phase, restarts the phase clock and notifies.
func (s *Simulator) setState(next State) {
	if s.st.State == next {
		return
	}
	s.st.State = next
	s.st.PhaseFrame = s.st.Frame
	s.log.Info("sequence state", "state", next.String(), "frame", s.st.Frame)
	s.event(telemetry.EventPhase, s.st.Swarm.Main.ID, next.String(), 0)
	s.notify.OnSequenceStateChanged(next.String())
}

// phaseElapsed is the simulated time spent in the current sub-phase.
func (s *Simulator) phaseElapsed() float64 {
	return float64(s.st.Frame-s.st.PhaseFrame) * physics.FrameSeconds
}

func (s *Simulator) canStart() bool {
	return s.st.Positioned && s.st.State.Phase == PreStartupFalling
}

func (s *Simulator) startup(source string) error {
	if !s.canStart() {
		return ErrCannotStart
	}
	main := s.st.Swarm.Main
	main.FallVelocity = geom.Zero
	main.AngularVelocity = geom.Zero
	s.st.HasLanded = false
	s.st.Propeller = 0
	s.st.lift = lift{}
	s.log.Info("startup requested", "source", source)
	s.setState(State{Phase: StartingUp, Sub: SubSpinUp})
	return nil
}

func (s *Simulator) shutdown(source string) error {
	if s.st.State.Phase != Flying {
		return ErrNotFlying
	}
	s.cancelAutoReturn()
	if held := s.grab.Holding(); held != nil {
		s.grab.Cancel()
		if !held.IsMain() {
			s.returnFollower(held)
		}
	}
	s.st.mainReturn = nil
	s.st.descent = descent{}
	s.log.Info("shutdown requested", "source", source)
	s.setState(State{Phase: ShuttingDown, Sub: SubDescending})
	return nil
}

// stepSequence runs the timed parts of startup and shutdown.
func (s *Simulator) stepSequence() {
	st := &s.st
	main := st.Swarm.Main
	switch st.State {
	case State{Phase: StartingUp, Sub: SubSpinUp}:
		p := ramp(s.phaseElapsed() / SpinUpSeconds)
		st.Propeller = p
		st.Tone = flight.SpinTone(main.Scale, p)
		if p >= 1 {
			s.setState(State{Phase: StartingUp, Sub: SubHold})
		}
	case State{Phase: StartingUp, Sub: SubHold}:
		if s.phaseElapsed() >= HoldSeconds-1e-9 {
			s.setState(State{Phase: StartingUp, Sub: SubLifting})
		}
	case State{Phase: StartingUp, Sub: SubLifting}:
		if !st.lift.targeted {
			s.captureLiftTarget()
		}
	case State{Phase: ShuttingDown, Sub: SubDecelerating}:
		p := ramp(s.phaseElapsed() / DecelerateSeconds)
		st.Propeller = 1 - p
		st.Tone = flight.SpinTone(main.Scale, st.Propeller)
		s.levelSwarm(decelTilt)
		if p >= 1 {
			s.land()
		}
	}
}

// ramp clamps progress to [0, 1], absorbing float drift at the end.
func ramp(p float64) float64 {
	if p >= 1-1e-9 {
		return 1
	}
	return math.Max(p, 0)
}

// captureLiftTarget picks the climb height from the right grip: just above
// the drone when the hand is lower, else the hand height.
func (s *Simulator) captureLiftTarget() {
	ctrl := s.input.ControllerPose(xr.Right)
	if ctrl == nil {
		return
	}
	main := s.st.Swarm.Main
	target := ctrl.Position.Y
	if main.Position.Y >= ctrl.Position.Y {
		target = main.Position.Y + liftMargin
	}
	main.BasePosition = main.Position
	s.st.lift.targeted = true
	s.st.lift.target = target
	s.log.Info("lift target", "y", target)
}

func (s *Simulator) completeStartup() {
	main := s.st.Swarm.Main
	main.BasePosition = main.Position
	s.st.Propeller = 1
	s.st.HoverTime = 0
	s.setState(State{Phase: Flying})
}

func (s *Simulator) beginDeceleration(landingHeight float64) {
	s.st.descent.landingHeight = landingHeight
	s.setState(State{Phase: ShuttingDown, Sub: SubDecelerating})
}

func (s *Simulator) land() {
	st := &s.st
	st.Propeller = 0
	st.Tone = flight.Tone{}
	st.HasLanded = true
	st.Swarm.Main.Stop()
	s.setState(State{Phase: PreStartupFalling, Sub: SubLanded})
}

// levelSwarm decays tilt on every drone not held by a hand.
func (s *Simulator) levelSwarm(k float64) {
	for _, d := range s.st.Swarm.All() {
		if s.grab.Holds(d) {
			continue
		}
		d.Tilt.X -= d.Tilt.X * k
		d.Tilt.Z -= d.Tilt.Z * k
		flight.Level(d, k)
	}
}

// stepFreeFall drops an unpowered, released drone.
func (s *Simulator) stepFreeFall() {
	st := &s.st
	main := st.Swarm.Main
	if !st.Positioned || st.State.Phase != PreStartupFalling || st.HasLanded || st.Propeller != 0 {
		return
	}
	if s.grab.Holds(main) || st.autoReturn.active {
		return
	}
	f := physics.FreeFall(main, st.Planes, s.rand, st.Colliding)
	st.Colliding = f.Latch(st.Colliding)
	if f.Crash {
		s.event(telemetry.EventCrash, main.ID, "landing", f.Impact)
		s.notify.OnCollisionStart(f.Haptic())
	}
}

// stepHover applies the idle oscillation to a flying drone.
func (s *Simulator) stepHover() {
	st := &s.st
	main := st.Swarm.Main
	if st.State.Phase != Flying || s.grab.Holds(main) || st.mainReturn != nil || st.autoReturn.active {
		return
	}
	st.HoverTime += physics.FrameSeconds
	flight.ApplyHover(main, st.HoverTime)
}

// stepMovement feeds stick input, or the synthesized climb of a
// sequence, into the integrator.
func (s *Simulator) stepMovement() {
	st := &s.st
	main := st.Swarm.Main
	if !st.Positioned || s.grab.Holds(main) || s.grab.Mode() == grab.Resize || st.mainReturn != nil || st.autoReturn.active {
		return
	}
	var in flight.Sticks
	mode := flight.Manual
	holdY := 0.0
	switch st.State {
	case State{Phase: Flying}:
		in = flight.ReadSticks(s.input.Gamepad(xr.Left), s.input.Gamepad(xr.Right), st.Tuning.Deadzone)
	case State{Phase: StartingUp, Sub: SubLifting}:
		if !st.lift.targeted {
			return
		}
		y := main.BasePosition.Y
		stuck := st.CollisionEnabled && st.lift.stuck.check(y, st.Time)
		if stuck || math.Abs(st.lift.target-y) <= arriveTolerance {
			s.completeStartup()
			return
		}
		in.Vertical = flight.ClimbInput(st.lift.target - y)
		mode = flight.Climbing
	case State{Phase: ShuttingDown, Sub: SubDescending}:
		st.Propeller = 1
		s.levelSwarm(descentTilt)
		y := main.BasePosition.Y
		if st.CollisionEnabled && st.descent.stuck.check(y, st.Time) {
			main.Velocity = geom.Zero
			main.BasePosition = main.Position
			s.beginDeceleration(main.Position.Y)
			return
		}
		if y <= arriveTolerance {
			s.beginDeceleration(physics.FloorHeight)
			return
		}
		in.Vertical = flight.ClimbInput(physics.FloorHeight - y)
		mode = flight.Climbing
	case State{Phase: ShuttingDown, Sub: SubDecelerating}:
		mode = flight.Holding
		holdY = st.descent.landingHeight
	default:
		return
	}
	flight.Integrate(main, in, st.Tuning.Limits(main.Scale), st.Tuning, mode, holdY)
}

// stepCollision resolves penetrations of the main drone. Free fall
// handles its own contacts.
func (s *Simulator) stepCollision() {
	st := &s.st
	main := st.Swarm.Main
	if !st.Positioned || !st.CollisionEnabled {
		return
	}
	if st.State.Phase == PreStartupFalling && !s.grab.Holds(main) {
		return
	}
	res := physics.Resolve(main, physics.Colliders(st.Planes, st.Obstacles), st.Colliding)
	st.Colliding = res.Colliding
	if res.Started {
		detail := ""
		if len(res.Kinds) > 0 {
			detail = res.Kinds[0]
		}
		s.event(telemetry.EventCollision, main.ID, detail, res.Depth)
		s.notify.OnCollisionStart(res.Haptic())
	}
}

// returnFollower sends a follower back to its slot in the current formation.
func (s *Simulator) returnFollower(d *drone.Drone) {
	target, ok := s.formation.Target(d.Index)
	if !ok {
		return
	}
	s.st.followerReturns[d] = grab.ReturnFollowerToFormation(d, target)
}

// stepTransients advances the post-release animations.
func (s *Simulator) stepTransients() {
	st := &s.st
	if t := st.mainReturn; t != nil && t.Step() {
		st.mainReturn = nil
		st.Swarm.Main.Tilt = drone.Tilt{}
	}
	for d, t := range st.followerReturns {
		if target, ok := s.formation.Target(d.Index); ok {
			t.Retarget(target)
		}
		if t.Step() {
			delete(st.followerReturns, d)
			if d.Flight != nil {
				d.Flight.HasArrived = !s.formation.Animating()
			}
		}
	}
}

// stepFormation moves the followers that are not held or returning.
func (s *Simulator) stepFormation() {
	st := &s.st
	skip := func(d *drone.Drone) bool {
		return s.grab.Holds(d) || st.followerReturns[d] != nil
	}
	if s.formation.Step(st.Time, st.Swarm.Followers, skip) {
		s.log.Info("formation reached", "formation", s.formation.Name())
	}
}

func (s *Simulator) formationChanged() {
	name := s.formation.Name()
	s.log.Info("formation changed", "formation", name)
	s.event(telemetry.EventFormation, "", name, float64(s.formation.Index()))
	s.notify.OnFormationChanged(name)
}
