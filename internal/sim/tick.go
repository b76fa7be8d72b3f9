package sim

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/flight"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/grab"
	"github.com/BB999/drone-show/internal/logging"
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
	"github.com/BB999/drone-show/internal/xr"
)

// Run starts the simulation loop and stops when the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "session_id", s.sessionID, "frame_interval", s.frameInterval)
	s.writeHeader(ctx)
	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			log.Info("stopping simulator", "frames", s.Snapshot().Frame)
			return
		}
	}
}

// Step advances the simulation by exactly one frame.
func (s *Simulator) Step(ctx context.Context) {
	s.tick(ctx)
}

// tick runs one frame and writes its rows.
func (s *Simulator) tick(ctx context.Context) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame()

	var batch []telemetry.FrameRow
	if s.writer != nil && s.st.Positioned && s.st.Frame%int64(s.telemetryEvery) == 0 {
		batch = s.frameRows()
	}
	events := s.events
	s.events = nil

	// Batch support if writer implements WriteBatch
	if len(batch) > 0 {
		if bw, ok := s.writer.(batchWriter); ok {
			if err := bw.WriteBatch(batch); err != nil {
				log.Error("batch write failed", "err", err)
			}
		} else {
			for _, row := range batch {
				if err := s.writer.Write(row); err != nil {
					log.Error("write failed", "drone_id", row.DroneID, "err", err)
				}
			}
		}
	}

	if len(events) > 0 && s.eventWriter != nil {
		if bw, ok := s.eventWriter.(batchEventWriter); ok {
			if err := bw.WriteEvents(events); err != nil {
				log.Error("event batch write failed", "err", err)
			}
		} else {
			for _, e := range events {
				if err := s.eventWriter.WriteEvent(e); err != nil {
					log.Error("event write failed", "type", e.Type, "err", err)
				}
			}
		}
	}
}

// writeHeader records the session row and, in VR, the course layout.
func (s *Simulator) writeHeader(ctx context.Context) {
	log := logging.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sw, ok := s.writer.(SessionWriter); ok {
		row := telemetry.SessionRow{
			SessionID:  s.sessionID,
			Mode:       s.cfg.World.Mode,
			CourseSeed: s.cfg.World.CourseSeed,
			Followers:  len(s.st.Swarm.Followers),
			Scale:      s.cfg.Scale,
			StartedAt:  s.startedAt.UTC(),
			Timestamp:  s.now().UTC(),
		}
		if err := sw.WriteSession(row); err != nil {
			log.Error("session write failed", "err", err)
		}
	}
	if cw, ok := s.writer.(CourseWriter); ok && s.cfg.World.Mode == config.ModeVR {
		recs := make([]physics.ObstacleRecord, len(s.st.Obstacles))
		for i, o := range s.st.Obstacles {
			recs[i] = physics.Describe(o)
		}
		if err := cw.WriteCourse(s.cfg.World.CourseSeed, recs); err != nil {
			log.Error("course write failed", "err", err)
		}
	}
}

// frame advances the world by one fixed step.
func (s *Simulator) frame() {
	st := &s.st
	st.Frame++
	st.Time += physics.FrameSeconds

	s.direct()
	s.refreshPlanes()
	if !st.Positioned {
		s.position()
	}

	s.stepTransients()
	s.stepSequence()
	s.stepFreeFall()
	s.stepHover()
	s.stepFormation()
	s.stepGrab()
	s.stepAutoReturn()
	s.stepButtons()
	s.stepMovement()
	s.stepCollision()
	s.measure()
}

// direct applies commands from a scripted input.
func (s *Simulator) direct() {
	if s.director == nil {
		return
	}
	for _, cmd := range s.director.Direct(s.st.Time) {
		if err := s.apply(cmd); err != nil {
			s.log.Warn("command rejected", "command", cmd, "err", err)
		}
	}
}

func (s *Simulator) apply(cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return nil
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case "startup":
		return s.startup("script")
	case "shutdown":
		return s.shutdown("script")
	case "formation":
		if s.st.State.Phase != Flying {
			return ErrNotFlying
		}
		if arg == "next" {
			s.formation.Next(s.st.Swarm.Followers)
		} else if err := s.formation.Select(arg, s.st.Swarm.Followers); err != nil {
			return err
		}
		s.formationChanged()
		return nil
	case "collision":
		switch arg {
		case "on":
			s.st.CollisionEnabled = true
		case "off":
			s.st.CollisionEnabled = false
			s.st.Colliding = false
		default:
			return fmt.Errorf("collision wants on or off, got %q", arg)
		}
		return nil
	case "speed":
		level, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSpeedLevel, arg)
		}
		return s.setSpeedLevel(level)
	}
	return fmt.Errorf("unknown command %q", fields[0])
}

// refreshPlanes mirrors the currently detected planes; planes the sensor
// dropped disappear.
func (s *Simulator) refreshPlanes() {
	if s.planes == nil {
		return
	}
	detected := s.planes.DetectedPlanes()
	planes := make([]physics.Plane, len(detected))
	for i, p := range detected {
		planes[i] = physics.Plane{Plane: p}
	}
	s.st.Planes = planes
}

// position places the main drone at the right grip, facing the way the
// viewer looks. Without a grip it retries next frame.
func (s *Simulator) position() {
	ctrl := s.input.ControllerPose(xr.Right)
	if ctrl == nil {
		return
	}
	st := &s.st
	main := st.Swarm.Main
	yaw, _ := cameraYaw(s.input.CameraPose())
	main.Position = ctrl.Position
	main.BasePosition = ctrl.Position
	main.Rotation = geom.FromYaw(yaw)
	main.Stop()
	st.Positioned = true
	st.prevPos = main.Position
	st.havePrev = true
	s.log.Info("drone positioned", "x", main.Position.X, "y", main.Position.Y, "z", main.Position.Z)
}

// stepGrab polls grips and pinches. New grabs are blocked while a
// sequence runs.
func (s *Simulator) stepGrab() {
	st := &s.st
	if !st.Positioned {
		return
	}
	blocked := st.State.Phase == StartingUp || st.State.Phase == ShuttingDown
	for _, ev := range s.grab.Update(s.input, st.Swarm, blocked) {
		s.handleGrab(ev)
	}
}

func (s *Simulator) handleGrab(ev grab.Event) {
	st := &s.st
	main := st.Swarm.Main
	switch ev.Kind {
	case grab.Grabbed:
		s.cancelAutoReturn()
		if ev.Drone.IsMain() {
			st.mainReturn = nil
			main.Stop()
			if st.HasLanded {
				st.HasLanded = false
				s.setState(State{Phase: PreStartupFalling})
			}
		} else {
			delete(st.followerReturns, ev.Drone)
		}
		s.event(telemetry.EventGrab, ev.Drone.ID, ev.Mode.String(), 0)
	case grab.Released:
		d := ev.Drone
		target, _ := s.formation.Target(d.Index)
		if t := grab.AfterRelease(ev, st.State.Phase == Flying, target, s.rand); t != nil {
			if d.IsMain() {
				st.mainReturn = t
			} else {
				st.followerReturns[d] = t
			}
		}
		s.event(telemetry.EventRelease, d.ID, ev.Mode.String(), r3.Norm(ev.Velocity))
	case grab.ResizeStarted:
		s.cancelAutoReturn()
	case grab.Resized:
		for _, f := range st.Swarm.Followers {
			f.SetScale(ev.Scale)
		}
	case grab.ResizeEnded:
		s.event(telemetry.EventResize, main.ID, "", main.Scale)
	}
}

// stepButtons handles the face buttons: left upper starts up, right lower
// cycles formations and right upper toggles auto-return.
func (s *Simulator) stepButtons() {
	st := &s.st
	left, right := s.input.Gamepad(xr.Left), s.input.Gamepad(xr.Right)
	now := buttonEdges{
		leftUpper:  left.Pressed(xr.ButtonUpper),
		rightLower: right.Pressed(xr.ButtonLower),
		rightUpper: right.Pressed(xr.ButtonUpper),
	}
	was := st.buttons
	st.buttons = now

	if now.leftUpper && !was.leftUpper && s.canStart() {
		_ = s.startup("controller")
	}
	free := st.State.Phase == Flying && !s.grab.Active()
	if now.rightLower && !was.rightLower && free {
		s.formation.Next(st.Swarm.Followers)
		s.formationChanged()
	}
	if now.rightUpper && !was.rightUpper && free {
		s.toggleAutoReturn()
	}
}

// measure derives the speed and engine tone from the frame's motion.
func (s *Simulator) measure() {
	st := &s.st
	if !st.Positioned {
		return
	}
	main := st.Swarm.Main
	if st.havePrev {
		st.Speed = r3.Norm(r3.Sub(main.Position, st.prevPos)) / physics.FrameSeconds
	}
	st.prevPos = main.Position
	st.havePrev = true
	if st.Propeller >= 1 {
		st.Tone = flight.FlightTone(main.Scale, st.Speed)
	}
}

// frameRows samples every drone.
func (s *Simulator) frameRows() []telemetry.FrameRow {
	st := &s.st
	sample := telemetry.Sample{
		Frame:     st.Frame,
		Phase:     string(st.State.Phase),
		SubPhase:  string(st.State.Sub),
		Formation: s.formation.Name(),
		Colliding: st.Colliding,
		Speed:     st.Speed,
		At:        s.now(),
	}
	all := st.Swarm.All()
	rows := make([]telemetry.FrameRow, len(all))
	for i, d := range all {
		rows[i] = s.teleGen.Frame(d, st.Swarm.WorldPose(d), sample)
	}
	return rows
}

func (s *Simulator) event(typ, droneID, detail string, value float64) {
	s.events = append(s.events, s.teleGen.Event(typ, droneID, detail, value, s.st.Frame, s.now()))
}
