// Simulator owning the drone state and advancing it frame by frame
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/flight"
	"github.com/BB999/drone-show/internal/formation"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/grab"
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
	"github.com/BB999/drone-show/internal/xr"
)

var (
	// ErrNotFlying rejects commands that need a completed startup.
	ErrNotFlying = errors.New("drone is not flying")
	// ErrCannotStart rejects a startup while a sequence runs, the drone
	// flies, or it has not been placed yet.
	ErrCannotStart = errors.New("startup not possible in current state")
	// ErrInvalidSpeedLevel rejects a speed level outside 1..30.
	ErrInvalidSpeedLevel = errors.New("invalid speed level")
)

// Director is an optional InputSource extension that issues commands at
// the start of each frame. Commands are "startup", "shutdown",
// "formation <name|next>", "collision <on|off>" and "speed <level>".
type Director interface {
	Direct(now float64) []string
}

// Simulator orchestrates the main drone, its followers and telemetry output.
type Simulator struct {
	sessionID string
	cfg       *config.SimulationConfig
	st        SimulationState

	input     xr.InputSource
	planes    xr.PlaneSource
	director  Director
	grab      *grab.Controller
	formation *formation.Animator
	notify    Notifiers

	teleGen        *telemetry.Generator
	writer         TelemetryWriter
	eventWriter    EventWriter
	events         []telemetry.EventRow
	frameInterval  time.Duration
	telemetryEvery int
	startedAt      time.Time

	rand *rand.Rand
	now  func() time.Time
	log  *slog.Logger
	mu   sync.Mutex
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithRand replaces the random source, for deterministic runs.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rand = r }
}

// WithClock replaces the wall clock used for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithNotifier adds a notification sink.
func WithNotifier(n Notifier) Option {
	return func(s *Simulator) { s.notify = append(s.notify, n) }
}

// WithPlanes sets the detected-plane source. By default the input source
// is used when it also reports planes.
func WithPlanes(p xr.PlaneSource) Option {
	return func(s *Simulator) { s.planes = p }
}

// WithLogger sets the logger used inside frames.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// NewSimulator builds the swarm from cfg. The main drone waits,
// unpositioned, for the right controller.
func NewSimulator(sessionID string, cfg *config.SimulationConfig, in xr.InputSource, writer TelemetryWriter, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if in == nil {
		in = xr.Idle{}
	}
	s := &Simulator{
		sessionID:      sessionID,
		cfg:            cfg,
		input:          in,
		grab:           grab.NewController(),
		teleGen:        telemetry.NewGenerator(sessionID),
		writer:         writer,
		frameInterval:  cfg.FrameInterval(),
		telemetryEvery: cfg.TelemetryEveryFrames,
		rand:           rand.New(rand.NewSource(cfg.Seed)),
		now:            time.Now,
		log:            slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.planes == nil {
		if ps, ok := in.(xr.PlaneSource); ok {
			s.planes = ps
		}
	}
	if d, ok := in.(Director); ok {
		s.director = d
	}
	if n, ok := in.(Notifier); ok {
		s.notify = append(s.notify, n)
	}
	if ew, ok := writer.(EventWriter); ok {
		s.eventWriter = ew
	}
	if s.frameInterval <= 0 {
		s.frameInterval = 16 * time.Millisecond
	}
	if s.telemetryEvery <= 0 {
		s.telemetryEvery = 1
	}

	grid := cfg.Layout().Grid(s.rand)
	followers := drone.NewFollowers(grid, cfg.Scale, s.rand)
	anim, err := formation.New(drone.DefaultFormations(grid), len(followers), s.rand)
	if err != nil {
		return nil, fmt.Errorf("formations: %w", err)
	}
	s.formation = anim

	s.st = SimulationState{
		State:            State{Phase: PreStartupFalling},
		CollisionEnabled: cfg.CollisionEnabled,
		Tuning:           cfg.Flight,
		Swarm: drone.Swarm{
			Main:      drone.New(drone.MainIndex, cfg.Origin(), cfg.Scale),
			Followers: followers,
			BaseScale: cfg.Scale,
		},
		followerReturns: make(map[*drone.Drone]*grab.Transient),
	}
	if cfg.World.Mode == config.ModeVR {
		s.st.Obstacles = physics.GenerateCourse(cfg.World.CourseSeed).Obstacles
	}
	s.startedAt = s.now()
	return s, nil
}

// SessionID identifies this run in telemetry.
func (s *Simulator) SessionID() string { return s.sessionID }

// GetConfig returns the simulation configuration.
func (s *Simulator) GetConfig() *config.SimulationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Startup begins the spin-up sequence.
func (s *Simulator) Startup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startup("admin")
}

// Shutdown begins the landing sequence. Only a flying drone can shut down.
func (s *Simulator) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown("admin")
}

// SelectFormation moves the followers to the named formation.
func (s *Simulator) SelectFormation(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.State.Phase != Flying {
		return ErrNotFlying
	}
	if err := s.formation.Select(name, s.st.Swarm.Followers); err != nil {
		return err
	}
	s.formationChanged()
	return nil
}

// NextFormation advances to the following formation and returns its name.
func (s *Simulator) NextFormation() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.State.Phase != Flying {
		return "", ErrNotFlying
	}
	name := s.formation.Next(s.st.Swarm.Followers)
	s.formationChanged()
	return name, nil
}

// Formations lists the formation names in cycle order.
func (s *Simulator) Formations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formation.Names()
}

// SetCollision enables or disables the collision resolver.
func (s *Simulator) SetCollision(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.CollisionEnabled = on
	if !on {
		s.st.Colliding = false
	}
}

// ToggleCollision flips collision handling and returns the new state.
func (s *Simulator) ToggleCollision() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.CollisionEnabled = !s.st.CollisionEnabled
	if !s.st.CollisionEnabled {
		s.st.Colliding = false
	}
	return s.st.CollisionEnabled
}

// SetSpeedLevel changes the flight speed level.
func (s *Simulator) SetSpeedLevel(level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setSpeedLevel(level)
}

func (s *Simulator) setSpeedLevel(level int) error {
	if level < flight.MinSpeedLevel || level > flight.MaxSpeedLevel {
		return fmt.Errorf("%w: %d", ErrInvalidSpeedLevel, level)
	}
	s.st.Tuning.SpeedLevel = level
	return nil
}

// Course describes the VR obstacles, or nil in mixed reality.
func (s *Simulator) Course() []physics.ObstacleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.st.Obstacles) == 0 {
		return nil
	}
	out := make([]physics.ObstacleRecord, len(s.st.Obstacles))
	for i, o := range s.st.Obstacles {
		out[i] = physics.Describe(o)
	}
	return out
}

// DronePose is one drone's world pose in a snapshot.
type DronePose struct {
	ID          string    `json:"id"`
	Index       int       `json:"index"`
	Position    geom.Vec  `json:"position"`
	Orientation geom.Quat `json:"orientation"`
	Scale       float64   `json:"scale"`
}

// Snapshot is the read-only view handed to renderers and the admin API.
type Snapshot struct {
	SessionID          string      `json:"session_id"`
	Frame              int64       `json:"frame"`
	Time               float64     `json:"time"`
	Phase              Phase       `json:"phase"`
	SubPhase           SubPhase    `json:"sub_phase"`
	Main               DronePose   `json:"main"`
	Followers          []DronePose `json:"followers"`
	Colliding          bool        `json:"colliding"`
	FormationIndex     int         `json:"formation_index"`
	Formation          string      `json:"formation"`
	FormationAnimating bool        `json:"formation_animating"`
	Speed              float64     `json:"speed"`
	Propeller          float64     `json:"propeller"`
	Tone               flight.Tone `json:"tone"`
	Grab               string      `json:"grab"`
	AutoReturn         bool        `json:"auto_return"`
	CollisionEnabled   bool        `json:"collision_enabled"`
	SpeedLevel         int         `json:"speed_level"`
	Positioned         bool        `json:"positioned"`
	HasLanded          bool        `json:"has_landed"`
}

// Snapshot returns the current state.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Simulator) snapshot() Snapshot {
	st := &s.st
	sw := st.Swarm
	snap := Snapshot{
		SessionID:          s.sessionID,
		Frame:              st.Frame,
		Time:               st.Time,
		Phase:              st.State.Phase,
		SubPhase:           st.State.Sub,
		Main:               dronePose(sw.Main, sw.WorldPose(sw.Main)),
		Followers:          make([]DronePose, len(sw.Followers)),
		Colliding:          st.Colliding,
		FormationIndex:     s.formation.Index(),
		Formation:          s.formation.Name(),
		FormationAnimating: s.formation.Animating(),
		Speed:              st.Speed,
		Propeller:          st.Propeller,
		Tone:               st.Tone,
		Grab:               s.grab.Mode().String(),
		AutoReturn:         st.autoReturn.active,
		CollisionEnabled:   st.CollisionEnabled,
		SpeedLevel:         st.Tuning.SpeedLevel,
		Positioned:         st.Positioned,
		HasLanded:          st.HasLanded,
	}
	for i, f := range sw.Followers {
		snap.Followers[i] = dronePose(f, sw.WorldPose(f))
	}
	return snap
}

func dronePose(d *drone.Drone, p geom.Pose) DronePose {
	return DronePose{
		ID:          d.ID,
		Index:       d.Index,
		Position:    p.Position,
		Orientation: p.Orientation,
		Scale:       d.Scale,
	}
}
