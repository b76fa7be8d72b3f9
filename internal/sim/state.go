package sim

import (
	"math"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/flight"
	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/grab"
	"github.com/BB999/drone-show/internal/physics"
)

// Phase is the top-level lifecycle state of the main drone.
type Phase string

const (
	PreStartupFalling Phase = "pre_startup_falling"
	StartingUp        Phase = "starting_up"
	Flying            Phase = "flying"
	ShuttingDown      Phase = "shutting_down"
)

// SubPhase refines StartingUp and ShuttingDown. Landed marks the idle
// phase after a completed shutdown.
type SubPhase string

const (
	SubNone         SubPhase = ""
	SubSpinUp       SubPhase = "spinup"
	SubHold         SubPhase = "hold"
	SubLifting      SubPhase = "lifting"
	SubDescending   SubPhase = "descending"
	SubDecelerating SubPhase = "decelerating"
	SubLanded       SubPhase = "landed"
)

// State is the phase and sub-phase pair.
type State struct {
	Phase Phase    `json:"phase"`
	Sub   SubPhase `json:"sub_phase,omitempty"`
}

func (s State) String() string {
	if s.Sub == SubNone {
		return string(s.Phase)
	}
	return string(s.Phase) + "/" + string(s.Sub)
}

// Sequence timings in simulated seconds.
const (
	SpinUpSeconds     = 2.0
	HoldSeconds       = 0.5
	DecelerateSeconds = 2.0
	StuckSeconds      = 0.5

	stuckDelta      = 0.005
	liftMargin      = 0.10
	arriveTolerance = 0.02
	descentTilt     = 0.1
	decelTilt       = 0.15
)

// stuckDetector reports a vertical move that has made no progress.
type stuckDetector struct {
	armed bool
	lastY float64
	since float64
}

func (k *stuckDetector) reset() { *k = stuckDetector{} }

func (k *stuckDetector) check(y, now float64) bool {
	if !k.armed || math.Abs(y-k.lastY) >= stuckDelta {
		k.armed = true
		k.lastY = y
		k.since = now
		return false
	}
	return now-k.since > StuckSeconds
}

// lift tracks the startup climb.
type lift struct {
	targeted bool
	target   float64
	stuck    stuckDetector
}

// descent tracks the shutdown sequence.
type descent struct {
	landingHeight float64
	stuck         stuckDetector
}

// autoReturn flies the main drone back to the right controller.
type autoReturn struct {
	active bool
	stage  string
	target geom.Vec
	speed  float64
}

// Auto-return stages.
const (
	stageHorizontal = "horizontal"
	stageVertical   = "vertical"
	stageRotation   = "rotation"
)

// buttonEdges remembers last frame's button states.
type buttonEdges struct {
	leftUpper  bool
	rightLower bool
	rightUpper bool
}

// SimulationState is everything the frame loop mutates.
type SimulationState struct {
	Frame int64
	Time  float64

	State      State
	PhaseFrame int64
	Propeller  float64
	HasLanded  bool
	Positioned bool
	Colliding  bool

	CollisionEnabled bool
	Tuning           flight.Tuning

	Swarm     drone.Swarm
	Planes    []physics.Plane
	Obstacles []physics.Collider

	HoverTime float64
	Speed     float64
	Tone      flight.Tone

	lift       lift
	descent    descent
	autoReturn autoReturn
	buttons    buttonEdges
	prevPos    geom.Vec
	havePrev   bool

	mainReturn      *grab.Transient
	followerReturns map[*drone.Drone]*grab.Transient
}
