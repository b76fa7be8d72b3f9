package scenario

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/xr"
)

var buttonNames = map[string]int{
	"trigger": xr.ButtonTrigger,
	"grip":    xr.ButtonGrip,
	"lower":   xr.ButtonLower,
	"upper":   xr.ButtonUpper,
}

func parseButton(s string) (xr.Hand, int, bool) {
	hand, name, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, false
	}
	b, ok := buttonNames[name]
	if !ok {
		return 0, 0, false
	}
	switch hand {
	case "left":
		return xr.Left, b, true
	case "right":
		return xr.Right, b, true
	}
	return 0, 0, false
}

// Player drives a simulator from a Scenario. It is the headset (input and
// planes), the director issuing commands and a notification sink whose
// events advance the script.
type Player struct {
	sc     *Scenario
	planes []xr.Plane
	log    *slog.Logger

	mu      sync.Mutex
	current int
	entered bool
	started float64
	counts  map[string]int
	pending []string
	// last known poses persist across phases that do not set them
	right, left, camera *geom.Pose
}

// NewPlayer validates sc and starts it at its first phase.
func NewPlayer(sc *Scenario, log *slog.Logger) (*Player, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Player{sc: sc, log: log, counts: make(map[string]int)}
	for _, ps := range sc.Planes {
		p.planes = append(p.planes, ps.Plane())
	}
	p.enter(0)
	return p, nil
}

// Phase is the name of the active phase.
func (p *Player) Phase() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sc.Phases[p.current].Name
}

// Done reports whether the active phase can never be left.
func (p *Player) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ph := p.sc.Phases[p.current]
	return len(ph.Triggers) == 0 && (ph.Duration <= 0 || p.current == len(p.sc.Phases)-1)
}

func (p *Player) phase() *Phase { return &p.sc.Phases[p.current] }

func (p *Player) enter(i int) {
	p.current = i
	p.entered = false
	p.counts = make(map[string]int)
	ph := p.phase()
	in := ph.Input
	if in.Right != nil {
		pose := in.Right.Pose()
		p.right = &pose
	}
	if in.Left != nil {
		pose := in.Left.Pose()
		p.left = &pose
	}
	if in.Camera != nil {
		pose := in.Camera.Pose()
		p.camera = &pose
	}
	p.pending = append(p.pending, ph.Commands...)
	p.log.Info("scenario phase", "scenario", p.sc.Name, "phase", ph.Name)
}

// raise feeds an event to the active phase's triggers.
func (p *Player) raise(ev Event) {
	next, ok := p.sc.NextPhase(p.phase().Name, ev)
	if !ok {
		return
	}
	p.enter(p.sc.index(next))
}

// Direct returns the commands queued by phase changes. It also advances
// the clock that drives durations and time triggers.
func (p *Player) Direct(now float64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.entered {
		p.entered = true
		p.started = now
	}
	ph := p.phase()
	elapsed := now - p.started
	if ph.Duration > 0 && elapsed >= ph.Duration && p.current < len(p.sc.Phases)-1 {
		p.enter(p.current + 1)
	} else {
		p.raise(Event{Type: EventTimeElapsed, Value: int(elapsed)})
	}
	if !p.entered {
		p.entered = true
		p.started = now
	}
	cmds := p.pending
	p.pending = nil
	return cmds
}

func (p *Player) count(typ string) {
	p.counts[typ]++
	p.raise(Event{Type: typ, Value: p.counts[typ]})
}

// OnCollisionStart counts collisions in the active phase.
func (p *Player) OnCollisionStart(float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count(EventCollision)
}

// OnFormationChanged counts formation changes in the active phase.
func (p *Player) OnFormationChanged(string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count(EventFormationChanged)
}

// OnSequenceStateChanged raises the state as an event.
func (p *Player) OnSequenceStateChanged(state string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raise(Event{Type: state, Value: 1})
}

func copyPose(pose *geom.Pose) *geom.Pose {
	if pose == nil {
		return nil
	}
	c := *pose
	return &c
}

// ControllerPose reports the scripted grip pose of h.
func (p *Player) ControllerPose(h xr.Hand) *geom.Pose {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h == xr.Left {
		return copyPose(p.left)
	}
	return copyPose(p.right)
}

// HandJointPose is always untracked; scenarios use controllers.
func (p *Player) HandJointPose(xr.Hand, string) *geom.Pose { return nil }

// Gamepad reports the active phase's sticks and held buttons.
func (p *Player) Gamepad(h xr.Hand) *xr.Gamepad {
	p.mu.Lock()
	defer p.mu.Unlock()
	in := p.phase().Input
	pad := &xr.Gamepad{Buttons: make([]xr.Button, xr.ButtonUpper+1)}
	stick := in.RightStick
	if h == xr.Left {
		stick = in.LeftStick
	}
	pad.Axes[xr.AxisStickX] = stick[0]
	pad.Axes[xr.AxisStickY] = stick[1]
	for _, name := range in.Buttons {
		hand, b, ok := parseButton(name)
		if ok && hand == h {
			pad.Buttons[b] = xr.Button{Pressed: true, Value: 1}
		}
	}
	return pad
}

// CameraPose is the scripted head pose.
func (p *Player) CameraPose() *geom.Pose {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyPose(p.camera)
}

// DetectedPlanes returns the scenario's fixed surfaces.
func (p *Player) DetectedPlanes() []xr.Plane {
	return p.planes
}
