package scenario

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/sim"
	"github.com/BB999/drone-show/internal/xr"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// formationLog records formation changes.
type formationLog struct{ names []string }

func (l *formationLog) OnCollisionStart(float64) {}

func (l *formationLog) OnFormationChanged(name string) {
	l.names = append(l.names, name)
}

func (l *formationLog) OnSequenceStateChanged(string) {}

func TestScenarioTransition(t *testing.T) {
	s := Scenario{
		Phases: []Phase{{
			Name:     "hover",
			Triggers: []Trigger{{Event: "time_elapsed", Value: 10, Next: "land"}},
		}, {
			Name: "land",
		}},
	}

	if _, ok := s.NextPhase("hover", Event{Type: "time_elapsed", Value: 9}); ok {
		t.Fatalf("transition before the trigger value")
	}
	next, ok := s.NextPhase("hover", Event{Type: "time_elapsed", Value: 10})
	if !ok || next != "land" {
		t.Fatalf("expected transition to land, got %s", next)
	}
	if _, ok := s.NextPhase("land", Event{Type: "time_elapsed", Value: 100}); ok {
		t.Fatalf("terminal phase should not transition")
	}
}

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "basic test scenario" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if len(sc.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(sc.Phases))
	}
	if sc.Phases[0].Input.Right == nil || sc.Phases[0].Input.Right.Position[1] != 1.2 {
		t.Fatalf("unexpected right hand %+v", sc.Phases[0].Input.Right)
	}
	if got := sc.Phases[1].Commands; len(got) != 1 || got[0] != "startup" {
		t.Fatalf("unexpected commands %v", got)
	}
	if len(sc.Planes) != 1 || sc.Planes[0].ID != "table" {
		t.Fatalf("unexpected planes %+v", sc.Planes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]Scenario{
		"no phases":    {},
		"unnamed":      {Phases: []Phase{{}}},
		"duplicate":    {Phases: []Phase{{Name: "a"}, {Name: "a"}}},
		"unknown next": {Phases: []Phase{{Name: "a", Triggers: []Trigger{{Event: "collision", Value: 1, Next: "b"}}}}},
		"bad button":   {Phases: []Phase{{Name: "a", Input: Input{Buttons: []string{"right.menu"}}}}},
		"bad hand":     {Phases: []Phase{{Name: "a", Input: Input{Buttons: []string{"upper"}}}}},
	}
	for name, sc := range cases {
		if err := sc.Validate(); !errors.Is(err, ErrInvalidScenario) {
			t.Errorf("%s: expected ErrInvalidScenario, got %v", name, err)
		}
	}
}

func TestBuiltInScenarios(t *testing.T) {
	arcs := BuiltIn()
	for _, n := range []string{"demo-flight", "stick-flight", "tabletop"} {
		arc, ok := arcs[n]
		if !ok {
			t.Fatalf("scenario %s not found", n)
		}
		if arc.Description == "" {
			t.Fatalf("scenario %s missing description", n)
		}
		if err := arc.Validate(); err != nil {
			t.Fatalf("scenario %s: %v", n, err)
		}
		if last := arc.Phases[len(arc.Phases)-1].Name; last != "done" {
			t.Fatalf("scenario %s ends in %s", n, last)
		}
	}
}

func TestResolve(t *testing.T) {
	sc, err := Resolve("demo-flight")
	if err != nil || sc.Name != "Demo Flight" {
		t.Fatalf("resolve built-in: %v %+v", err, sc)
	}
	sc, err = Resolve("testdata/simple.yaml")
	if err != nil || sc.Name != "example" {
		t.Fatalf("resolve file: %v", err)
	}
}

func TestPlayerTimeTrigger(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPlayer(sc, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if cmds := p.Direct(0); len(cmds) != 0 {
		t.Fatalf("unexpected commands %v", cmds)
	}
	if cmds := p.Direct(1.5); len(cmds) != 0 || p.Phase() != "place" {
		t.Fatalf("moved on too early: %s %v", p.Phase(), cmds)
	}
	cmds := p.Direct(2)
	if p.Phase() != "fly" {
		t.Fatalf("expected fly, got %s", p.Phase())
	}
	if len(cmds) != 1 || cmds[0] != "startup" {
		t.Fatalf("expected startup, got %v", cmds)
	}
	if cmds := p.Direct(2.1); len(cmds) != 0 {
		t.Fatalf("commands repeated: %v", cmds)
	}
	if !p.Done() {
		t.Fatalf("fly has no way out")
	}

	// poses persist from the previous phase
	right := p.ControllerPose(xr.Right)
	if right == nil || right.Position.Y != 1.2 {
		t.Fatalf("unexpected right pose %+v", right)
	}
	if p.ControllerPose(xr.Left) != nil {
		t.Fatalf("left hand should be untracked")
	}
	if cam := p.CameraPose(); cam == nil || cam.Position.Y != 1.6 {
		t.Fatalf("unexpected camera %+v", cam)
	}

	rightPad := p.Gamepad(xr.Right)
	if !rightPad.Pressed(xr.ButtonTrigger) || rightPad.Pressed(xr.ButtonUpper) {
		t.Fatalf("unexpected right buttons %+v", rightPad.Buttons)
	}
	leftPad := p.Gamepad(xr.Left)
	if leftPad.Axis(xr.AxisStickY) != 0.5 || leftPad.Pressed(xr.ButtonTrigger) {
		t.Fatalf("unexpected left pad %+v", leftPad)
	}
}

func TestPlayerDuration(t *testing.T) {
	sc := &Scenario{Phases: []Phase{
		{Name: "a", Duration: 1},
		{Name: "b", Commands: []string{"formation next"}},
	}}
	p, err := NewPlayer(sc, quiet)
	if err != nil {
		t.Fatal(err)
	}
	p.Direct(10)
	p.Direct(10.5)
	if p.Phase() != "a" {
		t.Fatalf("expected a, got %s", p.Phase())
	}
	cmds := p.Direct(11)
	if p.Phase() != "b" || len(cmds) != 1 {
		t.Fatalf("expected b with one command, got %s %v", p.Phase(), cmds)
	}
}

func TestPlayerNotifications(t *testing.T) {
	sc := &Scenario{Phases: []Phase{
		{Name: "fly", Triggers: []Trigger{{Event: EventCollision, Value: 2, Next: "shapes"}}},
		{Name: "shapes", Triggers: []Trigger{{Event: EventFormationChanged, Value: 1, Next: "land"}}},
		{Name: "land", Triggers: []Trigger{{Event: "pre_startup_falling/landed", Value: 1, Next: "done"}}},
		{Name: "done"},
	}}
	p, err := NewPlayer(sc, quiet)
	if err != nil {
		t.Fatal(err)
	}
	p.OnCollisionStart(0.5)
	if p.Phase() != "fly" {
		t.Fatalf("one collision should not advance")
	}
	p.OnCollisionStart(0.8)
	if p.Phase() != "shapes" {
		t.Fatalf("expected shapes, got %s", p.Phase())
	}
	p.OnFormationChanged("ring")
	p.OnSequenceStateChanged("shutting_down/descending")
	if p.Phase() != "land" {
		t.Fatalf("expected land, got %s", p.Phase())
	}
	p.OnSequenceStateChanged("pre_startup_falling/landed")
	if p.Phase() != "done" || !p.Done() {
		t.Fatalf("expected done, got %s", p.Phase())
	}
}

func TestPlanes(t *testing.T) {
	flat := PlaneSpec{ID: "table", Position: [3]float64{0, 0.7, -0.8}, Width: 1, Depth: 0.6}.Plane()
	if flat.Orientation != xr.Horizontal || len(flat.Polygon) != 4 {
		t.Fatalf("unexpected plane %+v", flat)
	}
	if flat.Polygon[1].X != 0.5 || flat.Polygon[2].Z != 0.3 {
		t.Fatalf("unexpected polygon %+v", flat.Polygon)
	}
	wall := PlaneSpec{ID: "wall", Width: 2, Depth: 2, Vertical: true}.Plane()
	if wall.Orientation != xr.Vertical {
		t.Fatalf("expected vertical plane")
	}

	p, err := NewPlayer(&Scenario{
		Planes: []PlaneSpec{{ID: "table", Width: 1, Depth: 1}},
		Phases: []Phase{{Name: "idle"}},
	}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.DetectedPlanes(); len(got) != 1 || got[0].ID != "table" {
		t.Fatalf("unexpected planes %+v", got)
	}
}

func TestDemoFlightDrivesSimulator(t *testing.T) {
	sc, err := Resolve("demo-flight")
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPlayer(sc, quiet)
	if err != nil {
		t.Fatal(err)
	}
	changes := &formationLog{}
	s, err := sim.NewSimulator("scenario", config.Default(), p, nil, sim.WithLogger(quiet), sim.WithNotifier(changes))
	if err != nil {
		t.Fatal(err)
	}
	visited := map[string]bool{}
	for i := 0; i < 6000 && p.Phase() != "done"; i++ {
		s.Step(t.Context())
		visited[p.Phase()] = true
	}
	if p.Phase() != "done" {
		t.Fatalf("scenario stuck in %s", p.Phase())
	}
	for _, ph := range []string{"startup", "show", "encore", "land"} {
		if !visited[ph] {
			t.Errorf("phase %s never entered", ph)
		}
	}
	names := s.Formations()
	if len(changes.names) != 2 || changes.names[0] != names[1] || changes.names[1] != names[0] {
		t.Fatalf("unexpected formation changes %v", changes.names)
	}
	snap := s.Snapshot()
	if snap.Phase != sim.PreStartupFalling || snap.FormationIndex != 0 {
		t.Fatalf("unexpected final state %s formation %d", snap.Phase, snap.FormationIndex)
	}
}
