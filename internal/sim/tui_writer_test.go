package sim

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

type fakeControls struct {
	started   int
	collision bool
}

func (f *fakeControls) Startup() error                 { f.started++; return nil }
func (f *fakeControls) Shutdown() error                { return ErrNotFlying }
func (f *fakeControls) NextFormation() (string, error) { return "cube", nil }
func (f *fakeControls) ToggleCollision() bool {
	f.collision = !f.collision
	return f.collision
}

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p}
	row := telemetry.FrameRow{DroneID: "main", Index: drone.MainIndex, Phase: "flying", Timestamp: time.Unix(0, 0).UTC()}
	if err := w.Write(row); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := p.msgs[0].(frameMsg); !ok {
		t.Fatalf("expected frameMsg, got %T", p.msgs[0])
	}
	if _, ok := p.msgs[1].(logMsg); !ok {
		t.Fatalf("expected logMsg, got %T", p.msgs[1])
	}
	if err := w.Write(telemetry.FrameRow{DroneID: "f-1", Index: 1}); err != nil {
		t.Fatalf("write follower: %v", err)
	}
	if len(p.msgs) != 3 {
		t.Fatalf("follower rows should only feed the map, got %d msgs", len(p.msgs))
	}
	if err := w.WriteEvent(telemetry.EventRow{Type: telemetry.EventCollision, Detail: "wall", Value: 0.02}); err != nil {
		t.Fatalf("event: %v", err)
	}
	ev, ok := p.msgs[3].(eventMsg)
	if !ok || !strings.Contains(ev.line, "COLLISION") {
		t.Fatalf("expected collision eventMsg, got %#v", p.msgs[3])
	}
	w.SetAdminStatus(true)
	if _, ok := p.msgs[4].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[4])
	}
	w.SetControls(&fakeControls{})
	if _, ok := p.msgs[5].(setControlsMsg); !ok {
		t.Fatalf("expected setControlsMsg, got %T", p.msgs[5])
	}
}

func TestWrapToggle(t *testing.T) {
	m := newTUIModel(config.Default())
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 40})
	m = mi.(tuiModel)
	long := "one two three four five six"
	mi, _ = m.Update(logMsg{line: long})
	m = mi.(tuiModel)
	lines := strings.Split(m.vp.View(), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[1]) != "" {
		t.Fatalf("expected single line before wrap")
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	m = mi.(tuiModel)
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
	lines = strings.Split(m.vp.View(), "\n")
	if strings.TrimSpace(lines[1]) == "" {
		t.Fatalf("expected wrapped content on second line")
	}
}

func TestScrollToggle(t *testing.T) {
	m := newTUIModel(nil)
	m.vp.Height = 1
	m.vp.Width = 20
	mi, _ := m.Update(logMsg{line: "l1"})
	m = mi.(tuiModel)
	mi, _ = m.Update(logMsg{line: "l2"})
	m = mi.(tuiModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = mi.(tuiModel)
	if m.autoscroll {
		t.Fatalf("autoscroll should be off")
	}
	mi, _ = m.Update(logMsg{line: "l3"})
	m = mi.(tuiModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = mi.(tuiModel)
	if m.vp.YOffset != 0 {
		t.Fatalf("expected YOffset 0 after scrolling up, got %d", m.vp.YOffset)
	}
}

func TestControlKeys(t *testing.T) {
	m := newTUIModel(nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
	if got := cmd().(resultMsg).text; got != "controls not attached" {
		t.Fatalf("unexpected result without controls: %q", got)
	}

	fc := &fakeControls{}
	mi, _ := m.Update(setControlsMsg{c: fc})
	m = mi.(tuiModel)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
	if got := cmd().(resultMsg).text; got != "startup requested" || fc.started != 1 {
		t.Fatalf("startup key: %q started=%d", got, fc.started)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	res := cmd().(resultMsg)
	if !strings.Contains(res.text, ErrNotFlying.Error()) {
		t.Fatalf("shutdown key should surface the error: %q", res.text)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	if got := cmd().(resultMsg).text; got != "formation cube" {
		t.Fatalf("formation key: %q", got)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	mi, _ = m.Update(cmd())
	m = mi.(tuiModel)
	if !strings.Contains(m.renderBottom(), "collision true") {
		t.Fatalf("result not shown in footer: %q", m.renderBottom())
	}
}

func TestRenderMap(t *testing.T) {
	m := newTUIModel(nil)
	if got := m.renderMap(10, 5); got != "No position data" {
		t.Fatalf("unexpected empty map: %q", got)
	}
	for _, r := range []telemetry.FrameRow{
		{DroneID: "main", Index: drone.MainIndex, X: 0, Z: 0},
		{DroneID: "f-0", Index: 0, X: 1, Z: -1},
	} {
		mi, _ := m.Update(frameMsg{r})
		m = mi.(tuiModel)
	}
	lines := strings.Split(m.renderMap(10, 5), "\n")
	out := strings.Join(lines[1:len(lines)-1], "\n")
	if !strings.Contains(out, "A") || !strings.Contains(out, "o") {
		t.Fatalf("expected both drones on the map:\n%s", out)
	}
	if !strings.Contains(m.header, "Main drone") || !strings.Contains(m.header, "phase") {
		t.Fatalf("status panel not rendered: %q", m.header)
	}
}
