package sim

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a main drone log line for the viewport.
type logMsg struct{ line string }

// eventMsg carries an event log line.
type eventMsg struct{ line string }

// frameMsg carries a frame row for the status panel and the map.
type frameMsg struct{ telemetry.FrameRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type setControlsMsg struct{ c Controls }

// resultMsg reports the outcome of a key command.
type resultMsg struct{ text string }

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.25
	mapMargin           = 0.1
)

// TUIWriter renders telemetry using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter. Every row feeds the map; only the
// main drone gets a log line.
func (w *TUIWriter) Write(row telemetry.FrameRow) error {
	w.program.Send(frameMsg{row})
	if row.Index != drone.MainIndex {
		return nil
	}
	hit := colorGreen
	if row.Colliding {
		hit = colorRed
	}
	phase := row.Phase
	if row.SubPhase != "" {
		phase += "/" + row.SubPhase
	}
	line := fmt.Sprintf("%s[%s]%s %s%s%s %spos=(%.2f,%.2f,%.2f)%s %syaw=%.2f%s %sspd=%.2f%s %sform=%s%s %shit=%t%s",
		colorGray, row.Timestamp.Format("15:04:05.000"), colorReset,
		colorBlue, phase, colorReset,
		colorCyan, row.X, row.Y, row.Z, colorReset,
		colorYellow, row.Yaw, colorReset,
		colorMagenta, row.Speed, colorReset,
		colorGreen, row.Formation, colorReset,
		hit, row.Colliding, colorReset,
	)
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteBatch outputs multiple frame rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.FrameRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(e telemetry.EventRow) error {
	c, ok := eventColors[e.Type]
	if !ok {
		c = colorGray
	}
	line := fmt.Sprintf("%s[%s]%s %s%s%s %s",
		colorGray, e.Timestamp.Format("15:04:05.000"), colorReset,
		c, strings.ToUpper(e.Type), colorReset, e.Detail)
	if e.DroneID != "" {
		line += fmt.Sprintf(" drone=%s", e.DroneID)
	}
	if e.Value != 0 {
		line += fmt.Sprintf(" value=%.3f", e.Value)
	}
	w.program.Send(eventMsg{line: line})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetControls lets the key bindings drive the simulator.
func (w *TUIWriter) SetControls(c Controls) {
	w.program.Send(setControlsMsg{c: c})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	table        table.Model
	vp           viewport.Model
	eventVP      viewport.Model
	logs         []string
	eventLogs    []string
	main         telemetry.FrameRow
	haveMain     bool
	positions    map[string][2]float64
	controls     Controls
	result       string
	admin        bool
	wrap         bool
	autoscroll   bool
	showMap      bool
	help         bool
	header       string
	headerHeight int
	height       int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	cols := []table.Column{
		{Title: "Config", Width: 14},
		{Title: "Value", Width: 10},
		{Title: "Config", Width: 14},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"World Mode", cfg.World.Mode, "Course Seed", fmt.Sprintf("%d", cfg.World.CourseSeed)},
		{"Followers", fmt.Sprintf("%d", cfg.Layout().Count()), "Scale", fmt.Sprintf("%.2f", cfg.Scale)},
		{"Speed Level", fmt.Sprintf("%d", cfg.Flight.SpeedLevel), "Collision", fmt.Sprintf("%t", cfg.CollisionEnabled)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		eventVP:    viewport.New(0, 0),
		positions:  make(map[string][2]float64),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

// runControl turns a key press into an asynchronous simulator call.
func (m tuiModel) runControl(key string) tea.Cmd {
	c := m.controls
	if c == nil {
		return func() tea.Msg { return resultMsg{text: "controls not attached"} }
	}
	return func() tea.Msg {
		switch key {
		case "u":
			if err := c.Startup(); err != nil {
				return resultMsg{text: "startup: " + err.Error()}
			}
			return resultMsg{text: "startup requested"}
		case "d":
			if err := c.Shutdown(); err != nil {
				return resultMsg{text: "shutdown: " + err.Error()}
			}
			return resultMsg{text: "shutdown requested"}
		case "f":
			name, err := c.NextFormation()
			if err != nil {
				return resultMsg{text: "formation: " + err.Error()}
			}
			return resultMsg{text: "formation " + name}
		case "c":
			return resultMsg{text: fmt.Sprintf("collision %t", c.ToggleCollision())}
		}
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width / 2)
		m.vp.Width = msg.Width
		m.eventVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshEvents()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "u", "d", "f", "c":
			return m, m.runControl(msg.String())
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshEvents()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.eventVP.GotoBottom()
			}
			return m, nil
		case "m":
			m.showMap = !m.showMap
			return m, nil
		case "h", "?":
			m.help = !m.help
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.eventVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.eventVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.eventVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.eventVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.eventVP, _ = m.eventVP.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendCapped(m.logs, msg.line)
		m.refreshViewport()
	case eventMsg:
		m.eventLogs = appendCapped(m.eventLogs, msg.line)
		m.updateViewportHeight()
		m.refreshEvents()
		m.refreshViewport()
	case frameMsg:
		m.positions[msg.DroneID] = [2]float64{msg.X, msg.Z}
		if msg.Index == drone.MainIndex {
			m.main = msg.FrameRow
			m.haveMain = true
			m.header = m.renderHeader()
			m.headerHeight = lipgloss.Height(m.header)
		}
	case adminMsg:
		m.admin = msg.active
	case setControlsMsg:
		m.controls = msg.c
	case resultMsg:
		m.result = msg.text
	}
	return m, nil
}

func appendCapped(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	maxLines := int(float64(m.height) * maxSectionHeightPct)
	if maxLines < 1 {
		maxLines = 1
	}
	evLines := len(m.eventLogs)
	if evLines == 0 {
		evLines = 1
	}
	if evLines > maxLines {
		evLines = maxLines
	}
	m.eventVP.Height = evLines

	h := m.height - m.headerHeight - bottomHeight - (1 + m.eventVP.Height) - 3
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.eventVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) wrapLines(lines []string, width int) string {
	if !m.wrap || width <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = wordwrap.String(l, width)
	}
	return strings.Join(out, "\n")
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.wrapLines(m.logs, m.vp.Width))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshEvents() {
	content := "none"
	if len(m.eventLogs) > 0 {
		content = m.wrapLines(m.eventLogs, m.eventVP.Width)
	}
	m.eventVP.SetContent(content)
	if m.autoscroll {
		m.eventVP.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	body := m.vp.View()
	if m.showMap {
		body = m.renderMap(m.vp.Width, m.vp.Height)
	}
	sections := []string{
		m.header,
		divider,
		body,
		divider,
		"Events:",
		m.eventVP.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), sep, m.renderStatus())
}

// renderStatus summarises the latest main drone row.
func (m tuiModel) renderStatus() string {
	if !m.haveMain {
		return "Main drone\nwaiting for controller"
	}
	r := m.main
	phase := r.Phase
	if r.SubPhase != "" {
		phase += "/" + r.SubPhase
	}
	hit := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("clear")
	if r.Colliding {
		hit = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("colliding")
	}
	lines := []string{
		"Main drone",
		fmt.Sprintf("phase     %s", phase),
		fmt.Sprintf("position  %.2f %.2f %.2f", r.X, r.Y, r.Z),
		fmt.Sprintf("yaw       %.2f", r.Yaw),
		fmt.Sprintf("speed     %.2f m/s", r.Speed),
		fmt.Sprintf("formation %s", r.Formation),
		fmt.Sprintf("contact   %s", hit),
	}
	return strings.Join(lines, "\n")
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	line := fmt.Sprintf("Admin UI %s | Wrap %s | Scroll %s | Map %s | Controls %s",
		indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.showMap), indicator(m.controls != nil))
	if m.result != "" {
		line = fmt.Sprintf("%s | %s", line, m.result)
	}
	return line
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" u  start up",
		" d  shut down",
		" f  next formation",
		" c  toggle collision",
		" w  toggle wrap",
		" s  toggle auto-scroll",
		" m  toggle top-down map",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

// renderMap plots every drone from above, X to the right and -Z up.
func (m tuiModel) renderMap(width, height int) string {
	if len(m.positions) == 0 {
		return "No position data"
	}
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, p := range m.positions {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minZ, maxZ = math.Min(minZ, p[1]), math.Max(maxZ, p[1])
	}
	spanX := math.Max(maxX-minX, 0.1)
	spanZ := math.Max(maxZ-minZ, 0.1)
	minX -= spanX * mapMargin
	minZ -= spanZ * mapMargin
	spanX *= 1 + 2*mapMargin
	spanZ *= 1 + 2*mapMargin

	grid := make([][]string, height)
	for i := range grid {
		row := make([]string, width)
		for j := range row {
			row[j] = "."
		}
		grid[i] = row
	}
	cell := func(x, z float64) (int, int) {
		col := int((x - minX) / spanX * float64(width-1))
		row := int((z - minZ) / spanZ * float64(height-1))
		return col, row
	}
	for id, p := range m.positions {
		if id == m.main.DroneID {
			continue
		}
		c, r := cell(p[0], p[1])
		grid[r][c] = "o"
	}
	if m.haveMain {
		c, r := cell(m.main.X, m.main.Z)
		sym := colorCyan + "A" + colorReset
		if m.main.Colliding {
			sym = colorRed + "A" + colorReset
		}
		grid[r][c] = sym
	}
	var b strings.Builder
	fmt.Fprintf(&b, "x %.2f..%.2f z %.2f..%.2f\n", minX, minX+spanX, minZ, minZ+spanZ)
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	b.WriteString("A=main o=follower")
	return b.String()
}
