// Writer implementation printing human-friendly telemetry to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/BB999/drone-show/internal/config"
	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// eventColors picks a color per event type.
var eventColors = map[string]string{
	telemetry.EventPhase:      colorBlue,
	telemetry.EventCollision:  colorRed,
	telemetry.EventCrash:      colorRed,
	telemetry.EventFormation:  colorMagenta,
	telemetry.EventGrab:       colorYellow,
	telemetry.EventRelease:    colorYellow,
	telemetry.EventResize:     colorCyan,
	telemetry.EventAutoReturn: colorGreen,
}

// StdoutWriter prints the main drone and events as readable lines. Follower
// rows are skipped. Without colorize it falls back to JSON lines.
type StdoutWriter struct {
	cfg      *config.SimulationConfig
	out      io.Writer
	colorize bool
	once     sync.Once
}

// NewStdoutWriter creates a colorized StdoutWriter writing to os.Stdout.
func NewStdoutWriter(cfg *config.SimulationConfig) *StdoutWriter {
	return &StdoutWriter{cfg: cfg, out: os.Stdout, colorize: true}
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "World Mode:\t%s\n", w.cfg.World.Mode)
	fmt.Fprintf(tw, "Course Seed:\t%d\n", w.cfg.World.CourseSeed)
	fmt.Fprintf(tw, "Followers:\t%d\n", w.cfg.Layout().Count())
	fmt.Fprintf(tw, "Scale:\t%.2f\n", w.cfg.Scale)
	fmt.Fprintf(tw, "Speed Level:\t%d\n", w.cfg.Flight.SpeedLevel)
	fmt.Fprintf(tw, "Collision:\t%t\n", w.cfg.CollisionEnabled)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write prints the main drone's row.
func (w *StdoutWriter) Write(row telemetry.FrameRow) error {
	if !w.colorize {
		data, _ := json.Marshal(row)
		_, err := fmt.Fprintln(w.out, string(data))
		return err
	}
	w.once.Do(w.printOverview)
	if row.Index != drone.MainIndex {
		return nil
	}
	phase := row.Phase
	if row.SubPhase != "" {
		phase += "/" + row.SubPhase
	}
	hit := colorGreen
	if row.Colliding {
		hit = colorRed
	}
	_, err := fmt.Fprintf(w.out, "%s[%s]%s %s%-28s%s %spos=(%.2f,%.2f,%.2f)%s %syaw=%.2f%s %sspd=%.2f%s %sform=%s%s %scollide=%t%s\n",
		colorGray, row.Timestamp.Format("15:04:05.000"), colorReset,
		colorBlue, phase, colorReset,
		colorCyan, row.X, row.Y, row.Z, colorReset,
		colorYellow, row.Yaw, colorReset,
		colorMagenta, row.Speed, colorReset,
		colorGreen, row.Formation, colorReset,
		hit, row.Colliding, colorReset,
	)
	return err
}

// WriteBatch prints the main drone's row from a batch.
func (w *StdoutWriter) WriteBatch(rows []telemetry.FrameRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent prints an event line.
func (w *StdoutWriter) WriteEvent(e telemetry.EventRow) error {
	if !w.colorize {
		data, _ := json.Marshal(e)
		_, err := fmt.Fprintln(w.out, string(data))
		return err
	}
	w.once.Do(w.printOverview)
	c, ok := eventColors[e.Type]
	if !ok {
		c = colorGray
	}
	_, err := fmt.Fprintf(w.out, "%s[%s]%s %s%s%s %s value=%.3f frame=%d\n",
		colorGray, e.Timestamp.Format("15:04:05.000"), colorReset,
		c, e.Type, colorReset,
		e.Detail, e.Value, e.Frame,
	)
	return err
}
