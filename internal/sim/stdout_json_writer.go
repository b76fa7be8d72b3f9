package sim

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

// JSONStdoutWriter prints one JSON document per line: frames, events, the
// session header and course obstacles. Frame lines decode as
// telemetry.FrameRow, so the output can be fed to ReplayLog.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return newJSONWriter(os.Stdout)
}

func newJSONWriter(out io.Writer) *JSONStdoutWriter {
	return &JSONStdoutWriter{enc: json.NewEncoder(out)}
}

func (w *JSONStdoutWriter) emit(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// Write outputs a frame row.
func (w *JSONStdoutWriter) Write(row telemetry.FrameRow) error {
	return w.emit(row)
}

// WriteBatch outputs frame rows in order.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.FrameRow) error {
	for _, r := range rows {
		if err := w.emit(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent outputs an event.
func (w *JSONStdoutWriter) WriteEvent(e telemetry.EventRow) error {
	return w.emit(e)
}

// WriteSession outputs the session row.
func (w *JSONStdoutWriter) WriteSession(row telemetry.SessionRow) error {
	return w.emit(row)
}

// WriteCourse outputs one line per obstacle, tagged with the seed.
func (w *JSONStdoutWriter) WriteCourse(seed int64, obstacles []physics.ObstacleRecord) error {
	for _, o := range obstacles {
		if err := w.emit(courseLine{Seed: seed, Obstacle: o}); err != nil {
			return err
		}
	}
	return nil
}
