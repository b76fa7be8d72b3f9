package sim

import (
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

// MultiWriter fan-outs frame, event and session rows to multiple writers.
// Each optional interface is forwarded only to the writers implementing it.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write sends a frame row to all writers.
func (mw *MultiWriter) Write(row telemetry.FrameRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple frame rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.FrameRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEvent sends an event row to all event writers.
func (mw *MultiWriter) WriteEvent(row telemetry.EventRow) error {
	for _, w := range mw.writers {
		if ew, ok := w.(EventWriter); ok {
			if err := ew.WriteEvent(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEvents sends multiple events to all event writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(rows); err != nil {
				return err
			}
			continue
		}
		ew, ok := w.(EventWriter)
		if !ok {
			continue
		}
		for _, r := range rows {
			if err := ew.WriteEvent(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteSession sends the session row to all session writers.
func (mw *MultiWriter) WriteSession(row telemetry.SessionRow) error {
	for _, w := range mw.writers {
		if sw, ok := w.(SessionWriter); ok {
			if err := sw.WriteSession(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteCourse sends the obstacle layout to all course writers.
func (mw *MultiWriter) WriteCourse(seed int64, obstacles []physics.ObstacleRecord) error {
	for _, w := range mw.writers {
		if cw, ok := w.(CourseWriter); ok {
			if err := cw.WriteCourse(seed, obstacles); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetAdminStatus forwards the admin UI state.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}

// SetControls hands the simulator controls to every writer that wants them.
func (mw *MultiWriter) SetControls(c Controls) {
	for _, w := range mw.writers {
		if cr, ok := w.(ControlReceiver); ok {
			cr.SetControls(c)
		}
	}
}
