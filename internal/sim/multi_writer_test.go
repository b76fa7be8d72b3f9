package sim

import (
	"errors"
	"testing"

	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

// frameOnlyWriter implements only the base interface.
type frameOnlyWriter struct{ rows int }

func (f *frameOnlyWriter) Write(telemetry.FrameRow) error {
	f.rows++
	return nil
}

type failingWriter struct{}

func (failingWriter) Write(telemetry.FrameRow) error { return errors.New("boom") }

type stubControlWriter struct {
	frameOnlyWriter
	controls Controls
	admin    bool
	course   int
}

func (s *stubControlWriter) SetControls(c Controls) { s.controls = c }
func (s *stubControlWriter) SetAdminStatus(on bool) { s.admin = on }
func (s *stubControlWriter) WriteCourse(_ int64, obs []physics.ObstacleRecord) error {
	s.course = len(obs)
	return nil
}

func TestMultiWriterFanOut(t *testing.T) {
	plain := &frameOnlyWriter{}
	full := &collectWriter{}
	mw := NewMultiWriter(plain, full)

	rows := []telemetry.FrameRow{{DroneID: "a"}, {DroneID: "b"}}
	if err := mw.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if plain.rows != 2 || len(full.rows) != 2 {
		t.Fatalf("rows not fanned out: plain=%d full=%d", plain.rows, len(full.rows))
	}
	if err := mw.WriteEvents([]telemetry.EventRow{{Type: telemetry.EventGrab}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := mw.WriteSession(telemetry.SessionRow{SessionID: "s"}); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}
	if len(full.events) != 1 || len(full.sessions) != 1 {
		t.Fatalf("optional rows not forwarded: %+v", full)
	}
}

func TestMultiWriterStopsOnError(t *testing.T) {
	after := &frameOnlyWriter{}
	mw := NewMultiWriter(failingWriter{}, after)
	if err := mw.Write(telemetry.FrameRow{}); err == nil {
		t.Fatalf("expected error")
	}
	if after.rows != 0 {
		t.Fatalf("writer after the failure should not be called")
	}
}

func TestMultiWriterForwardsHooks(t *testing.T) {
	s := &stubControlWriter{}
	mw := NewMultiWriter(&frameOnlyWriter{}, s)
	sim := newTestSim(t)
	mw.SetControls(sim)
	if s.controls == nil {
		t.Fatalf("controls not forwarded")
	}
	mw.SetAdminStatus(true)
	if !s.admin {
		t.Fatalf("admin status not forwarded")
	}
	if err := mw.WriteCourse(1, make([]physics.ObstacleRecord, 3)); err != nil {
		t.Fatalf("WriteCourse: %v", err)
	}
	if s.course != 3 {
		t.Fatalf("course not forwarded")
	}
}
