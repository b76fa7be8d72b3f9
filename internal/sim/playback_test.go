package sim

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BB999/drone-show/internal/telemetry"
)

// collectWriter records everything written to it.
type collectWriter struct {
	rows     []telemetry.FrameRow
	events   []telemetry.EventRow
	sessions []telemetry.SessionRow
}

func (c *collectWriter) Write(r telemetry.FrameRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func (c *collectWriter) WriteEvent(e telemetry.EventRow) error {
	c.events = append(c.events, e)
	return nil
}

func (c *collectWriter) WriteSession(s telemetry.SessionRow) error {
	c.sessions = append(c.sessions, s)
	return nil
}

func (c *collectWriter) eventsOf(typ string) []telemetry.EventRow {
	var out []telemetry.EventRow
	for _, e := range c.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestReplayLog(t *testing.T) {
	rows := []telemetry.FrameRow{
		{SessionID: "s1", DroneID: "d1", Timestamp: time.Unix(0, 0)},
		{SessionID: "s1", DroneID: "d2", Timestamp: time.Unix(1, 0)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	if err := ReplayLog(&buf, cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].DroneID != r.DroneID {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayLogFileRoundTripsFileWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frames.jsonl")
	fw, err := NewFileWriter(path, "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	batch := []telemetry.FrameRow{
		{DroneID: "main", Index: -1, Y: 1.5, Timestamp: time.Unix(10, 0).UTC()},
		{DroneID: "f0", Index: 0, Y: 0.2, Timestamp: time.Unix(10, 0).UTC()},
	}
	if err := fw.WriteBatch(batch); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	fw.Close()

	cw := &collectWriter{}
	if err := ReplayLogFile(path, cw, 100); err != nil {
		t.Fatalf("ReplayLogFile: %v", err)
	}
	if len(cw.rows) != 2 || cw.rows[0].Y != 1.5 || cw.rows[1].DroneID != "f0" {
		t.Fatalf("unexpected replay: %+v", cw.rows)
	}
}

func TestReplayLogFileMissing(t *testing.T) {
	if err := ReplayLogFile(filepath.Join(os.TempDir(), "no-such-frames.jsonl"), &collectWriter{}, 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestReplayRecordingInterleavesEvents(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "flight.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	defer rec.Close()
	frames := []telemetry.FrameRow{
		{SessionID: "s1", DroneID: "main", Index: -1, Frame: 1, Timestamp: time.UnixMilli(1000).UTC()},
		{SessionID: "s1", DroneID: "main", Index: -1, Frame: 2, Timestamp: time.UnixMilli(2000).UTC()},
		{SessionID: "other", DroneID: "main", Index: -1, Frame: 1, Timestamp: time.UnixMilli(1500).UTC()},
	}
	if err := rec.WriteBatch(frames); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	events := []telemetry.EventRow{
		{SessionID: "s1", Type: telemetry.EventPhase, Detail: "flying", Timestamp: time.UnixMilli(1500).UTC()},
		{SessionID: "s1", Type: telemetry.EventCollision, Timestamp: time.UnixMilli(3000).UTC()},
	}
	if err := rec.WriteEvents(events); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}

	cw := &collectWriter{}
	if err := ReplayRecording(rec, "s1", cw, 0); err != nil {
		t.Fatalf("ReplayRecording: %v", err)
	}
	if len(cw.rows) != 2 || cw.rows[1].Frame != 2 {
		t.Fatalf("unexpected frames: %+v", cw.rows)
	}
	if len(cw.events) != 2 || cw.events[0].Detail != "flying" {
		t.Fatalf("unexpected events: %+v", cw.events)
	}
}
