package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	return out
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	frames := filepath.Join(dir, "frames.jsonl")
	events := filepath.Join(dir, "events.jsonl")
	sessions := filepath.Join(dir, "session.jsonl")

	fw, err := NewFileWriter(frames, events, sessions)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := fw.Write(telemetry.FrameRow{SessionID: "s1", DroneID: "d1", Yaw: 0.5, Formation: "k", Timestamp: ts}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := fw.WriteEvents([]telemetry.EventRow{
		{SessionID: "s1", Type: telemetry.EventGrab, Detail: "controller", Timestamp: ts},
		{SessionID: "s1", Type: telemetry.EventRelease, Value: 0.8, Timestamp: ts},
	}); err != nil {
		t.Fatalf("write events: %v", err)
	}
	if err := fw.WriteSession(telemetry.SessionRow{SessionID: "s1", Mode: "vr", CourseSeed: 42, Timestamp: ts}); err != nil {
		t.Fatalf("write session: %v", err)
	}
	rec := physics.ObstacleRecord{Kind: "pole", Position: geom.V(1, 2, 3), Orientation: geom.Identity, Radius: 0.08}
	if err := fw.WriteCourse(42, []physics.ObstacleRecord{rec}); err != nil {
		t.Fatalf("write course: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var frame telemetry.FrameRow
	lines := readLines(t, frames)
	if len(lines) != 1 {
		t.Fatalf("expected 1 frame line, got %d", len(lines))
	}
	if err := json.Unmarshal(lines[0], &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Yaw != 0.5 || frame.Formation != "k" {
		t.Fatalf("unexpected frame: %#v", frame)
	}

	lines = readLines(t, events)
	if len(lines) != 2 {
		t.Fatalf("expected 2 event lines, got %d", len(lines))
	}
	var ev telemetry.EventRow
	if err := json.Unmarshal(lines[1], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != telemetry.EventRelease || ev.Value != 0.8 {
		t.Fatalf("unexpected event: %#v", ev)
	}

	lines = readLines(t, sessions)
	if len(lines) != 2 {
		t.Fatalf("expected session and course lines, got %d", len(lines))
	}
	var sess telemetry.SessionRow
	if err := json.Unmarshal(lines[0], &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.Mode != "vr" || sess.CourseSeed != 42 {
		t.Fatalf("unexpected session: %#v", sess)
	}
	var cl courseLine
	if err := json.Unmarshal(lines[1], &cl); err != nil {
		t.Fatalf("decode course: %v", err)
	}
	if cl.Seed != 42 || cl.Obstacle.Kind != "pole" || cl.Obstacle.Radius != 0.08 {
		t.Fatalf("unexpected course line: %#v", cl)
	}
}

func TestFileWriterOptionalLogs(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(filepath.Join(dir, "frames.jsonl"), "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteEvent(telemetry.EventRow{Type: telemetry.EventCrash}); err != nil {
		t.Fatalf("disabled event log should be a no-op: %v", err)
	}
	if err := fw.WriteSession(telemetry.SessionRow{}); err != nil {
		t.Fatalf("disabled session log should be a no-op: %v", err)
	}
}

func TestFileWriterBadPath(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFileWriter(filepath.Join(dir, "missing", "frames.jsonl"), "", ""); err == nil {
		t.Fatalf("expected error for unwritable frame path")
	}
	if _, err := NewFileWriter(filepath.Join(dir, "frames.jsonl"), filepath.Join(dir, "missing", "e.jsonl"), ""); err == nil {
		t.Fatalf("expected error for unwritable event path")
	}
}
