package sim

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

func newRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "run.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorderFrames(t *testing.T) {
	r := newRecorder(t)
	ts := time.UnixMilli(1700000000123).UTC()
	rows := []telemetry.FrameRow{
		{SessionID: "s1", DroneID: "main", Index: -1, Phase: "flying", X: 1, Y: 1.5, Z: -2, Yaw: 0.3, Speed: 0.2, Scale: 0.3, Colliding: true, Formation: "k", Frame: 30, Timestamp: ts},
		{SessionID: "s1", DroneID: "f-0", Index: 0, Phase: "flying", Scale: 0.3, Formation: "k", Frame: 30, Timestamp: ts},
		{SessionID: "other", DroneID: "main", Index: -1, Timestamp: ts},
	}
	if err := r.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	got, err := r.Frames("s1")
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if diff := cmp.Diff(rows[:2], got); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteRecorderEventsAndSession(t *testing.T) {
	r := newRecorder(t)
	ts := time.UnixMilli(5000).UTC()
	events := []telemetry.EventRow{
		{SessionID: "s1", Type: telemetry.EventPhase, DroneID: "main", Detail: "starting_up/spin_up", Frame: 1, Timestamp: ts},
		{SessionID: "s1", Type: telemetry.EventCrash, DroneID: "main", Detail: "landing", Value: 1.2, Frame: 9, Timestamp: ts},
	}
	if err := r.WriteEvents(events); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	crashes, err := r.Events("s1", telemetry.EventCrash)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if diff := cmp.Diff(events[1:], crashes); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	all, err := r.Events("s1", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 events, got %d (%v)", len(all), err)
	}

	s := telemetry.SessionRow{SessionID: "s1", Mode: "vr", CourseSeed: 42, Followers: 50, Scale: 0.3, StartedAt: ts, Timestamp: ts}
	if err := r.WriteSession(s); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}
	if err := r.WriteSession(s); err != nil {
		t.Fatalf("rewriting a session should replace it: %v", err)
	}
}

func TestSQLiteRecorderCourse(t *testing.T) {
	r := newRecorder(t)
	course := physics.GenerateCourse(42)
	recs := course.Records()
	if err := r.WriteCourse(42, recs); err != nil {
		t.Fatalf("WriteCourse: %v", err)
	}
	if err := r.WriteCourse(42, recs); err != nil {
		t.Fatalf("second WriteCourse: %v", err)
	}
	got, err := r.Course(42)
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if diff := cmp.Diff(recs, got); diff != "" {
		t.Fatalf("course mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteRecorderBadPath(t *testing.T) {
	if _, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "missing", "run.db")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
