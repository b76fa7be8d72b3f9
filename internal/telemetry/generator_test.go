package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/geom"
)

func TestFrameMainDrone(t *testing.T) {
	gen := NewGenerator("session-1")
	d := drone.New(drone.MainIndex, geom.V(1, 2, 3), 0.3)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	pose := geom.Pose{Position: geom.V(1, 2, 3), Orientation: geom.FromYaw(math.Pi / 2)}

	row := gen.Frame(d, pose, Sample{Frame: 7, Phase: "flying", Formation: "k", Colliding: true, Speed: 1.5, At: at})

	if row.SessionID != "session-1" || row.DroneID != d.ID {
		t.Errorf("unexpected ids: %+v", row)
	}
	if row.Index != drone.MainIndex {
		t.Errorf("expected main index, got %d", row.Index)
	}
	if row.X != 1 || row.Y != 2 || row.Z != 3 {
		t.Errorf("unexpected position: %+v", row)
	}
	if math.Abs(row.Yaw-math.Pi/2) > 1e-9 || math.Abs(row.Pitch) > 1e-9 || math.Abs(row.Roll) > 1e-9 {
		t.Errorf("unexpected attitude: yaw=%f pitch=%f roll=%f", row.Yaw, row.Pitch, row.Roll)
	}
	if !row.Colliding || row.Speed != 1.5 {
		t.Errorf("main drone should carry speed and collision state: %+v", row)
	}
	if row.Frame != 7 || row.Formation != "k" || row.Phase != "flying" {
		t.Errorf("sample fields not copied: %+v", row)
	}
	if row.Timestamp.Location() != time.UTC || !row.Timestamp.Equal(at) {
		t.Errorf("expected UTC timestamp, got %v", row.Timestamp)
	}
}

func TestFrameFollowerIgnoresMainState(t *testing.T) {
	gen := NewGenerator("s")
	d := drone.New(3, geom.Zero, 0.3)
	row := gen.Frame(d, d.Pose(), Sample{Colliding: true, Speed: 2})
	if row.Colliding || row.Speed != 0 {
		t.Errorf("follower rows must not carry main drone state: %+v", row)
	}
	if row.Index != 3 {
		t.Errorf("expected index 3, got %d", row.Index)
	}
}

func TestEventRow(t *testing.T) {
	gen := NewGenerator("s")
	ev := gen.Event(EventCollision, "d1", "floor", 0.4, 12, time.Unix(0, 0))
	if ev.Type != EventCollision || ev.DroneID != "d1" || ev.Detail != "floor" || ev.Value != 0.4 || ev.Frame != 12 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.SessionID != "s" {
		t.Errorf("expected session s, got %s", ev.SessionID)
	}
}
