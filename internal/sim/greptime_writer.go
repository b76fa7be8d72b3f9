package sim

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

const (
	defaultGreptimePort = 4001
	greptimeTimeout     = 5 * time.Second
)

// greptimeClient is the part of the ingester client the writer needs.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes frames, events and session headers to GreptimeDB
// via the ingester client.
type GreptimeDBWriter struct {
	client       greptimeClient
	frameTable   string
	eventTable   string
	sessionTable string
	courseTable  string
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
// Tables are created on first write.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port := endpoint, defaultGreptimePort
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime endpoint %q: %w", endpoint, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:       client,
		frameTable:   telemetry.FrameRow{}.TableName(),
		eventTable:   telemetry.EventRow{}.TableName(),
		sessionTable: telemetry.SessionRow{}.TableName(),
		courseTable:  "drone_course",
	}, nil
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeDBWriter] write to %s failed: %v", name, err)
		return err
	}
	log.Printf("[GreptimeDBWriter] wrote %d rows to %s", n, name)
	return nil
}

// Write inserts a single frame row.
func (w *GreptimeDBWriter) Write(row telemetry.FrameRow) error {
	return w.WriteBatch([]telemetry.FrameRow{row})
}

// WriteBatch inserts multiple frame rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.FrameRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.frameTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddTagColumn("drone_id", types.STRING)
	tbl.AddFieldColumn("idx", types.INT64)
	tbl.AddFieldColumn("phase", types.STRING)
	tbl.AddFieldColumn("sub_phase", types.STRING)
	tbl.AddFieldColumn("x", types.FLOAT64)
	tbl.AddFieldColumn("y", types.FLOAT64)
	tbl.AddFieldColumn("z", types.FLOAT64)
	tbl.AddFieldColumn("yaw", types.FLOAT64)
	tbl.AddFieldColumn("pitch", types.FLOAT64)
	tbl.AddFieldColumn("roll", types.FLOAT64)
	tbl.AddFieldColumn("speed", types.FLOAT64)
	tbl.AddFieldColumn("scale", types.FLOAT64)
	tbl.AddFieldColumn("colliding", types.BOOLEAN)
	tbl.AddFieldColumn("formation", types.STRING)
	tbl.AddFieldColumn("frame", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		err := tbl.AddRow(r.SessionID, r.DroneID, int64(r.Index), r.Phase, r.SubPhase,
			r.X, r.Y, r.Z, r.Yaw, r.Pitch, r.Roll, r.Speed, r.Scale,
			r.Colliding, r.Formation, r.Frame, r.Timestamp)
		if err != nil {
			return err
		}
	}
	return w.write(w.frameTable, tbl, len(rows))
}

// WriteEvent inserts a single event.
func (w *GreptimeDBWriter) WriteEvent(e telemetry.EventRow) error {
	return w.WriteEvents([]telemetry.EventRow{e})
}

// WriteEvents inserts multiple events.
func (w *GreptimeDBWriter) WriteEvents(rows []telemetry.EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddTagColumn("type", types.STRING)
	tbl.AddFieldColumn("drone_id", types.STRING)
	tbl.AddFieldColumn("detail", types.STRING)
	tbl.AddFieldColumn("value", types.FLOAT64)
	tbl.AddFieldColumn("frame", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.SessionID, r.Type, r.DroneID, r.Detail, r.Value, r.Frame, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.eventTable, tbl, len(rows))
}

// WriteSession inserts the session header.
func (w *GreptimeDBWriter) WriteSession(s telemetry.SessionRow) error {
	tbl, err := table.New(w.sessionTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddFieldColumn("mode", types.STRING)
	tbl.AddFieldColumn("course_seed", types.INT64)
	tbl.AddFieldColumn("followers", types.INT64)
	tbl.AddFieldColumn("scale", types.FLOAT64)
	tbl.AddFieldColumn("started_at", types.TIMESTAMP_MILLISECOND)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(s.SessionID, s.Mode, s.CourseSeed, int64(s.Followers), s.Scale, s.StartedAt, s.Timestamp); err != nil {
		return err
	}
	return w.write(w.sessionTable, tbl, 1)
}

// WriteCourse inserts one row per obstacle, all stamped with the same time.
func (w *GreptimeDBWriter) WriteCourse(seed int64, obstacles []physics.ObstacleRecord) error {
	if len(obstacles) == 0 {
		return nil
	}
	tbl, err := table.New(w.courseTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("seed", types.INT64)
	tbl.AddTagColumn("idx", types.INT64)
	tbl.AddFieldColumn("kind", types.STRING)
	tbl.AddFieldColumn("x", types.FLOAT64)
	tbl.AddFieldColumn("y", types.FLOAT64)
	tbl.AddFieldColumn("z", types.FLOAT64)
	tbl.AddFieldColumn("size", types.FLOAT64)
	tbl.AddFieldColumn("radius", types.FLOAT64)
	tbl.AddFieldColumn("height", types.FLOAT64)
	tbl.AddFieldColumn("outer_radius", types.FLOAT64)
	tbl.AddFieldColumn("tube_radius", types.FLOAT64)
	tbl.AddFieldColumn("gold", types.BOOLEAN)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	now := time.Now().UTC()
	for i, o := range obstacles {
		err := tbl.AddRow(seed, int64(i), o.Kind, o.Position.X, o.Position.Y, o.Position.Z,
			o.Size, o.Radius, o.Height, o.OuterRadius, o.TubeRadius, o.Gold, now)
		if err != nil {
			return err
		}
	}
	return w.write(w.courseTable, tbl, len(obstacles))
}
