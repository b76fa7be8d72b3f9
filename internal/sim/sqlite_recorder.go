package sim

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BB999/drone-show/internal/geom"
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

// sqlite_schema.sql creates the sessions, frames, events and obstacles
// tables.
//
//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteRecorder stores a run in a local SQLite file so it can be
// inspected or replayed without a GreptimeDB instance.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (or creates) the database at path and applies
// the schema.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Printf("[SQLiteRecorder] recording to %s", path)
	return &SQLiteRecorder{db: db}, nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Write stores a single frame row.
func (r *SQLiteRecorder) Write(row telemetry.FrameRow) error {
	return r.WriteBatch([]telemetry.FrameRow{row})
}

// WriteBatch stores frame rows in one transaction.
func (r *SQLiteRecorder) WriteBatch(rows []telemetry.FrameRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO frames (session_id, drone_id, idx, phase, sub_phase, x, y, z, yaw, pitch, roll, speed, scale, colliding, formation, frame, ts_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, f := range rows {
		_, err := stmt.Exec(f.SessionID, f.DroneID, f.Index, f.Phase, f.SubPhase,
			f.X, f.Y, f.Z, f.Yaw, f.Pitch, f.Roll, f.Speed, f.Scale,
			boolInt(f.Colliding), f.Formation, f.Frame, millis(f.Timestamp))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert frame: %w", err)
		}
	}
	return tx.Commit()
}

// WriteEvent stores a single event.
func (r *SQLiteRecorder) WriteEvent(e telemetry.EventRow) error {
	return r.WriteEvents([]telemetry.EventRow{e})
}

// WriteEvents stores events in one transaction.
func (r *SQLiteRecorder) WriteEvents(rows []telemetry.EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for _, e := range rows {
		_, err := tx.Exec(`
			INSERT INTO events (session_id, type, drone_id, detail, value, frame, ts_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.SessionID, e.Type, e.DroneID, e.Detail, e.Value, e.Frame, millis(e.Timestamp))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}
	return tx.Commit()
}

// WriteSession stores the session header, replacing an earlier one with
// the same id.
func (r *SQLiteRecorder) WriteSession(s telemetry.SessionRow) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO sessions (session_id, mode, course_seed, followers, scale, started_ms, ts_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.SessionID, s.Mode, s.CourseSeed, s.Followers, s.Scale, millis(s.StartedAt), millis(s.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// WriteCourse stores the obstacles of a course. A seed is stored once.
func (r *SQLiteRecorder) WriteCourse(seed int64, obstacles []physics.ObstacleRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for i, o := range obstacles {
		q := o.Orientation
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO obstacles (seed, idx, kind, x, y, z, qx, qy, qz, qw, size, radius, height, outer_radius, tube_radius, gold)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, seed, i, o.Kind, o.Position.X, o.Position.Y, o.Position.Z,
			q.Imag, q.Jmag, q.Kmag, q.Real,
			o.Size, o.Radius, o.Height, o.OuterRadius, o.TubeRadius, boolInt(o.Gold))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert obstacle: %w", err)
		}
	}
	return tx.Commit()
}

// Frames returns the recorded frame rows of a session in write order.
func (r *SQLiteRecorder) Frames(sessionID string) ([]telemetry.FrameRow, error) {
	rows, err := r.db.Query(`
		SELECT session_id, drone_id, idx, phase, sub_phase, x, y, z, yaw, pitch, roll, speed, scale, colliding, formation, frame, ts_ms
		FROM frames WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []telemetry.FrameRow
	for rows.Next() {
		var f telemetry.FrameRow
		var colliding int
		var ts int64
		if err := rows.Scan(&f.SessionID, &f.DroneID, &f.Index, &f.Phase, &f.SubPhase,
			&f.X, &f.Y, &f.Z, &f.Yaw, &f.Pitch, &f.Roll, &f.Speed, &f.Scale,
			&colliding, &f.Formation, &f.Frame, &ts); err != nil {
			return nil, err
		}
		f.Colliding = colliding != 0
		f.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

// Events returns the recorded events of a session, optionally of one type.
func (r *SQLiteRecorder) Events(sessionID, typ string) ([]telemetry.EventRow, error) {
	rows, err := r.db.Query(`
		SELECT session_id, type, drone_id, detail, value, frame, ts_ms
		FROM events WHERE session_id = ? AND (? = '' OR type = ?) ORDER BY id
	`, sessionID, typ, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []telemetry.EventRow
	for rows.Next() {
		var e telemetry.EventRow
		var ts int64
		if err := rows.Scan(&e.SessionID, &e.Type, &e.DroneID, &e.Detail, &e.Value, &e.Frame, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Course returns the stored obstacles of a seed in course order.
func (r *SQLiteRecorder) Course(seed int64) ([]physics.ObstacleRecord, error) {
	rows, err := r.db.Query(`
		SELECT kind, x, y, z, qx, qy, qz, qw, size, radius, height, outer_radius, tube_radius, gold
		FROM obstacles WHERE seed = ? ORDER BY idx
	`, seed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []physics.ObstacleRecord
	for rows.Next() {
		var o physics.ObstacleRecord
		var q geom.Quat
		var gold int
		if err := rows.Scan(&o.Kind, &o.Position.X, &o.Position.Y, &o.Position.Z,
			&q.Imag, &q.Jmag, &q.Kmag, &q.Real,
			&o.Size, &o.Radius, &o.Height, &o.OuterRadius, &o.TubeRadius, &gold); err != nil {
			return nil, err
		}
		o.Orientation = q
		o.Gold = gold != 0
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
