package sim

import (
	"encoding/json"
	"os"

	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/telemetry"
)

// FileWriter writes frame, event and session data to JSONL files.
type FileWriter struct {
	frameFile   *os.File
	eventFile   *os.File
	sessionFile *os.File
	frameEnc    *json.Encoder
	eventEnc    *json.Encoder
	sessionEnc  *json.Encoder
}

// courseLine is one obstacle in the session log.
type courseLine struct {
	Seed     int64                  `json:"course_seed"`
	Obstacle physics.ObstacleRecord `json:"obstacle"`
}

// NewFileWriter creates a FileWriter. eventPath or sessionPath may be empty to skip those logs.
func NewFileWriter(framePath, eventPath, sessionPath string) (*FileWriter, error) {
	ff, err := os.Create(framePath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{frameFile: ff, frameEnc: json.NewEncoder(ff)}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			ff.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	if sessionPath != "" {
		sf, err := os.Create(sessionPath)
		if err != nil {
			if fw.eventFile != nil {
				fw.eventFile.Close()
			}
			ff.Close()
			return nil, err
		}
		fw.sessionFile = sf
		fw.sessionEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single frame row.
func (f *FileWriter) Write(row telemetry.FrameRow) error {
	return f.frameEnc.Encode(row)
}

// WriteBatch logs multiple frame rows.
func (f *FileWriter) WriteBatch(rows []telemetry.FrameRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent logs a single event row, if enabled.
func (f *FileWriter) WriteEvent(e telemetry.EventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(e)
}

// WriteEvents logs multiple event rows.
func (f *FileWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSession logs the session row, if enabled.
func (f *FileWriter) WriteSession(row telemetry.SessionRow) error {
	if f.sessionEnc == nil {
		return nil
	}
	return f.sessionEnc.Encode(row)
}

// WriteCourse appends the obstacle layout to the session log.
func (f *FileWriter) WriteCourse(seed int64, obstacles []physics.ObstacleRecord) error {
	if f.sessionEnc == nil {
		return nil
	}
	for _, o := range obstacles {
		if err := f.sessionEnc.Encode(courseLine{Seed: seed, Obstacle: o}); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.frameFile, f.eventFile, f.sessionFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
