package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/BB999/drone-show/internal/drone"
	"github.com/BB999/drone-show/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// tables names the GreptimeDB tables the dashboards query.
type tables struct {
	FrameTable     string
	EventTable     string
	SessionTable   string
	MainIndex      int
	PhaseEvent     string
	FormationEvent string
}

func currentTables() tables {
	return tables{
		FrameTable:     telemetry.FrameRow{}.TableName(),
		EventTable:     telemetry.EventRow{}.TableName(),
		SessionTable:   telemetry.SessionRow{}.TableName(),
		MainIndex:      drone.MainIndex,
		PhaseEvent:     telemetry.EventPhase,
		FormationEvent: telemetry.EventFormation,
	}
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	data := currentTables()
	for _, entry := range names {
		name := entry.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
