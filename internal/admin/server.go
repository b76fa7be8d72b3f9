package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/BB999/drone-show/internal/formation"
	"github.com/BB999/drone-show/internal/physics"
	"github.com/BB999/drone-show/internal/sim"
)

type Server struct {
	Sim *sim.Simulator
	tpl *template.Template
	mux *http.ServeMux
}

//go:embed templates/index.html
var content embed.FS

func NewServer(sim *sim.Simulator) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{Sim: sim, tpl: tpl, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	s.mux.HandleFunc("GET /course", s.handleCourse)
	s.mux.HandleFunc("POST /startup", s.handleStartup)
	s.mux.HandleFunc("POST /shutdown", s.handleShutdown)
	s.mux.HandleFunc("POST /formation", s.handleFormation)
	s.mux.HandleFunc("POST /toggle-collision", s.handleToggleCollision)
	s.mux.HandleFunc("POST /collision", s.handleSetCollision)
	s.mux.HandleFunc("POST /speed", s.handleSpeed)
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

// statusFor maps simulator errors to HTTP codes: requests that are valid
// but not possible in the current phase conflict, malformed ones are bad.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sim.ErrNotFlying), errors.Is(err, sim.ErrCannotStart):
		return http.StatusConflict
	case errors.Is(err, formation.ErrUnknownFormation), errors.Is(err, sim.ErrInvalidSpeedLevel):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Admin] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Snapshot   sim.Snapshot
		Mode       string
		Formations []string
	}{
		Snapshot:   s.Sim.Snapshot(),
		Mode:       s.Sim.GetConfig().World.Mode,
		Formations: s.Sim.Formations(),
	}
	if err := s.tpl.Execute(w, data); err != nil {
		log.Printf("[Admin] render index: %v", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot())
}

func (s *Server) handleCourse(w http.ResponseWriter, r *http.Request) {
	course := s.Sim.Course()
	if course == nil {
		course = []physics.ObstacleRecord{}
	}
	writeJSON(w, course)
}

func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	if err := s.Sim.Startup(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if err := s.Sim.Shutdown(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFormation selects ?name=<formation>; "next" or no name cycles.
func (s *Server) handleFormation(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" || name == "next" {
		next, err := s.Sim.NextFormation()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"formation": next})
		return
	}
	if err := s.Sim.SelectFormation(name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"formation": name})
}

func (s *Server) handleToggleCollision(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"collision": s.Sim.ToggleCollision()})
}

func (s *Server) handleSetCollision(w http.ResponseWriter, r *http.Request) {
	on, err := strconv.ParseBool(r.URL.Query().Get("on"))
	if err != nil {
		http.Error(w, "on must be true or false", http.StatusBadRequest)
		return
	}
	s.Sim.SetCollision(on)
	writeJSON(w, map[string]any{"collision": on})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.URL.Query().Get("level"))
	if err != nil {
		http.Error(w, "level must be an integer", http.StatusBadRequest)
		return
	}
	if err := s.Sim.SetSpeedLevel(level); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"speed_level": level})
}
