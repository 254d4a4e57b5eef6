// Package httpapi exposes the simulation over a JSON HTTP API. One server
// process hosts many concurrent sessions; every route under /api/v1 is
// stateless apart from the session registry behind it.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"wardsim/internal/engine"
	"wardsim/internal/nurse"
	"wardsim/internal/scenario"
)

// Server wires the engine service, the scenario library and the nurse
// responder behind an http.Handler.
type Server struct {
	svc       *engine.Service
	library   *scenario.Library
	responder nurse.Responder
	log       *slog.Logger
	mux       *http.ServeMux
}

// NewServer builds the route table. A nil responder disables the nurse
// endpoint gracefully rather than panicking.
func NewServer(svc *engine.Service, library *scenario.Library, responder nurse.Responder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		svc:       svc,
		library:   library,
		responder: responder,
		log:       log,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/scenarios", s.handleListScenarios)
	s.mux.HandleFunc("POST /api/v1/sessions/start", s.handleStartSession)
	s.mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleSessionState)
	s.mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /api/v1/sessions/{id}/actions", s.handleExecuteAction)
	s.mux.HandleFunc("POST /api/v1/sessions/{id}/complete", s.handleCompleteSession)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}/timeline", s.handleTimeline)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}/patients/{pid}", s.handlePatientDetails)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}/patients/{pid}/record", s.handlePatientRecord)
	s.mux.HandleFunc("POST /api/v1/sessions/{id}/patients/{pid}/nurse", s.handleNurseQuestion)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// errorBody is the uniform JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError maps engine error codes onto HTTP statuses. Anything without
// a recognized code is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	if c := engine.CodeOf(err); c != "" {
		code = string(c)
		switch c {
		case engine.ErrCodeSessionNotFound, engine.ErrCodeScenarioNotFound:
			status = http.StatusNotFound
		case engine.ErrCodeSessionComplete:
			status = http.StatusConflict
		case engine.ErrCodeInvalidAction, engine.ErrCodeInvalidArgument:
			status = http.StatusBadRequest
		}
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", "error", err)
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, engine.NewInvalidArgument("invalid request body: %v", err))
		return false
	}
	return true
}
