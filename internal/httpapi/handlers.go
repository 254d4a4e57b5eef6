package httpapi

import (
	"net/http"
	"time"

	"wardsim/internal/ehr"
	"wardsim/internal/engine"
	"wardsim/internal/vitals"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.svc.ListSessions()),
	})
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"scenarios": s.library.List(),
	})
}

type startSessionRequest struct {
	ScenarioID string `json:"scenario_id"`

	// StartTime optionally overrides the scenario's clock anchor,
	// formatted "2006-01-02T15:04:05".
	StartTime string `json:"start_time,omitempty"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.ScenarioID == "" {
		s.writeError(w, engine.NewInvalidArgument("scenario_id is required"))
		return
	}

	var customStart *time.Time
	if req.StartTime != "" {
		t, err := time.Parse("2006-01-02T15:04:05", req.StartTime)
		if err != nil {
			s.writeError(w, engine.NewInvalidArgument("invalid start_time %q: %v", req.StartTime, err))
			return
		}
		utc := t.UTC()
		customStart = &utc
	}

	sess, err := s.svc.StartSession(req.ScenarioID, customStart)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess.State())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.svc.ListSessions(),
	})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.SessionState(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteSession(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.library.DropStore(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExecuteAction(w http.ResponseWriter, r *http.Request) {
	var action engine.UserAction
	if !s.decodeJSON(w, r, &action) {
		return
	}

	result, err := s.svc.ExecuteAction(r.PathValue("id"), action)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.CompleteSession(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := s.svc.Timeline(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"timeline": timeline,
	})
}

// patientDetailsResponse augments the engine's view with the scored
// observations for the patient's current state, when the scenario scripts
// them.
type patientDetailsResponse struct {
	engine.PatientDetails
	Observations *observationsBlock `json:"observations,omitempty"`
}

type observationsBlock struct {
	Text  string       `json:"text"`
	Signs vitals.Signs `json:"signs"`
	NEWS2 vitals.Score `json:"news2"`
}

func (s *Server) handlePatientDetails(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	patientID := r.PathValue("pid")

	details, err := s.svc.PatientDetails(sessionID, patientID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := patientDetailsResponse{PatientDetails: details}
	if sess, err := s.svc.Session(sessionID); err == nil {
		if p := sess.Patient(patientID); p != nil && p.Trajectory != nil {
			if f, ok := p.Trajectory.FindingsFor(p.CurrentState); ok && f.Observations != "" {
				signs := vitals.Parse(f.Observations)
				resp.Observations = &observationsBlock{
					Text:  f.Observations,
					Signs: signs,
					NEWS2: vitals.NEWS2(signs),
				}
			}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePatientRecord(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	patientID := r.PathValue("pid")

	sess, err := s.svc.Session(sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	store := s.library.Store(sessionID)
	if store == nil {
		s.writeError(w, engine.NewInvalidArgument("no record store for session %q", sessionID))
		return
	}
	p := sess.Patient(patientID)
	if p == nil {
		s.writeError(w, engine.NewInvalidArgument("patient %q not found in session %q", patientID, sessionID))
		return
	}

	view, err := store.View(patientID, ehr.ViewContext{
		Now:           sess.Clock().CurrentTime(),
		ScenarioStart: sess.Clock().ScenarioStart(),
		HasTaken:      p.HasTaken,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

type nurseQuestionRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleNurseQuestion(w http.ResponseWriter, r *http.Request) {
	if s.responder == nil {
		s.writeError(w, engine.NewInvalidArgument("nurse dialogue is not configured"))
		return
	}

	var req nurseQuestionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Question == "" {
		s.writeError(w, engine.NewInvalidArgument("question is required"))
		return
	}

	sessionID := r.PathValue("id")
	patientID := r.PathValue("pid")

	sess, err := s.svc.Session(sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p := sess.Patient(patientID)
	if p == nil {
		s.writeError(w, engine.NewInvalidArgument("patient %q not found in session %q", patientID, sessionID))
		return
	}

	answer, err := s.responder.Answer(r.Context(), p, req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Asking the nurse counts as an action so trajectory rules and the
	// timeline see it.
	if _, err := s.svc.ExecuteAction(sessionID, engine.UserAction{
		Kind:      engine.ActionAskNurseQuestion,
		PatientID: patientID,
		Details:   map[string]any{"question": req.Question},
	}); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"answer": answer})
}
