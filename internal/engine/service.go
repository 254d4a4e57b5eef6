package engine

import (
	"log/slog"
	"time"
)

// SessionFactory builds a fully-wired session from a scenario. The scenario
// loader implements it; the engine stays ignorant of the scenario format.
type SessionFactory interface {
	CreateSession(scenarioID string, customStart *time.Time) (*Session, error)
}

// Service is the facade the transport layers call: it owns the registry and
// delegates session construction to the factory.
type Service struct {
	registry *Registry
	factory  SessionFactory
	log      *slog.Logger
}

func NewService(factory SessionFactory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		registry: NewRegistry(),
		factory:  factory,
		log:      log,
	}
}

// StartSession creates and registers a session for the scenario.
func (s *Service) StartSession(scenarioID string, customStart *time.Time) (*Session, error) {
	sess, err := s.factory.CreateSession(scenarioID, customStart)
	if err != nil {
		return nil, err
	}
	s.registry.Add(sess)
	s.log.Info("session started",
		"session_id", sess.ID,
		"scenario_id", scenarioID,
		"patients", len(sess.patientOrder))
	return sess, nil
}

// ExecuteAction runs one action against a session.
func (s *Service) ExecuteAction(sessionID string, action UserAction) (*ActionResult, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	result, err := sess.Execute(action)
	if err != nil {
		return nil, err
	}
	s.log.Info("action executed",
		"session_id", sessionID,
		"action", string(action.Kind),
		"patient_id", action.PatientID,
		"success", result.Success,
		"time_advanced", result.TimeAdvancedMinutes,
		"state_changes", len(result.PatientStateChanges))
	return result, nil
}

// CompleteSession marks a session finished and returns its summary.
func (s *Service) CompleteSession(sessionID string) (*SessionSummary, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	summary, err := sess.Complete()
	if err != nil {
		return nil, err
	}
	s.log.Info("session completed",
		"session_id", sessionID,
		"elapsed_minutes", summary.ElapsedMinutes,
		"actions", summary.ActionsTaken)
	return summary, nil
}

// SessionState snapshots a session.
func (s *Service) SessionState(sessionID string) (SessionState, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return SessionState{}, err
	}
	return sess.State(), nil
}

// Timeline returns a session's merged chronological timeline.
func (s *Service) Timeline(sessionID string) ([]TimelineEntry, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Timeline(), nil
}

// PatientDetails returns the full view of one patient in a session.
func (s *Service) PatientDetails(sessionID, patientID string) (PatientDetails, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return PatientDetails{}, err
	}
	p := sess.Patient(patientID)
	if p == nil {
		return PatientDetails{}, NewInvalidArgument("patient %q not found in session %q", patientID, sessionID)
	}
	return p.Detail(), nil
}

// Session returns the live session, for collaborators that need direct
// access (nurse dialogue, record reads).
func (s *Service) Session(sessionID string) (*Session, error) {
	return s.registry.Get(sessionID)
}

// ListSessions snapshots every live session.
func (s *Service) ListSessions() []SessionState {
	return s.registry.List()
}

// DeleteSession discards a session and all its state.
func (s *Service) DeleteSession(sessionID string) error {
	if err := s.registry.Delete(sessionID); err != nil {
		return err
	}
	s.log.Info("session deleted", "session_id", sessionID)
	return nil
}
