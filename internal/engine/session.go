package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ClinicalNote is a record entry produced by an action, handed to the
// session's RecordSink for storage.
type ClinicalNote struct {
	Type          string    `json:"note_type"`
	Timestamp     time.Time `json:"timestamp"`
	Author        string    `json:"author"`
	AuthorRole    string    `json:"author_role"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	AlwaysVisible bool      `json:"always_visible"`
}

// RecordSink receives clinical notes and investigation results written
// during the simulation. The record store collaborator implements it; tests
// substitute a fake.
type RecordSink interface {
	HasRecord(patientID string) bool
	AddClinicalNote(patientID string, note ClinicalNote)
	AddInvestigationResult(patientID, investigation, findings string, reportedAt time.Time)
}

// Notification is one message surfaced to the trainee, kept in delivery
// order.
type Notification struct {
	Timestamp time.Time `json:"timestamp"`
	PatientID string    `json:"patient_id,omitempty"`
	Message   string    `json:"message"`
	Urgency   Urgency   `json:"urgency,omitempty"`
	Read      bool      `json:"read"`
}

// ActionRecord is one executed action in the session's history, with the
// clock position at which it ran.
type ActionRecord struct {
	Action              UserAction `json:"action"`
	Timestamp           time.Time  `json:"timestamp"`
	ElapsedMinutes      int        `json:"elapsed_minutes"`
	TimeAdvanced        int        `json:"time_advanced_minutes"`
	ArtificialTimeAdded int        `json:"artificial_time_added"`
}

// Session is one independent simulation run: its own clock, scheduler,
// patients and history. All methods serialize on an internal mutex; a
// session is safe for concurrent use but executes one action at a time.
type Session struct {
	mu sync.Mutex

	ID         string
	ScenarioID string

	clock     *Clock
	scheduler *Scheduler

	patients     map[string]*Patient
	patientOrder []string

	actionHistory []ActionRecord
	notifications []Notification

	complete    bool
	createdAt   time.Time
	completedAt *time.Time

	records RecordSink
	ids     IDGenerator
}

// SessionOption configures a Session at construction.
type SessionOption func(*Session)

// WithRecordSink wires the clinical record collaborator.
func WithRecordSink(sink RecordSink) SessionOption {
	return func(s *Session) { s.records = sink }
}

// WithIDGenerator overrides the ID generator, used by tests for
// deterministic IDs.
func WithIDGenerator(gen IDGenerator) SessionOption {
	return func(s *Session) { s.ids = gen }
}

// NewSession builds a session over the given clock. Patients are registered
// afterwards with AddPatient; their registration order fixes the
// deterministic evaluation order for the life of the session.
func NewSession(id, scenarioID string, clock *Clock, opts ...SessionOption) *Session {
	s := &Session{
		ID:         id,
		ScenarioID: scenarioID,
		clock:      clock,
		scheduler:  NewScheduler(),
		patients:   make(map[string]*Patient),
		createdAt:  clock.source.Now(),
		ids:        UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPatient registers a patient. Registration order is evaluation order.
func (s *Session) AddPatient(p *Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[p.ID]; ok {
		return
	}
	s.patients[p.ID] = p
	s.patientOrder = append(s.patientOrder, p.ID)
}

// ScheduleEvent places an event on the session's scheduler. Used during
// session construction to seed scenario-defined events.
func (s *Session) ScheduleEvent(ev *Event, at time.Time, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Schedule(ev, at, priority)
}

// Clock returns the session clock. Callers must not mutate it directly;
// only Execute advances time.
func (s *Session) Clock() *Clock { return s.clock }

// Patient returns the patient with the given ID, or nil.
func (s *Session) Patient(id string) *Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patients[id]
}

// IsComplete reports whether the session has been completed.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Execute runs one trainee action against the session.
//
// The flow is fixed: validate, record the action, advance the clock by the
// action's artificial cost, deliver every due scheduled event, then
// re-evaluate every patient's trajectory in registration order. A
// well-formed action against an unknown patient is a soft failure: the
// result carries Success=false and nothing in the session changes. A
// completed session rejects all actions with a typed error.
func (s *Session) Execute(action UserAction) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete {
		return nil, NewSessionComplete(s.ID)
	}
	if !action.Kind.Valid() {
		return nil, NewInvalidAction(action.Kind)
	}

	patient, ok := s.patients[action.PatientID]
	if !ok {
		return &ActionResult{
			Success:             false,
			Action:              action,
			NewSimulationTime:   s.clock.CurrentTime(),
			Message:             fmt.Sprintf("patient %q not found in session", action.PatientID),
			TriggeredEvents:     []EventOutcome{},
			NewNotifications:    []string{},
			PatientStateChanges: []StateChangeNotice{},
		}, nil
	}

	before := s.clock.CurrentTime()

	cost := action.artificialCost()
	now := before
	if cost > 0 {
		t, err := s.clock.AddArtificialTime(cost)
		if err != nil {
			return nil, err
		}
		now = t
	} else {
		now = s.clock.CurrentTime()
	}

	// The action is stamped with the time it completed, after its cost.
	action.Timestamp = now
	patient.RecordAction(action.Kind, now, action.Details)

	result := &ActionResult{
		Success:             true,
		Action:              action,
		TimeAdvancedMinutes: int(now.Sub(before).Minutes()),
		NewSimulationTime:   now,
		TriggeredEvents:     []EventOutcome{},
		NewNotifications:    []string{},
		PatientStateChanges: []StateChangeNotice{},
	}

	s.performAction(patient, action, now, result)

	s.deliverDueEvents(now, result)
	s.evaluatePatients(now, result)

	s.actionHistory = append(s.actionHistory, ActionRecord{
		Action:              action,
		Timestamp:           now,
		ElapsedMinutes:      s.clock.ElapsedMinutes(),
		TimeAdvanced:        result.TimeAdvancedMinutes,
		ArtificialTimeAdded: cost,
	})

	return result, nil
}

// performAction applies the per-kind side effects beyond time cost: record
// writes for reviews and notes, and the scheduler entry for investigations.
func (s *Session) performAction(p *Patient, action UserAction, now time.Time, result *ActionResult) {
	switch action.Kind {
	case ActionReviewInPerson:
		var findings ExaminationFindings
		var ok bool
		if p.Trajectory != nil {
			findings, ok = p.Trajectory.FindingsFor(p.CurrentState)
		}
		if ok {
			result.Message = findings.InPersonExamination
		} else {
			result.Message = fmt.Sprintf("Reviewed %s at the bedside.", p.Name)
		}
		if s.records != nil && s.records.HasRecord(p.ID) {
			content := findings.InPersonNote
			if content == "" {
				content = fmt.Sprintf("Patient reviewed in person. Current state: %s", p.CurrentState)
			}
			s.records.AddClinicalNote(p.ID, ClinicalNote{
				Type:          "review",
				Timestamp:     now,
				Author:        "You",
				AuthorRole:    "Doctor",
				Title:         "Ward review",
				Content:       content,
				AlwaysVisible: true,
			})
		}

	case ActionRequestInvestigation:
		name, _ := action.Details["investigation"].(string)
		if name == "" {
			name = "investigation"
		}
		ev := &Event{
			ID:        s.ids.ID("evt"),
			Kind:      EventInvestigationResult,
			PatientID: p.ID,
			Payload: map[string]any{
				"investigation":   name,
				payloadMessageKey: fmt.Sprintf("%s result available for %s", name, p.Name),
			},
		}
		s.scheduler.Schedule(ev, now.Add(investigationTurnaround(name)), 0)
		result.Message = fmt.Sprintf("Requested %s for %s.", name, p.Name)

	case ActionDocumentNote:
		content, _ := action.Details["content"].(string)
		if s.records != nil && s.records.HasRecord(p.ID) {
			s.records.AddClinicalNote(p.ID, ClinicalNote{
				Type:          "progress",
				Timestamp:     now,
				Author:        "You",
				AuthorRole:    "Doctor",
				Title:         "Progress note",
				Content:       content,
				AlwaysVisible: true,
			})
		}
		result.Message = fmt.Sprintf("Note documented for %s.", p.Name)

	case ActionEscalate:
		result.Message = fmt.Sprintf("Escalated %s to the senior on call.", p.Name)

	case ActionAskNurseQuestion:
		// The dialogue collaborator produces the answer; the engine only
		// records that the question was asked.
		result.Message = fmt.Sprintf("Asked the nurse about %s.", p.Name)
	}
}

// investigationTurnaround maps an investigation name to its simulated
// result delay.
func investigationTurnaround(name string) time.Duration {
	switch name {
	case "bloods", "blood_tests", "fbc", "u&e":
		return 60 * time.Minute
	case "ecg":
		return 15 * time.Minute
	case "chest_xray", "cxr", "xray":
		return 45 * time.Minute
	case "abg", "vbg":
		return 20 * time.Minute
	case "ct", "ct_scan":
		return 90 * time.Minute
	}
	return 30 * time.Minute
}

// deliverDueEvents drains every scheduled event due at or before now.
// Deterioration events mutate silently; everything else surfaces a
// notification.
func (s *Session) deliverDueEvents(now time.Time, result *ActionResult) {
	for _, ev := range s.scheduler.DrainDue(now) {
		outcome := EventOutcome{
			EventID:   ev.ID,
			Kind:      ev.Kind,
			PatientID: ev.PatientID,
		}
		switch ev.Kind {
		case EventPatientDeterioration:
			// Delivered without notification; the transition it represents
			// surfaces through trajectory evaluation instead.
		default:
			msg := ev.message(fmt.Sprintf("%s event", ev.Kind))
			outcome.Message = msg
			if ev.Kind == EventInvestigationResult && ev.PatientID != "" &&
				s.records != nil && s.records.HasRecord(ev.PatientID) {
				name, _ := ev.Payload["investigation"].(string)
				findings, _ := ev.Payload["findings"].(string)
				if findings == "" {
					findings = msg
				}
				s.records.AddInvestigationResult(ev.PatientID, name, findings, now)
			}
			s.notify(Notification{
				Timestamp: now,
				PatientID: ev.PatientID,
				Message:   msg,
			})
			result.NewNotifications = append(result.NewNotifications, msg)
		}
		result.TriggeredEvents = append(result.TriggeredEvents, outcome)
	}
}

// evaluatePatients re-evaluates every patient's trajectory in registration
// order, applying at most one transition per patient per action.
func (s *Session) evaluatePatients(now time.Time, result *ActionResult) {
	for _, id := range s.patientOrder {
		p := s.patients[id]
		rule := p.EvaluateStateChange(now)
		if rule == nil {
			continue
		}
		change := p.ApplyStateChange(rule, now)
		notice := StateChangeNotice{
			PatientID:   p.ID,
			PatientName: p.Name,
			OldState:    change.OldState,
			NewState:    change.NewState,
			RuleID:      rule.ID,
			Urgency:     rule.Urgency,
			Message:     rule.NotificationMessage,
		}
		result.PatientStateChanges = append(result.PatientStateChanges, notice)
		if rule.NotificationMessage != "" {
			s.notify(Notification{
				Timestamp: now,
				PatientID: p.ID,
				Message:   rule.NotificationMessage,
				Urgency:   rule.Urgency,
			})
			result.NewNotifications = append(result.NewNotifications, rule.NotificationMessage)
		}
	}
}

func (s *Session) notify(n Notification) {
	s.notifications = append(s.notifications, n)
}

// Notifications returns a copy of all notifications so far.
func (s *Session) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// TimelineEntry is one row in the merged session timeline.
type TimelineEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"entry_type"`
	PatientID string    `json:"patient_id,omitempty"`
	Summary   string    `json:"summary"`
}

// Timeline merges the action history and notifications into one
// chronological list. Ties keep actions before the notifications they
// produced; the merge is stable over the append order.
func (s *Session) Timeline() []TimelineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]TimelineEntry, 0, len(s.actionHistory)+len(s.notifications))
	for _, rec := range s.actionHistory {
		entries = append(entries, TimelineEntry{
			Timestamp: rec.Timestamp,
			Kind:      "action",
			PatientID: rec.Action.PatientID,
			Summary:   fmt.Sprintf("%s (%s)", rec.Action.Kind, rec.Action.PatientID),
		})
	}
	for _, n := range s.notifications {
		entries = append(entries, TimelineEntry{
			Timestamp: n.Timestamp,
			Kind:      "notification",
			PatientID: n.PatientID,
			Summary:   n.Message,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

// SessionSummary is the outcome view returned when a session completes.
type SessionSummary struct {
	SessionID        string           `json:"session_id"`
	ScenarioID       string           `json:"scenario_id"`
	CompletedAt      time.Time        `json:"completed_at"`
	ElapsedMinutes   int              `json:"elapsed_minutes"`
	ActionsTaken     int              `json:"actions_taken"`
	Patients         []PatientSummary `json:"patients"`
	StateChanges     int              `json:"state_changes"`
	PendingEvents    int              `json:"pending_events"`
	Notifications    int              `json:"notifications"`
}

// Complete marks the session finished and returns its summary. Completing
// an already-complete session returns a typed error; the transition is
// terminal.
func (s *Session) Complete() (*SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete {
		return nil, NewSessionComplete(s.ID)
	}
	s.complete = true
	now := s.clock.CurrentTime()
	s.completedAt = &now

	summary := &SessionSummary{
		SessionID:      s.ID,
		ScenarioID:     s.ScenarioID,
		CompletedAt:    now,
		ElapsedMinutes: s.clock.ElapsedMinutes(),
		ActionsTaken:   len(s.actionHistory),
		PendingEvents:  s.scheduler.PendingCount(),
		Notifications:  len(s.notifications),
	}
	for _, id := range s.patientOrder {
		p := s.patients[id]
		summary.Patients = append(summary.Patients, p.Summarize())
		summary.StateChanges += len(p.StateHistory)
	}
	return summary, nil
}

// SessionState is the full live view of a session.
type SessionState struct {
	SessionID     string           `json:"session_id"`
	ScenarioID    string           `json:"scenario_id"`
	Complete      bool             `json:"complete"`
	Clock         ClockState       `json:"clock"`
	Scheduler     SchedulerState   `json:"scheduler"`
	Patients      []PatientSummary `json:"patients"`
	ActionsTaken  int              `json:"actions_taken"`
	Notifications []Notification   `json:"notifications"`
}

// State snapshots the session for API responses.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		SessionID:     s.ID,
		ScenarioID:    s.ScenarioID,
		Complete:      s.complete,
		Clock:         s.clock.State(),
		Scheduler:     s.scheduler.State(),
		ActionsTaken:  len(s.actionHistory),
		Notifications: append([]Notification(nil), s.notifications...),
	}
	for _, id := range s.patientOrder {
		state.Patients = append(state.Patients, s.patients[id].Summarize())
	}
	return state
}
