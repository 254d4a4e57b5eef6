package engine

import "time"

// ActionKind is one of the closed set of trainee actions.
type ActionKind string

const (
	ActionReviewInPerson       ActionKind = "review_in_person"
	ActionRequestInvestigation ActionKind = "request_investigation"
	ActionEscalate             ActionKind = "escalate"
	ActionDocumentNote         ActionKind = "document_note"
	ActionAskNurseQuestion     ActionKind = "ask_nurse_question"
)

// Valid reports whether the kind is in the closed set.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionReviewInPerson, ActionRequestInvestigation, ActionEscalate,
		ActionDocumentNote, ActionAskNurseQuestion:
		return true
	}
	return false
}

// Default artificial time costs, in simulated minutes. Reviewing a patient
// in person is the only action with a substantial cost; documenting a note
// costs a few minutes; everything else is free.
const (
	DefaultReviewCostMinutes   = 30
	DefaultDocumentCostMinutes = 3
)

// UserAction is one action submitted by the trainee against a session.
type UserAction struct {
	Kind      ActionKind     `json:"action_type"`
	PatientID string         `json:"patient_id"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
	Details   map[string]any `json:"details,omitempty"`

	// TimeCostMinutes overrides the default artificial cost. Nil means use
	// the default. Zero is a valid override. Only review_in_person and
	// document_note carry an artificial cost; for every other kind the
	// override is ignored.
	TimeCostMinutes *int `json:"time_cost_minutes,omitempty"`
}

// artificialCost resolves the artificial minutes this action advances the
// clock by.
func (a *UserAction) artificialCost() int {
	switch a.Kind {
	case ActionReviewInPerson:
		if a.TimeCostMinutes != nil {
			return *a.TimeCostMinutes
		}
		return DefaultReviewCostMinutes
	case ActionDocumentNote:
		if a.TimeCostMinutes != nil {
			return *a.TimeCostMinutes
		}
		return DefaultDocumentCostMinutes
	}
	return 0
}

// EventOutcome is the API-facing view of a scheduled event delivered while
// executing an action.
type EventOutcome struct {
	EventID   string    `json:"event_id"`
	Kind      EventKind `json:"event_type"`
	PatientID string    `json:"patient_id,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// StateChangeNotice is the API-facing view of a patient transition that
// fired while executing an action.
type StateChangeNotice struct {
	PatientID   string       `json:"patient_id"`
	PatientName string       `json:"patient_name"`
	OldState    PatientState `json:"old_state"`
	NewState    PatientState `json:"new_state"`
	RuleID      string       `json:"rule_id"`
	Urgency     Urgency      `json:"urgency"`
	Message     string       `json:"message,omitempty"`
}

// ActionResult is the full outcome of executing one action: success flag,
// clock movement, delivered events and any state transitions across the
// whole session. Success=false with no error means the action was
// well-formed but targeted an unknown patient; nothing was mutated.
type ActionResult struct {
	Success             bool                `json:"success"`
	Action              UserAction          `json:"action"`
	TimeAdvancedMinutes int                 `json:"time_advanced_minutes"`
	NewSimulationTime   time.Time           `json:"new_simulation_time"`
	Message             string              `json:"message,omitempty"`
	TriggeredEvents     []EventOutcome      `json:"triggered_events"`
	NewNotifications    []string            `json:"new_notifications"`
	PatientStateChanges []StateChangeNotice `json:"patient_state_changes"`
}
