package engine

import "time"

// PatientState is one of the discrete clinical states a simulated patient can
// occupy. The set is closed and carries no implicit ordering or severity:
// transitions are driven purely by trajectory rules, never by comparing
// states.
type PatientState string

const (
	StateStable            PatientState = "stable"
	StateStableWithConcern PatientState = "stable_with_concerns"
	StateDeteriorating     PatientState = "deteriorating"
	StateCriticallyUnwell  PatientState = "critically_unwell"
)

// Valid reports whether the state is in the closed set.
func (s PatientState) Valid() bool {
	switch s {
	case StateStable, StateStableWithConcern, StateDeteriorating, StateCriticallyUnwell:
		return true
	}
	return false
}

// TriggerKind is the condition class under which a StateChangeRule fires.
type TriggerKind string

const (
	// TriggerTimeElapsed fires once the clock reaches the rule's TriggerTime.
	TriggerTimeElapsed TriggerKind = "time_elapsed"

	// TriggerActionTaken fires once the required action has been taken on the
	// patient.
	TriggerActionTaken TriggerKind = "action_taken"

	// TriggerActionNotTaken fires once the deadline passes without the
	// required action having been taken.
	TriggerActionNotTaken TriggerKind = "action_not_taken"

	// TriggerInvestigationReceived is declared in the schema but has no
	// defined firing condition; rules with this trigger never fire. The
	// scenario loader warns when one is declared. See evaluate below.
	TriggerInvestigationReceived TriggerKind = "investigation_received"

	// TriggerEscalationOccurred fires once the patient has been escalated.
	TriggerEscalationOccurred TriggerKind = "escalation_occurred"
)

// Valid reports whether the trigger kind is in the closed set.
func (t TriggerKind) Valid() bool {
	switch t {
	case TriggerTimeElapsed, TriggerActionTaken, TriggerActionNotTaken,
		TriggerInvestigationReceived, TriggerEscalationOccurred:
		return true
	}
	return false
}

// Urgency tags a rule's notification for display prioritization.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// StateChangeRule is a declarative transition rule in a patient's trajectory.
// Rules are loaded from a scenario definition and immutable afterwards.
type StateChangeRule struct {
	ID string

	// Trigger condition.
	Trigger        TriggerKind
	TriggerTime    *time.Time
	RequiredAction ActionKind
	ActionDeadline *time.Time

	// CurrentStateRequirement makes the rule inert unless the patient is in
	// this state. Empty means the rule applies in any state.
	CurrentStateRequirement PatientState

	// Outcome.
	NewState            PatientState
	Manifestation       string
	NotificationMessage string
	Urgency             Urgency
}

// triggered checks whether the rule's condition holds at the given time for
// the given set of action kinds taken on the patient. The state requirement
// is checked by the caller, not here.
func (r *StateChangeRule) triggered(now time.Time, actions map[ActionKind]bool) bool {
	switch r.Trigger {
	case TriggerTimeElapsed:
		return r.TriggerTime != nil && !now.Before(*r.TriggerTime)

	case TriggerActionTaken:
		return r.RequiredAction != "" && actions[r.RequiredAction]

	case TriggerActionNotTaken:
		return r.ActionDeadline != nil && !now.Before(*r.ActionDeadline) &&
			!actions[r.RequiredAction]

	case TriggerEscalationOccurred:
		return actions[ActionEscalate]

	case TriggerInvestigationReceived:
		// Declared in the schema, condition never defined. Deliberately
		// unreachable rather than silently guessing a semantics.
		return false
	}
	return false
}

// StateChange records one applied transition in a patient's history.
type StateChange struct {
	Timestamp time.Time    `json:"timestamp"`
	OldState  PatientState `json:"old_state"`
	NewState  PatientState `json:"new_state"`
	Trigger   TriggerKind  `json:"trigger"`
	Notes     string       `json:"clinical_notes"`
}

// ExaminationFindings holds the per-state templates used when the trainee
// reviews a patient in person: the free-text observations (fed to the vitals
// parser) and the note/examination sections written into the record.
type ExaminationFindings struct {
	Observations        string
	InPersonNote        string
	InPersonExamination string
}

// Trajectory is a patient's ordered list of declarative state-change rules
// plus the per-state examination findings.
//
// Rule order matters: evaluation walks the list in declaration order and the
// first matching rule wins. Scenario authors order the most specific or
// urgent rule first when more than one could be eligible at once.
type Trajectory struct {
	ID       string
	Rules    []StateChangeRule
	Findings map[PatientState]ExaminationFindings
}

// FindingsFor returns the examination findings for a state. The second
// return is false when the scenario defines none for that state.
func (t *Trajectory) FindingsFor(state PatientState) (ExaminationFindings, bool) {
	f, ok := t.Findings[state]
	return f, ok
}
