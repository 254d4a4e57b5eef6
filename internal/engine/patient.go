package engine

import "time"

// PatientAction is one action recorded against a patient, kept in the order
// taken.
type PatientAction struct {
	Kind      ActionKind     `json:"action_type"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// Patient is one simulated patient within a session. It is not safe for
// concurrent use on its own; the owning Session serializes all access.
type Patient struct {
	ID     string
	Name   string
	MRN    string
	Age    int
	Gender string
	Ward   string
	Bed    string

	CurrentState PatientState
	StateHistory []StateChange

	Trajectory *Trajectory

	ActionsTaken []PatientAction

	// NursingImpression is the structured bedside knowledge the nurse
	// responder answers from. Opaque to the engine itself.
	NursingImpression map[string]any
}

// RecordAction appends an action to the patient's history. It does not
// evaluate trajectory rules; the session drives evaluation separately so
// that every action re-evaluates every patient, not just the target.
func (p *Patient) RecordAction(kind ActionKind, at time.Time, details map[string]any) {
	p.ActionsTaken = append(p.ActionsTaken, PatientAction{
		Kind:      kind,
		Timestamp: at,
		Details:   details,
	})
}

// HasTaken reports whether an action of the given kind has ever been taken
// on this patient.
func (p *Patient) HasTaken(kind ActionKind) bool {
	for _, a := range p.ActionsTaken {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// actionSet collects the kinds taken so rule evaluation is O(rules), not
// O(rules * actions).
func (p *Patient) actionSet() map[ActionKind]bool {
	set := make(map[ActionKind]bool, len(p.ActionsTaken))
	for _, a := range p.ActionsTaken {
		set[a.Kind] = true
	}
	return set
}

// EvaluateStateChange walks the trajectory rules in declaration order and
// returns the first rule whose trigger holds at now and whose state
// requirement matches the patient's current state. Returns nil when no rule
// is eligible. Evaluation never mutates the patient.
func (p *Patient) EvaluateStateChange(now time.Time) *StateChangeRule {
	if p.Trajectory == nil {
		return nil
	}
	actions := p.actionSet()
	for i := range p.Trajectory.Rules {
		r := &p.Trajectory.Rules[i]
		if r.CurrentStateRequirement != "" && r.CurrentStateRequirement != p.CurrentState {
			continue
		}
		if r.NewState == p.CurrentState {
			// A rule that would transition to the current state is a no-op;
			// skipping it keeps evaluation from firing the same transition
			// on every subsequent action.
			continue
		}
		if r.triggered(now, actions) {
			return r
		}
	}
	return nil
}

// ApplyStateChange transitions the patient per the rule and appends the
// change to the state history. The caller is responsible for having selected
// the rule via EvaluateStateChange at the same clock time.
func (p *Patient) ApplyStateChange(rule *StateChangeRule, at time.Time) StateChange {
	change := StateChange{
		Timestamp: at,
		OldState:  p.CurrentState,
		NewState:  rule.NewState,
		Trigger:   rule.Trigger,
		Notes:     rule.Manifestation,
	}
	p.CurrentState = rule.NewState
	p.StateHistory = append(p.StateHistory, change)
	return change
}

// Summary is the listing-level view of a patient used by session state
// responses.
type PatientSummary struct {
	ID           string       `json:"patient_id"`
	Name         string       `json:"name"`
	Ward         string       `json:"ward"`
	Bed          string       `json:"bed"`
	CurrentState PatientState `json:"current_state"`
	ActionCount  int          `json:"actions_taken"`
}

// Summarize returns the listing-level view of the patient.
func (p *Patient) Summarize() PatientSummary {
	return PatientSummary{
		ID:           p.ID,
		Name:         p.Name,
		Ward:         p.Ward,
		Bed:          p.Bed,
		CurrentState: p.CurrentState,
		ActionCount:  len(p.ActionsTaken),
	}
}

// Details is the full per-patient view: demographics, state, history and
// actions.
type PatientDetails struct {
	ID           string          `json:"patient_id"`
	Name         string          `json:"name"`
	MRN          string          `json:"mrn"`
	Age          int             `json:"age"`
	Gender       string          `json:"gender"`
	Ward         string          `json:"ward"`
	Bed          string          `json:"bed"`
	CurrentState PatientState    `json:"current_state"`
	StateHistory []StateChange   `json:"state_history"`
	Actions      []PatientAction `json:"actions_taken"`
}

// Detail returns the full per-patient view.
func (p *Patient) Detail() PatientDetails {
	return PatientDetails{
		ID:           p.ID,
		Name:         p.Name,
		MRN:          p.MRN,
		Age:          p.Age,
		Gender:       p.Gender,
		Ward:         p.Ward,
		Bed:          p.Bed,
		CurrentState: p.CurrentState,
		StateHistory: p.StateHistory,
		Actions:      p.ActionsTaken,
	}
}
