package engine

import "time"

// EventKind distinguishes the closed set of domain events a scenario can
// schedule.
type EventKind string

const (
	// EventInvestigationResult fires when an ordered investigation becomes
	// available.
	EventInvestigationResult EventKind = "investigation_result"

	// EventPatientDeterioration fires for scripted deterioration moments.
	EventPatientDeterioration EventKind = "patient_deterioration"

	// EventNewRequest fires when a ward raises a new request or bleep.
	EventNewRequest EventKind = "new_request"

	// EventEscalationResponse fires when a senior responds to an escalation.
	EventEscalationResponse EventKind = "escalation_response"
)

// Valid reports whether the kind is in the closed set.
func (k EventKind) Valid() bool {
	switch k {
	case EventInvestigationResult, EventPatientDeterioration, EventNewRequest, EventEscalationResponse:
		return true
	}
	return false
}

// payloadMessageKey overrides the templated notification text when present.
const payloadMessageKey = "notification_message"

// Event is a scheduled occurrence in the simulation. Identity, kind, patient
// association and payload are immutable after construction; ScheduledTime is
// owned by the Scheduler (Schedule overwrites it with the caller's time), and
// the processed flag transitions false->true exactly once when the event is
// drained.
type Event struct {
	ID            string
	Kind          EventKind
	ScheduledTime time.Time
	PatientID     string
	Payload       map[string]any

	processed bool
}

// Processed reports whether the event has been delivered.
func (e *Event) Processed() bool { return e.processed }

// markProcessed flips the delivery flag. Returns false if the event was
// already delivered, enforcing at-most-once semantics.
func (e *Event) markProcessed() bool {
	if e.processed {
		return false
	}
	e.processed = true
	return true
}

// message returns the payload override for the notification text, or the
// fallback template.
func (e *Event) message(fallback string) string {
	if e.Payload != nil {
		if m, ok := e.Payload[payloadMessageKey].(string); ok && m != "" {
			return m
		}
	}
	return fallback
}
