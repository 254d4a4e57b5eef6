// Package ehr holds the simulated electronic health record: per-patient
// demographics, background, medications, notes and investigation results.
//
// Record entries carry visibility conditions so that information is revealed
// progressively: some content is present from the start, some appears only
// after time passes, after the trainee takes a particular action, or after
// the record has been opened once before. The trainee never sees the full
// scripted record up front.
package ehr

import (
	"time"

	"wardsim/internal/engine"
)

// Visibility is the condition class gating a record entry.
type Visibility string

const (
	// VisibilityAlways shows the entry unconditionally.
	VisibilityAlways Visibility = "always"

	// VisibilityTimeElapsed shows the entry once the given number of
	// simulated minutes have passed since scenario start.
	VisibilityTimeElapsed Visibility = "time_elapsed"

	// VisibilityActionTaken shows the entry once the named action has been
	// taken on the patient.
	VisibilityActionTaken Visibility = "action_taken"

	// VisibilityReviewInPerson shows the entry once the patient has been
	// reviewed at the bedside.
	VisibilityReviewInPerson Visibility = "review_in_person"

	// VisibilityInvestigationOrdered shows the entry once any investigation
	// has been requested for the patient.
	VisibilityInvestigationOrdered Visibility = "investigation_ordered"

	// VisibilityEHRReviewed shows the entry from the second time the record
	// is opened. The first open reveals it for subsequent views.
	VisibilityEHRReviewed Visibility = "ehr_reviewed"
)

// Condition is one visibility gate on a record entry. The zero value is
// always-visible.
type Condition struct {
	Kind         Visibility        `yaml:"kind" json:"kind"`
	AfterMinutes int               `yaml:"after_minutes,omitempty" json:"after_minutes,omitempty"`
	Action       engine.ActionKind `yaml:"action,omitempty" json:"action,omitempty"`
}

// ViewContext carries the session state a visibility check needs.
type ViewContext struct {
	Now           time.Time
	ScenarioStart time.Time

	// HasTaken reports whether the viewing session has taken the given
	// action on the record's patient.
	HasTaken func(engine.ActionKind) bool
}

// visible evaluates the condition against the viewing context. recordOpened
// reports whether the record had been opened before this view.
func (c Condition) visible(ctx ViewContext, recordOpened bool) bool {
	switch c.Kind {
	case "", VisibilityAlways:
		return true
	case VisibilityTimeElapsed:
		due := ctx.ScenarioStart.Add(time.Duration(c.AfterMinutes) * time.Minute)
		return !ctx.Now.Before(due)
	case VisibilityActionTaken:
		return ctx.HasTaken != nil && ctx.HasTaken(c.Action)
	case VisibilityReviewInPerson:
		return ctx.HasTaken != nil && ctx.HasTaken(engine.ActionReviewInPerson)
	case VisibilityInvestigationOrdered:
		return ctx.HasTaken != nil && ctx.HasTaken(engine.ActionRequestInvestigation)
	case VisibilityEHRReviewed:
		return recordOpened
	}
	return false
}

// Note is one clinical note in the record.
type Note struct {
	Type       string    `yaml:"type" json:"note_type"`
	Timestamp  time.Time `yaml:"-" json:"timestamp"`
	Author     string    `yaml:"author" json:"author"`
	AuthorRole string    `yaml:"author_role" json:"author_role"`
	Title      string    `yaml:"title" json:"title"`
	Content    string    `yaml:"content" json:"content"`
	Visibility Condition `yaml:"visibility,omitempty" json:"-"`
}

// Result is one investigation result in the record.
type Result struct {
	Investigation string    `yaml:"investigation" json:"investigation"`
	ReportedAt    time.Time `yaml:"-" json:"reported_at"`
	Findings      string    `yaml:"findings" json:"findings"`
	Visibility    Condition `yaml:"visibility,omitempty" json:"-"`
}

// Medication is one entry on the drug chart.
type Medication struct {
	Name      string `yaml:"name" json:"name"`
	Dose      string `yaml:"dose" json:"dose"`
	Route     string `yaml:"route" json:"route"`
	Frequency string `yaml:"frequency" json:"frequency"`
}

// Record is the full scripted health record for one patient. Mutable parts
// (notes and results added during the simulation) go through the Store.
type Record struct {
	PatientID string `yaml:"patient_id" json:"patient_id"`

	PresentingComplaint string       `yaml:"presenting_complaint" json:"presenting_complaint"`
	Background          string       `yaml:"background" json:"background"`
	Medications         []Medication `yaml:"medications" json:"medications"`
	Allergies           []string     `yaml:"allergies" json:"allergies"`

	Notes   []Note   `yaml:"notes" json:"-"`
	Results []Result `yaml:"results" json:"-"`

	opened bool
}

// View is the filtered record returned to the trainee: only entries whose
// visibility condition holds at view time.
type View struct {
	PatientID           string       `json:"patient_id"`
	PresentingComplaint string       `json:"presenting_complaint"`
	Background          string       `json:"background"`
	Medications         []Medication `json:"medications"`
	Allergies           []string     `json:"allergies"`
	Notes               []Note       `json:"notes"`
	Results             []Result     `json:"results"`
	HiddenEntries       int          `json:"hidden_entries"`
}
