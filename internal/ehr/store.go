package ehr

import (
	"sync"
	"time"

	"wardsim/internal/engine"
)

// Store holds the records for one session's patients. It implements
// engine.RecordSink, so the engine can write review and progress notes
// without knowing the record structure.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
}

var _ engine.RecordSink = (*Store)(nil)

func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// AddRecord registers a patient's scripted record.
func (s *Store) AddRecord(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.PatientID] = r
}

// HasRecord reports whether a record exists for the patient.
func (s *Store) HasRecord(patientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[patientID]
	return ok
}

// AddClinicalNote appends an engine-written note as an always-visible
// record entry. Unknown patients are ignored; the engine checks HasRecord
// before writing.
func (s *Store) AddClinicalNote(patientID string, note engine.ClinicalNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[patientID]
	if !ok {
		return
	}
	r.Notes = append(r.Notes, Note{
		Type:       note.Type,
		Timestamp:  note.Timestamp,
		Author:     note.Author,
		AuthorRole: note.AuthorRole,
		Title:      note.Title,
		Content:    note.Content,
	})
}

// AddResult appends an investigation result, typically when a scheduled
// result event is delivered.
func (s *Store) AddResult(patientID string, res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[patientID]; ok {
		r.Results = append(r.Results, res)
	}
}

// AddInvestigationResult stores a delivered result as an always-visible
// entry. The scheduler already held it back until the resulted time, so no
// further visibility gate applies.
func (s *Store) AddInvestigationResult(patientID, investigation, findings string, reportedAt time.Time) {
	s.AddResult(patientID, Result{
		Investigation: investigation,
		ReportedAt:    reportedAt,
		Findings:      findings,
		Visibility:    Condition{Kind: VisibilityAlways},
	})
}

// View returns the record filtered by visibility at view time, and marks
// the record opened so ehr_reviewed entries surface on subsequent views.
// Returns an invalid-argument error for unknown patients.
func (s *Store) View(patientID string, ctx ViewContext) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[patientID]
	if !ok {
		return nil, engine.NewInvalidArgument("no health record for patient %q", patientID)
	}

	wasOpened := r.opened
	r.opened = true

	view := &View{
		PatientID:           r.PatientID,
		PresentingComplaint: r.PresentingComplaint,
		Background:          r.Background,
		Medications:         r.Medications,
		Allergies:           r.Allergies,
		Notes:               []Note{},
		Results:             []Result{},
	}
	for _, n := range r.Notes {
		if n.Visibility.visible(ctx, wasOpened) {
			view.Notes = append(view.Notes, n)
		} else {
			view.HiddenEntries++
		}
	}
	for _, res := range r.Results {
		if res.Visibility.visible(ctx, wasOpened) {
			view.Results = append(view.Results, res)
		} else {
			view.HiddenEntries++
		}
	}
	return view, nil
}
