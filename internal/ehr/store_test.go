package ehr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardsim/internal/engine"
)

var scenarioStart = time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

func hasNone(engine.ActionKind) bool { return false }

func viewAt(minutes int, hasTaken func(engine.ActionKind) bool) ViewContext {
	return ViewContext{
		Now:           scenarioStart.Add(time.Duration(minutes) * time.Minute),
		ScenarioStart: scenarioStart,
		HasTaken:      hasTaken,
	}
}

func newTestStore() *Store {
	s := NewStore()
	s.AddRecord(&Record{
		PatientID:           "patient_1",
		PresentingComplaint: "Shortness of breath",
		Background:          "COPD, hypertension",
		Allergies:           []string{"penicillin"},
		Notes: []Note{
			{Title: "Admission clerking", Content: "Admitted overnight."},
			{
				Title:      "Old discharge summary",
				Content:    "Two admissions with infective exacerbations this year.",
				Visibility: Condition{Kind: VisibilityEHRReviewed},
			},
			{
				Title:      "Nursing entry",
				Content:    "Increasing oxygen requirement since 21:00.",
				Visibility: Condition{Kind: VisibilityTimeElapsed, AfterMinutes: 60},
			},
			{
				Title:      "Bedside impression",
				Content:    "Tripoding, accessory muscle use.",
				Visibility: Condition{Kind: VisibilityReviewInPerson},
			},
		},
	})
	return s
}

func TestViewUnknownPatient(t *testing.T) {
	s := NewStore()
	_, err := s.View("patient_ghost", viewAt(0, hasNone))
	require.Error(t, err)
	assert.Equal(t, engine.ErrCodeInvalidArgument, engine.CodeOf(err))
}

func TestViewShowsAlwaysVisibleEntries(t *testing.T) {
	s := newTestStore()

	view, err := s.View("patient_1", viewAt(0, hasNone))
	require.NoError(t, err)

	require.Len(t, view.Notes, 1)
	assert.Equal(t, "Admission clerking", view.Notes[0].Title)
	assert.Equal(t, 3, view.HiddenEntries)
	assert.Equal(t, "Shortness of breath", view.PresentingComplaint)
	assert.Equal(t, []string{"penicillin"}, view.Allergies)
}

func TestTimeElapsedEntryAppears(t *testing.T) {
	s := newTestStore()

	view, err := s.View("patient_1", viewAt(59, hasNone))
	require.NoError(t, err)
	assert.Len(t, view.Notes, 1)

	view, err = s.View("patient_1", viewAt(60, hasNone))
	require.NoError(t, err)
	titles := noteTitles(view)
	assert.Contains(t, titles, "Nursing entry")
}

func TestEHRReviewedEntryAppearsOnSecondView(t *testing.T) {
	s := newTestStore()

	first, err := s.View("patient_1", viewAt(0, hasNone))
	require.NoError(t, err)
	assert.NotContains(t, noteTitles(first), "Old discharge summary")

	second, err := s.View("patient_1", viewAt(0, hasNone))
	require.NoError(t, err)
	assert.Contains(t, noteTitles(second), "Old discharge summary")
}

func TestActionGatedEntry(t *testing.T) {
	s := newTestStore()

	reviewed := func(k engine.ActionKind) bool { return k == engine.ActionReviewInPerson }
	view, err := s.View("patient_1", viewAt(0, reviewed))
	require.NoError(t, err)
	assert.Contains(t, noteTitles(view), "Bedside impression")
}

func TestAddClinicalNoteFromEngine(t *testing.T) {
	s := newTestStore()

	s.AddClinicalNote("patient_1", engine.ClinicalNote{
		Type:      "progress",
		Timestamp: scenarioStart.Add(30 * time.Minute),
		Author:    "You",
		Title:     "Progress note",
		Content:   "Plan unchanged.",
	})

	view, err := s.View("patient_1", viewAt(30, hasNone))
	require.NoError(t, err)
	assert.Contains(t, noteTitles(view), "Progress note",
		"engine-written notes are always visible")

	// Writes to unknown patients are dropped, not panics.
	s.AddClinicalNote("patient_ghost", engine.ClinicalNote{Title: "Orphan"})
}

func TestAddResultVisibility(t *testing.T) {
	s := newTestStore()
	s.AddResult("patient_1", Result{
		Investigation: "chest_xray",
		ReportedAt:    scenarioStart.Add(45 * time.Minute),
		Findings:      "Right lower zone consolidation.",
	})

	view, err := s.View("patient_1", viewAt(45, hasNone))
	require.NoError(t, err)
	require.Len(t, view.Results, 1)
	assert.Equal(t, "chest_xray", view.Results[0].Investigation)
}

func noteTitles(v *View) []string {
	titles := make([]string, 0, len(v.Notes))
	for _, n := range v.Notes {
		titles = append(titles, n.Title)
	}
	return titles
}
