package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardsim/internal/ehr"
	"wardsim/internal/engine"
	"wardsim/internal/nurse"
	"wardsim/internal/scenario"
	"wardsim/internal/testutil"
)

func intPtr(n int) *int { return &n }

func testDefinition() *scenario.Definition {
	return &scenario.Definition{
		ID:        "night_shift",
		Name:      "Night shift on Ward 7",
		StartTime: "2024-03-15T20:00:00",
		Patients: []scenario.PatientDef{
			{
				ID:           "patient_1",
				Name:         "Margaret Hale",
				Ward:         "Ward 7",
				Bed:          "12",
				InitialState: engine.StateStable,
				NursingImpression: map[string]any{
					"general_impression": "She's been quiet this evening.",
					"breathing":          "More puffed than earlier.",
				},
				Trajectory: scenario.TrajectoryDef{
					Rules: []scenario.RuleDef{{
						ID:             "deteriorates",
						Trigger:        engine.TriggerTimeElapsed,
						TriggerMinutes: intPtr(30),
						CurrentState:   engine.StateStable,
						NewState:       engine.StateDeteriorating,
						Notification:   "Nurse: Margaret Hale looks worse.",
						Urgency:        engine.UrgencyHigh,
					}},
					Findings: map[string]scenario.FindingsDef{
						"stable": {
							Observations:        "RR 18, SpO2 94% on air, HR 88, BP 132/78, T 37.2, alert",
							InPersonNote:        "Mild wheeze.",
							InPersonExamination: "Talking in full sentences, scattered wheeze.",
						},
					},
				},
				Record: &ehr.Record{
					PresentingComplaint: "Shortness of breath",
					Notes: []ehr.Note{
						{Title: "Admission clerking", Content: "Admitted overnight."},
						{
							Title:      "Old discharge summary",
							Content:    "Slow recovery in January.",
							Visibility: ehr.Condition{Kind: ehr.VisibilityEHRReviewed},
						},
					},
				},
			},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *testutil.FakeTimeSource) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := testutil.NewFakeTimeSource(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	lib := scenario.NewLibrary(log,
		scenario.WithIDGenerator(engine.NewFixedIDGenerator()),
		scenario.WithTimeSource(src),
	)
	require.NoError(t, lib.Add(testDefinition()))

	svc := engine.NewService(lib, log)
	return NewServer(svc, lib, nurse.TopicResponder{}, log), src
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func startTestSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/start",
		map[string]string{"scenario_id": "night_shift"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	state := decode[engine.SessionState](t, rec)
	return state.SessionID
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListScenarios(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string][]scenario.Summary](t, rec)
	require.Len(t, body["scenarios"], 1)
	assert.Equal(t, "night_shift", body["scenarios"][0].ID)
}

func TestStartSessionAndState(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)
	assert.Equal(t, "sess_00000001", id)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[engine.SessionState](t, rec)
	assert.Equal(t, "night_shift", state.ScenarioID)
	assert.Equal(t, "20:00", state.Clock.FormattedTime)
	require.Len(t, state.Patients, 1)
}

func TestStartSessionUnknownScenario(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/start",
		map[string]string{"scenario_id": "day_shift"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SCENARIO_NOT_FOUND", body.Error.Code)
}

func TestExecuteActionFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/actions",
		map[string]any{"action_type": "review_in_person", "patient_id": "patient_1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[engine.ActionResult](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, 30, result.TimeAdvancedMinutes)
	require.Len(t, result.PatientStateChanges, 1)
	assert.Equal(t, engine.StateDeteriorating, result.PatientStateChanges[0].NewState)
}

func TestExecuteActionUnknownPatientSoftFails(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/actions",
		map[string]any{"action_type": "escalate", "patient_id": "patient_ghost"})
	require.Equal(t, http.StatusOK, rec.Code, "soft failure still returns 200")

	result := decode[engine.ActionResult](t, rec)
	assert.False(t, result.Success)
}

func TestExecuteActionInvalidKind(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/actions",
		map[string]any{"action_type": "teleport", "patient_id": "patient_1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteSessionAndConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[engine.SessionSummary](t, rec)
	assert.Equal(t, id, summary.SessionID)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/actions",
		map[string]any{"action_type": "escalate", "patient_id": "patient_1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPatientDetailsIncludesScoredObservations(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/patients/patient_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		CurrentState string `json:"current_state"`
		Observations *struct {
			Text  string `json:"text"`
			Signs struct {
				RespiratoryRate int `json:"respiratory_rate"`
				SpO2            int `json:"spo2"`
			} `json:"signs"`
			NEWS2 struct {
				Total int    `json:"total"`
				Risk  string `json:"risk"`
			} `json:"news2"`
		} `json:"observations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stable", body.CurrentState)
	require.NotNil(t, body.Observations)
	assert.Equal(t, 18, body.Observations.Signs.RespiratoryRate)
	assert.Equal(t, 94, body.Observations.Signs.SpO2)
	assert.Equal(t, 1, body.Observations.NEWS2.Total)
	assert.Equal(t, "low", body.Observations.NEWS2.Risk)
}

func TestPatientRecordProgressiveReveal(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/patients/patient_1/record", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[ehr.View](t, rec)
	require.Len(t, first.Notes, 1)
	assert.Equal(t, 1, first.HiddenEntries)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/patients/patient_1/record", nil)
	second := decode[ehr.View](t, rec)
	assert.Len(t, second.Notes, 2, "ehr_reviewed entry appears on the second open")
}

func TestNurseQuestion(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/patients/patient_1/nurse",
		map[string]string{"question": "How has her breathing been?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Answer nurse.Answer `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "breathing", body.Answer.Topic)
	assert.Contains(t, body.Answer.Text, "puffed")

	// The question shows up as an action on the timeline.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/timeline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var timeline struct {
		Timeline []engine.TimelineEntry `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	require.Len(t, timeline.Timeline, 1)
	assert.Equal(t, "action", timeline.Timeline[0].Kind)
}

func TestDeleteSession(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	startTestSession(t, srv)
	startTestSession(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sessions []engine.SessionState `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Sessions, 2)
}
