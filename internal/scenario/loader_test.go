package scenario

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardsim/internal/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadNightShift(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "night_shift.yaml"), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "night_shift", def.ID)
	assert.Equal(t, "Night shift on Ward 7", def.Name)
	require.Len(t, def.Patients, 2)
	require.Len(t, def.Events, 2)

	start, err := def.Start()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC), start)

	margaret := def.Patients[0]
	assert.Equal(t, "patient_1", margaret.ID)
	assert.Equal(t, engine.StateStable, margaret.InitialState)
	require.Len(t, margaret.Trajectory.Rules, 3)
	assert.Equal(t, engine.TriggerTimeElapsed, margaret.Trajectory.Rules[0].Trigger)
	require.NotNil(t, margaret.Trajectory.Rules[0].TriggerMinutes)
	assert.Equal(t, 30, *margaret.Trajectory.Rules[0].TriggerMinutes)

	require.NotNil(t, margaret.Record)
	assert.Equal(t, []string{"penicillin"}, margaret.Record.Allergies)
	require.Len(t, margaret.Record.Notes, 2)
	assert.Equal(t, "ehr_reviewed", string(margaret.Record.Notes[1].Visibility.Kind))
}

func TestLoadDirBuildsLibrary(t *testing.T) {
	lib, err := LoadDir("testdata", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, lib.Len())

	summaries := lib.List()
	require.Len(t, summaries, 1)
	assert.Equal(t, "night_shift", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].Patients)
}

func TestValidateRejectsBrokenDefinition(t *testing.T) {
	minutes := 30
	def := &Definition{
		ID:        "broken",
		StartTime: "not-a-time",
		Patients: []PatientDef{
			{
				ID:           "patient_1",
				InitialState: "wobbly",
				Trajectory: TrajectoryDef{Rules: []RuleDef{
					{ID: "r1", Trigger: "time_elapsed", NewState: "deteriorating"},
					{ID: "r1", Trigger: "explodes", NewState: "deteriorating", TriggerMinutes: &minutes},
					{ID: "r2", Trigger: "action_not_taken", NewState: "deteriorating"},
				}},
			},
			{ID: "patient_1"},
		},
		Events: []EventDef{
			{Kind: "meteor_strike", AtMinutes: -5, PatientID: "patient_9"},
		},
	}

	err := Validate(def, discardLogger())
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "invalid start_time")
	assert.Contains(t, msg, `unknown initial_state "wobbly"`)
	assert.Contains(t, msg, "needs trigger_minutes")
	assert.Contains(t, msg, `unknown trigger "explodes"`)
	assert.Contains(t, msg, "duplicate rule id")
	assert.Contains(t, msg, "needs a valid required_action")
	assert.Contains(t, msg, "needs deadline_minutes")
	assert.Contains(t, msg, `duplicate patient id "patient_1"`)
	assert.Contains(t, msg, `unknown kind "meteor_strike"`)
	assert.Contains(t, msg, `unknown patient_id "patient_9"`)
	assert.Contains(t, msg, "negative at_minutes")
}

func TestValidateWarnsOnInertTrigger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	def := &Definition{
		ID:        "inert",
		StartTime: "2024-03-15T20:00:00",
		Patients: []PatientDef{{
			ID: "patient_1",
			Trajectory: TrajectoryDef{Rules: []RuleDef{{
				ID:       "never_fires",
				Trigger:  engine.TriggerInvestigationReceived,
				NewState: engine.StateDeteriorating,
			}}},
		}},
	}

	require.NoError(t, Validate(def, log))
	assert.Contains(t, buf.String(), "never fires")
}
