// Package scenario loads ward scenario definitions from YAML and builds
// live sessions from them. A definition holds everything a shift needs:
// the patients, their scripted trajectories and health records, the
// nursing handover, and any pre-scheduled events.
//
// Times inside a definition are minutes relative to scenario start, so a
// scenario can be started at any wall-clock anchor without editing the
// file.
package scenario

import (
	"time"

	"wardsim/internal/ehr"
	"wardsim/internal/engine"
)

// timeLayout is the wall-clock format for start_time fields.
const timeLayout = "2006-01-02T15:04:05"

// Definition is one loadable scenario.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// StartTime anchors the simulated clock, e.g. "2024-03-15T20:00:00".
	StartTime string `yaml:"start_time"`

	Patients []PatientDef `yaml:"patients"`
	Events   []EventDef   `yaml:"events"`
}

// Start parses the scenario's clock anchor as UTC.
func (d *Definition) Start() (time.Time, error) {
	t, err := time.Parse(timeLayout, d.StartTime)
	if err != nil {
		return time.Time{}, engine.NewInvalidArgument(
			"scenario %q: invalid start_time %q: %v", d.ID, d.StartTime, err)
	}
	return t.UTC(), nil
}

// PatientDef is one patient in a scenario.
type PatientDef struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	MRN    string `yaml:"mrn"`
	Age    int    `yaml:"age"`
	Gender string `yaml:"gender"`
	Ward   string `yaml:"ward"`
	Bed    string `yaml:"bed"`

	InitialState engine.PatientState `yaml:"initial_state"`

	NursingImpression map[string]any `yaml:"nursing_impression"`

	Trajectory TrajectoryDef `yaml:"trajectory"`
	Record     *ehr.Record   `yaml:"record"`
}

// TrajectoryDef is the declarative trajectory for one patient.
type TrajectoryDef struct {
	Rules    []RuleDef              `yaml:"rules"`
	Findings map[string]FindingsDef `yaml:"findings"`
}

// RuleDef is one state-change rule. Trigger and deadline times are minutes
// from scenario start.
type RuleDef struct {
	ID              string              `yaml:"id"`
	Trigger         engine.TriggerKind  `yaml:"trigger"`
	TriggerMinutes  *int                `yaml:"trigger_minutes"`
	RequiredAction  engine.ActionKind   `yaml:"required_action"`
	DeadlineMinutes *int                `yaml:"deadline_minutes"`
	CurrentState    engine.PatientState `yaml:"current_state"`
	NewState        engine.PatientState `yaml:"new_state"`
	Manifestation   string              `yaml:"manifestation"`
	Notification    string              `yaml:"notification"`
	Urgency         engine.Urgency      `yaml:"urgency"`
}

// FindingsDef is the per-state examination material.
type FindingsDef struct {
	Observations        string `yaml:"observations"`
	InPersonNote        string `yaml:"in_person_note"`
	InPersonExamination string `yaml:"in_person_examination"`
}

// EventDef is one pre-scheduled event. AtMinutes is minutes from scenario
// start.
type EventDef struct {
	Kind      engine.EventKind `yaml:"kind"`
	AtMinutes int              `yaml:"at_minutes"`
	PatientID string           `yaml:"patient_id"`
	Priority  int              `yaml:"priority"`
	Message   string           `yaml:"message"`
	Payload   map[string]any   `yaml:"payload"`
}

// Summary is the listing-level view of a definition.
type Summary struct {
	ID          string `json:"scenario_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	Patients    int    `json:"patients"`
}

// Summarize returns the listing-level view.
func (d *Definition) Summarize() Summary {
	return Summary{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		StartTime:   d.StartTime,
		Patients:    len(d.Patients),
	}
}
