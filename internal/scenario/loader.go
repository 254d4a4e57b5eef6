package scenario

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"wardsim/internal/engine"
)

// Load reads and validates one scenario file.
func Load(path string, log *slog.Logger) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", filepath.Base(path), err)
	}

	if err := Validate(&def, log); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", filepath.Base(path), err)
	}
	return &def, nil
}

// LoadDir loads every *.yaml and *.yml file in dir into a Library, sorted
// by scenario ID.
func LoadDir(dir string, log *slog.Logger, opts ...LibraryOption) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory: %w", err)
	}

	lib := NewLibrary(log, opts...)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := Load(filepath.Join(dir, entry.Name()), log)
		if err != nil {
			return nil, err
		}
		if err := lib.Add(def); err != nil {
			return nil, err
		}
	}

	log.Info("scenarios loaded", "dir", dir, "count", lib.Len())
	return lib, nil
}

// Validate checks a definition for structural problems: missing or
// duplicate identifiers, unknown enum values, rules missing the fields
// their trigger needs, and events referencing unknown patients. Rules with
// the investigation_received trigger are legal but inert; a warning is
// logged for each so scenario authors notice.
func Validate(def *Definition, log *slog.Logger) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if def.ID == "" {
		addf("missing scenario id")
	}
	if _, err := def.Start(); err != nil {
		addf("%v", err)
	}
	if len(def.Patients) == 0 {
		addf("scenario has no patients")
	}

	patientIDs := make(map[string]bool, len(def.Patients))
	for i, p := range def.Patients {
		if p.ID == "" {
			addf("patient %d: missing id", i)
			continue
		}
		if patientIDs[p.ID] {
			addf("duplicate patient id %q", p.ID)
		}
		patientIDs[p.ID] = true

		if p.InitialState != "" && !p.InitialState.Valid() {
			addf("patient %q: unknown initial_state %q", p.ID, p.InitialState)
		}

		ruleIDs := make(map[string]bool, len(p.Trajectory.Rules))
		for j, r := range p.Trajectory.Rules {
			where := fmt.Sprintf("patient %q rule %d", p.ID, j)
			if r.ID != "" {
				if ruleIDs[r.ID] {
					addf("%s: duplicate rule id %q", where, r.ID)
				}
				ruleIDs[r.ID] = true
				where = fmt.Sprintf("patient %q rule %q", p.ID, r.ID)
			}

			if !r.Trigger.Valid() {
				addf("%s: unknown trigger %q", where, r.Trigger)
				continue
			}
			if !r.NewState.Valid() {
				addf("%s: unknown new_state %q", where, r.NewState)
			}
			if r.CurrentState != "" && !r.CurrentState.Valid() {
				addf("%s: unknown current_state %q", where, r.CurrentState)
			}

			switch r.Trigger {
			case engine.TriggerTimeElapsed:
				if r.TriggerMinutes == nil {
					addf("%s: time_elapsed trigger needs trigger_minutes", where)
				}
			case engine.TriggerActionTaken:
				if !r.RequiredAction.Valid() {
					addf("%s: action_taken trigger needs a valid required_action", where)
				}
			case engine.TriggerActionNotTaken:
				if !r.RequiredAction.Valid() {
					addf("%s: action_not_taken trigger needs a valid required_action", where)
				}
				if r.DeadlineMinutes == nil {
					addf("%s: action_not_taken trigger needs deadline_minutes", where)
				}
			case engine.TriggerInvestigationReceived:
				log.Warn("rule uses the investigation_received trigger, which never fires",
					"scenario", def.ID, "patient", p.ID, "rule", r.ID)
			}
		}

		for state := range p.Trajectory.Findings {
			if !engine.PatientState(state).Valid() {
				addf("patient %q: findings for unknown state %q", p.ID, state)
			}
		}

		if p.Record != nil && p.Record.PatientID != "" && p.Record.PatientID != p.ID {
			addf("patient %q: record patient_id %q does not match", p.ID, p.Record.PatientID)
		}
	}

	for i, ev := range def.Events {
		if !ev.Kind.Valid() {
			addf("event %d: unknown kind %q", i, ev.Kind)
		}
		if ev.PatientID != "" && !patientIDs[ev.PatientID] {
			addf("event %d: unknown patient_id %q", i, ev.PatientID)
		}
		if ev.AtMinutes < 0 {
			addf("event %d: negative at_minutes", i)
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid definition:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
