package scenario

import (
	"log/slog"
	"sync"
	"time"

	"wardsim/internal/ehr"
	"wardsim/internal/engine"
)

// Library holds the loaded scenario definitions and builds sessions from
// them. It implements engine.SessionFactory.
//
// Each created session gets its own record store; the library keeps the
// store keyed by session ID so the transport layer can serve record views
// for live sessions.
type Library struct {
	log    *slog.Logger
	ids    engine.IDGenerator
	source engine.TimeSource

	mu     sync.RWMutex
	defs   map[string]*Definition
	order  []string
	stores map[string]*ehr.Store
}

var _ engine.SessionFactory = (*Library)(nil)

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithIDGenerator overrides the session ID generator, used by tests.
func WithIDGenerator(gen engine.IDGenerator) LibraryOption {
	return func(l *Library) { l.ids = gen }
}

// WithTimeSource overrides the wall-clock source for new sessions, used by
// tests.
func WithTimeSource(src engine.TimeSource) LibraryOption {
	return func(l *Library) { l.source = src }
}

func NewLibrary(log *slog.Logger, opts ...LibraryOption) *Library {
	if log == nil {
		log = slog.Default()
	}
	l := &Library{
		log:    log,
		ids:    engine.UUIDGenerator{},
		source: engine.SystemTimeSource,
		defs:   make(map[string]*Definition),
		stores: make(map[string]*ehr.Store),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add registers a definition. Duplicate IDs are rejected.
func (l *Library) Add(def *Definition) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.defs[def.ID]; ok {
		return engine.NewInvalidArgument("duplicate scenario id %q", def.ID)
	}
	l.defs[def.ID] = def
	l.order = append(l.order, def.ID)
	return nil
}

// Get returns a definition by ID.
func (l *Library) Get(id string) (*Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.defs[id]
	if !ok {
		return nil, engine.NewScenarioNotFound(id)
	}
	return def, nil
}

// List returns summaries in load order.
func (l *Library) List() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Summary, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.defs[id].Summarize())
	}
	return out
}

// Len returns the number of loaded definitions.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.defs)
}

// Store returns the record store for a live session, or nil if unknown.
func (l *Library) Store(sessionID string) *ehr.Store {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stores[sessionID]
}

// DropStore discards a session's record store. Called when the session is
// deleted.
func (l *Library) DropStore(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.stores, sessionID)
}

// CreateSession builds a live session from a definition. A non-nil
// customStart overrides the scenario's clock anchor.
func (l *Library) CreateSession(scenarioID string, customStart *time.Time) (*engine.Session, error) {
	def, err := l.Get(scenarioID)
	if err != nil {
		return nil, err
	}

	start, err := def.Start()
	if err != nil {
		return nil, err
	}
	if customStart != nil {
		start = customStart.UTC()
	}

	store := ehr.NewStore()
	clock := engine.NewClock(start, l.source)
	sess := engine.NewSession(l.ids.ID("sess"), def.ID, clock,
		engine.WithRecordSink(store),
		engine.WithIDGenerator(l.ids),
	)

	for i := range def.Patients {
		p := buildPatient(&def.Patients[i], start)
		sess.AddPatient(p)
		if rec := def.Patients[i].Record; rec != nil {
			r := *rec
			r.PatientID = p.ID
			store.AddRecord(&r)
		}
	}

	for _, evDef := range def.Events {
		payload := evDef.Payload
		if evDef.Message != "" {
			if payload == nil {
				payload = map[string]any{}
			}
			payload["notification_message"] = evDef.Message
		}
		sess.ScheduleEvent(&engine.Event{
			ID:        l.ids.ID("evt"),
			Kind:      evDef.Kind,
			PatientID: evDef.PatientID,
			Payload:   payload,
		}, start.Add(time.Duration(evDef.AtMinutes)*time.Minute), evDef.Priority)
	}

	l.mu.Lock()
	l.stores[sess.ID] = store
	l.mu.Unlock()

	l.log.Info("session created from scenario",
		"scenario_id", def.ID,
		"session_id", sess.ID,
		"start", start,
		"patients", len(def.Patients),
		"events", len(def.Events))
	return sess, nil
}

// buildPatient converts a definition patient into a live one, resolving
// relative rule times against the scenario start.
func buildPatient(def *PatientDef, start time.Time) *engine.Patient {
	state := def.InitialState
	if state == "" {
		state = engine.StateStable
	}

	traj := &engine.Trajectory{
		ID:       def.ID + "_trajectory",
		Findings: make(map[engine.PatientState]engine.ExaminationFindings, len(def.Trajectory.Findings)),
	}
	for _, rd := range def.Trajectory.Rules {
		rule := engine.StateChangeRule{
			ID:                      rd.ID,
			Trigger:                 rd.Trigger,
			RequiredAction:          rd.RequiredAction,
			CurrentStateRequirement: rd.CurrentState,
			NewState:                rd.NewState,
			Manifestation:           rd.Manifestation,
			NotificationMessage:     rd.Notification,
			Urgency:                 rd.Urgency,
		}
		if rd.TriggerMinutes != nil {
			at := start.Add(time.Duration(*rd.TriggerMinutes) * time.Minute)
			rule.TriggerTime = &at
		}
		if rd.DeadlineMinutes != nil {
			at := start.Add(time.Duration(*rd.DeadlineMinutes) * time.Minute)
			rule.ActionDeadline = &at
		}
		traj.Rules = append(traj.Rules, rule)
	}
	for stateName, f := range def.Trajectory.Findings {
		traj.Findings[engine.PatientState(stateName)] = engine.ExaminationFindings{
			Observations:        f.Observations,
			InPersonNote:        f.InPersonNote,
			InPersonExamination: f.InPersonExamination,
		}
	}

	return &engine.Patient{
		ID:                def.ID,
		Name:              def.Name,
		MRN:               def.MRN,
		Age:               def.Age,
		Gender:            def.Gender,
		Ward:              def.Ward,
		Bed:               def.Bed,
		CurrentState:      state,
		Trajectory:        traj,
		NursingImpression: def.NursingImpression,
	}
}
