// Package engine implements the wardsim discrete-event simulation engine.
//
// The engine drives a timed clinical-training exercise: a trainee takes
// discrete actions against simulated patients, and every action advances a
// hybrid simulation clock, fires any domain events scheduled for the elapsed
// interval, and re-evaluates each patient's declarative trajectory rules.
//
// ARCHITECTURE:
//
// Per-Session Serialization:
// Each Session owns its clock, event scheduler, patients, and logs, and
// serializes all mutating operations behind a single mutex. Independent
// sessions execute fully in parallel; the only cross-session shared state is
// the Registry table, which has its own lock.
//
// Action Execution Flow:
// 1. Execute() validates the target patient (an unknown patient is a soft
//    failure, not an error - see errors.go for the distinction)
// 2. The clock advances by the action's artificial time cost plus whatever
//    real wall time has passed
// 3. Due events drain from the scheduler in (time, priority, insertion) order,
//    at most once each
// 4. Every patient in the session is re-evaluated against its trajectory
//    rules - an action on one patient can push the clock past another
//    patient's deadline
// 5. The action, its notifications, and any state changes are appended to the
//    session's append-only history
//
// CRITICAL PATTERNS:
//
// Hybrid Clock:
// Simulation time = scenario start + real elapsed minutes + artificial
// minutes. Wall-clock reads go through the TimeSource interface so tests can
// substitute a fake and make every derived value deterministic.
//
// Deterministic Evaluation:
// Trajectory rules are evaluated in declaration order, first match wins.
// Patients are re-evaluated in their scenario declaration order. Equal-key
// scheduler entries fall back to an explicit insertion sequence. Given the
// same actions and timings, a session replays identically.
package engine
