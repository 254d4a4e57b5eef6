package engine

import (
	"container/heap"
	"time"
)

// Scheduler is the time-ordered queue of pending domain events.
//
// Entries are ordered by (scheduled time asc, priority asc, insertion seq
// asc). The insertion sequence is an explicit tie-break: events scheduled at
// the same time with the same priority drain in the order they were
// scheduled, rather than in whatever order the heap happens to produce.
//
// DrainDue is the scheduler's only state-mutating read and is deliberately
// not idempotent: the first call at a given time returns the due events,
// a second call returns nothing. Delivery is at most once.
//
// Thread-safety: Scheduler is not synchronized. The owning Session
// serializes access behind its mutex.
type Scheduler struct {
	entries entryHeap
	seq     int64
}

type entry struct {
	at       time.Time
	priority int
	seq      int64
	event    *Event
}

// entryHeap implements heap.Interface with deterministic ordering.
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = entry{} // release the event pointer
	*h = old[:n-1]
	return item
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{entries: make(entryHeap, 0, 16)}
	heap.Init(&s.entries)
	return s
}

// Schedule inserts an event to fire at the given simulation time. Lower
// priority values fire first among equal times. The event's ScheduledTime is
// overwritten with the argument: the caller's view of "when" always wins over
// any stale value on the event.
func (s *Scheduler) Schedule(ev *Event, at time.Time, priority int) {
	ev.ScheduledTime = at
	s.seq++
	heap.Push(&s.entries, entry{at: at, priority: priority, seq: s.seq, event: ev})
}

// DrainDue removes and returns all events scheduled at or before now, in
// (time, priority, insertion) order, marking each processed. Events already
// marked processed are skipped, not re-returned; under normal use that case
// cannot occur because entries are removed on first pop. Returns nil when
// nothing is due.
func (s *Scheduler) DrainDue(now time.Time) []*Event {
	var due []*Event
	for s.entries.Len() > 0 && !s.entries[0].at.After(now) {
		e := heap.Pop(&s.entries).(entry)
		if e.event.markProcessed() {
			due = append(due, e.event)
		}
	}
	return due
}

// PendingCount returns the number of undelivered events in the queue.
// Read-only.
func (s *Scheduler) PendingCount() int {
	n := 0
	for _, e := range s.entries {
		if !e.event.Processed() {
			n++
		}
	}
	return n
}

// PeekNextTime returns the earliest scheduled time without mutating the
// queue. The second return is false when the queue is empty.
func (s *Scheduler) PeekNextTime() (time.Time, bool) {
	if s.entries.Len() == 0 {
		return time.Time{}, false
	}
	return s.entries[0].at, true
}

// SchedulerState is the introspection snapshot exposed through the API.
type SchedulerState struct {
	TotalEvents   int    `json:"total_events"`
	PendingEvents int    `json:"pending_events"`
	NextEventTime string `json:"next_event_time,omitempty"`
}

// State captures the scheduler for display.
func (s *Scheduler) State() SchedulerState {
	st := SchedulerState{
		TotalEvents:   s.entries.Len(),
		PendingEvents: s.PendingCount(),
	}
	if next, ok := s.PeekNextTime(); ok {
		st.NextEventTime = next.Format(time.RFC3339)
	}
	return st
}
