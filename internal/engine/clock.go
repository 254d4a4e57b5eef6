package engine

import "time"

// TimeSource abstracts wall-clock reads so that simulation time becomes a
// pure function of (source.Now(), sessionStart, scenarioStart, artificial
// minutes). Production uses SystemTimeSource; tests supply a fake.
type TimeSource interface {
	Now() time.Time
}

type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time { return time.Now() }

// SystemTimeSource reads the real wall clock.
var SystemTimeSource TimeSource = systemTimeSource{}

// Clock is the hybrid simulation clock: it runs in real time and additionally
// accumulates artificial minutes for in-fiction activities (travel to a ward,
// writing a note) that cost more simulated time than real time.
//
// CurrentTime = scenarioStart + floor(real elapsed, minute) + artificial.
//
// The real-elapsed component depends on a live TimeSource read, so
// CurrentTime is NOT cached - every call recomputes it. The artificial
// counter is monotonically non-decreasing, which makes CurrentTime
// non-decreasing as real time passes and strictly increasing when artificial
// time is added.
//
// Thread-safety: Clock is not synchronized. The owning Session serializes
// access behind its mutex.
type Clock struct {
	scenarioStart     time.Time
	sessionStart      time.Time
	artificialMinutes int
	source            TimeSource
}

// NewClock creates a clock anchored at scenarioStart. The session anchor is
// taken from the source at construction time.
func NewClock(scenarioStart time.Time, source TimeSource) *Clock {
	if source == nil {
		source = SystemTimeSource
	}
	return &Clock{
		scenarioStart: scenarioStart,
		sessionStart:  source.Now(),
		source:        source,
	}
}

// CurrentTime returns the current simulation time.
func (c *Clock) CurrentTime() time.Time {
	total := c.realElapsedMinutes() + c.artificialMinutes
	return c.scenarioStart.Add(time.Duration(total) * time.Minute)
}

// ElapsedMinutes returns total simulation minutes since scenario start,
// real plus artificial.
func (c *Clock) ElapsedMinutes() int {
	return c.realElapsedMinutes() + c.artificialMinutes
}

// AddArtificialTime adds artificial minutes and returns the new current time.
// Zero is a valid no-op. Negative input is rejected with an INVALID_ARGUMENT
// engine error; the clock must never run backwards.
func (c *Clock) AddArtificialTime(minutes int) (time.Time, error) {
	if minutes < 0 {
		return time.Time{}, NewInvalidArgument("artificial time must be non-negative, got %d", minutes)
	}
	c.artificialMinutes += minutes
	return c.CurrentTime(), nil
}

// ScenarioStart returns the fixed scenario anchor.
func (c *Clock) ScenarioStart() time.Time { return c.scenarioStart }

// ArtificialMinutes returns the accumulated artificial minute counter.
func (c *Clock) ArtificialMinutes() int { return c.artificialMinutes }

func (c *Clock) realElapsedMinutes() int {
	return int(c.source.Now().Sub(c.sessionStart).Minutes())
}

// ClockState is the introspection snapshot exposed through the API.
type ClockState struct {
	ScenarioStartTime  string `json:"scenario_start_time"`
	CurrentTime        string `json:"current_time"`
	ElapsedMinutes     int    `json:"elapsed_minutes"`
	RealElapsedMinutes int    `json:"real_elapsed_minutes"`
	ArtificialMinutes  int    `json:"artificial_minutes_added"`
	FormattedTime      string `json:"formatted_time"`
}

// State captures the clock for display. Like CurrentTime it reads the
// TimeSource fresh.
func (c *Clock) State() ClockState {
	now := c.CurrentTime()
	return ClockState{
		ScenarioStartTime:  c.scenarioStart.Format(time.RFC3339),
		CurrentTime:        now.Format(time.RFC3339),
		ElapsedMinutes:     c.ElapsedMinutes(),
		RealElapsedMinutes: c.realElapsedMinutes(),
		ArtificialMinutes:  c.artificialMinutes,
		FormattedTime:      now.Format("15:04"),
	}
}
