// Package vitals parses free-text observation strings into structured
// vital signs and scores them on the NEWS2 early warning scale.
//
// Scenario authors write observations as prose ("RR 22, SpO2 93% on air,
// HR 104, BP 108/66, T 37.9, alert"); the parser extracts the numbers and
// falls back to normal-range defaults for anything unstated, so a partial
// observation string still yields a complete, scoreable set.
package vitals

import "fmt"

// Consciousness is the ACVPU level recorded in an observation set.
type Consciousness string

const (
	Alert        Consciousness = "alert"
	Confusion    Consciousness = "confusion"
	Voice        Consciousness = "voice"
	Pain         Consciousness = "pain"
	Unresponsive Consciousness = "unresponsive"
)

// Defaults used when an observation string omits a measurement. They sit in
// the normal adult range and score zero.
const (
	DefaultRespiratoryRate = 16
	DefaultSpO2            = 95
	DefaultHeartRate       = 75
	DefaultSystolicBP      = 120
	DefaultDiastolicBP     = 80
	DefaultTemperature     = 36.5
)

// Signs is one structured set of vital signs.
type Signs struct {
	RespiratoryRate int           `json:"respiratory_rate"`
	SpO2            int           `json:"spo2"`
	OnOxygen        bool          `json:"on_oxygen"`
	HeartRate       int           `json:"heart_rate"`
	SystolicBP      int           `json:"systolic_bp"`
	DiastolicBP     int           `json:"diastolic_bp"`
	Temperature     float64       `json:"temperature"`
	Consciousness   Consciousness `json:"consciousness"`

	// PainScore is the patient-reported 0-10 pain score. Nil when the
	// observation string does not mention one; it has no default and does
	// not contribute to NEWS2.
	PainScore *int `json:"pain_score,omitempty"`
}

// DefaultSigns returns a normal observation set.
func DefaultSigns() Signs {
	return Signs{
		RespiratoryRate: DefaultRespiratoryRate,
		SpO2:            DefaultSpO2,
		HeartRate:       DefaultHeartRate,
		SystolicBP:      DefaultSystolicBP,
		DiastolicBP:     DefaultDiastolicBP,
		Temperature:     DefaultTemperature,
		Consciousness:   Alert,
	}
}

// Risk is the NEWS2 clinical risk band derived from a score.
type Risk string

const (
	RiskLow       Risk = "low"
	RiskLowMedium Risk = "low_medium"
	RiskMedium    Risk = "medium"
	RiskHigh      Risk = "high"
)

// Score is a computed NEWS2 result with its per-parameter breakdown.
type Score struct {
	Total     int            `json:"total"`
	Risk      Risk           `json:"risk"`
	Breakdown map[string]int `json:"breakdown"`
}

// NEWS2 scores the signs on the National Early Warning Score 2 scale
// (SpO2 scale 1). The total drives the risk band: 0-4 low, 5-6 medium,
// 7+ high, with any single parameter scoring 3 lifting a low total to
// low-medium.
func NEWS2(s Signs) Score {
	breakdown := map[string]int{
		"respiratory_rate": scoreRR(s.RespiratoryRate),
		"spo2":             scoreSpO2(s.SpO2),
		"oxygen":           scoreOxygen(s.OnOxygen),
		"systolic_bp":      scoreSBP(s.SystolicBP),
		"heart_rate":       scoreHR(s.HeartRate),
		"temperature":      scoreTemp(s.Temperature),
		"consciousness":    scoreConsciousness(s.Consciousness),
	}

	total := 0
	anyThree := false
	for _, v := range breakdown {
		total += v
		if v == 3 {
			anyThree = true
		}
	}

	risk := RiskLow
	switch {
	case total >= 7:
		risk = RiskHigh
	case total >= 5:
		risk = RiskMedium
	case anyThree:
		risk = RiskLowMedium
	}

	return Score{Total: total, Risk: risk, Breakdown: breakdown}
}

func scoreRR(rr int) int {
	switch {
	case rr <= 8:
		return 3
	case rr <= 11:
		return 1
	case rr <= 20:
		return 0
	case rr <= 24:
		return 2
	default:
		return 3
	}
}

func scoreSpO2(spo2 int) int {
	switch {
	case spo2 <= 91:
		return 3
	case spo2 <= 93:
		return 2
	case spo2 <= 95:
		return 1
	default:
		return 0
	}
}

func scoreOxygen(on bool) int {
	if on {
		return 2
	}
	return 0
}

func scoreSBP(sbp int) int {
	switch {
	case sbp <= 90:
		return 3
	case sbp <= 100:
		return 2
	case sbp <= 110:
		return 1
	case sbp <= 219:
		return 0
	default:
		return 3
	}
}

func scoreHR(hr int) int {
	switch {
	case hr <= 40:
		return 3
	case hr <= 50:
		return 1
	case hr <= 90:
		return 0
	case hr <= 110:
		return 1
	case hr <= 130:
		return 2
	default:
		return 3
	}
}

func scoreTemp(t float64) int {
	switch {
	case t <= 35.0:
		return 3
	case t <= 36.0:
		return 1
	case t <= 38.0:
		return 0
	case t <= 39.0:
		return 1
	default:
		return 2
	}
}

func scoreConsciousness(c Consciousness) int {
	if c == Alert {
		return 0
	}
	// Any new confusion, or response only to voice, pain, or nothing.
	return 3
}

// Summary renders the signs as a one-line observation string.
func (s Signs) Summary() string {
	air := "on air"
	if s.OnOxygen {
		air = "on O2"
	}
	return fmt.Sprintf("RR %d, SpO2 %d%% %s, HR %d, BP %d/%d, T %.1f, %s",
		s.RespiratoryRate, s.SpO2, air, s.HeartRate, s.SystolicBP, s.DiastolicBP,
		s.Temperature, s.Consciousness)
}
