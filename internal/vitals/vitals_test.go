package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNEWS2DefaultSigns(t *testing.T) {
	// The default SpO2 of 95 sits at the top of the 1-point band, so a
	// fully default set scores 1, not 0.
	score := NEWS2(DefaultSigns())
	assert.Equal(t, 1, score.Total)
	assert.Equal(t, 1, score.Breakdown["spo2"])
	assert.Equal(t, RiskLow, score.Risk)
}

func TestNEWS2Breakdown(t *testing.T) {
	signs := Signs{
		RespiratoryRate: 22,  // 2
		SpO2:            93,  // 2
		OnOxygen:        true, // 2
		HeartRate:       104, // 1
		SystolicBP:      108, // 1
		Temperature:     37.9, // 0
		Consciousness:   Alert,
	}
	score := NEWS2(signs)

	assert.Equal(t, 2, score.Breakdown["respiratory_rate"])
	assert.Equal(t, 2, score.Breakdown["spo2"])
	assert.Equal(t, 2, score.Breakdown["oxygen"])
	assert.Equal(t, 1, score.Breakdown["heart_rate"])
	assert.Equal(t, 1, score.Breakdown["systolic_bp"])
	assert.Equal(t, 0, score.Breakdown["temperature"])
	assert.Equal(t, 0, score.Breakdown["consciousness"])
	assert.Equal(t, 8, score.Total)
	assert.Equal(t, RiskHigh, score.Risk)
}

func TestNEWS2RiskBands(t *testing.T) {
	// Total 2: low.
	mild := DefaultSigns()
	mild.HeartRate = 95
	assert.Equal(t, RiskLow, NEWS2(mild).Risk)

	// A single parameter at 3: low-medium despite the low total.
	redFlag := DefaultSigns()
	redFlag.SpO2 = 96
	redFlag.SystolicBP = 88
	score := NEWS2(redFlag)
	assert.Equal(t, 3, score.Total)
	assert.Equal(t, RiskLowMedium, score.Risk)

	// Total 5: medium.
	moderate := DefaultSigns()
	moderate.RespiratoryRate = 22 // 2
	moderate.SpO2 = 93           // 2
	moderate.HeartRate = 95      // 1
	assert.Equal(t, RiskMedium, NEWS2(moderate).Risk)
}

func TestNEWS2BandBoundaries(t *testing.T) {
	// Baseline with SpO2 lifted to the zero band, so each total below
	// isolates the mutated parameter.
	boundary := func(mutate func(*Signs)) int {
		s := DefaultSigns()
		s.SpO2 = 96
		mutate(&s)
		return NEWS2(s).Total
	}

	assert.Equal(t, 3, boundary(func(s *Signs) { s.RespiratoryRate = 8 }))
	assert.Equal(t, 1, boundary(func(s *Signs) { s.RespiratoryRate = 9 }))
	assert.Equal(t, 0, boundary(func(s *Signs) { s.RespiratoryRate = 12 }))
	assert.Equal(t, 2, boundary(func(s *Signs) { s.RespiratoryRate = 21 }))
	assert.Equal(t, 3, boundary(func(s *Signs) { s.RespiratoryRate = 25 }))

	assert.Equal(t, 3, boundary(func(s *Signs) { s.SpO2 = 91 }))
	assert.Equal(t, 2, boundary(func(s *Signs) { s.SpO2 = 92 }))
	assert.Equal(t, 0, boundary(func(s *Signs) { s.SpO2 = 96 }))

	assert.Equal(t, 3, boundary(func(s *Signs) { s.HeartRate = 40 }))
	assert.Equal(t, 1, boundary(func(s *Signs) { s.HeartRate = 50 }))
	assert.Equal(t, 0, boundary(func(s *Signs) { s.HeartRate = 51 }))
	assert.Equal(t, 2, boundary(func(s *Signs) { s.HeartRate = 111 }))
	assert.Equal(t, 3, boundary(func(s *Signs) { s.HeartRate = 131 }))

	assert.Equal(t, 3, boundary(func(s *Signs) { s.SystolicBP = 90 }))
	assert.Equal(t, 2, boundary(func(s *Signs) { s.SystolicBP = 100 }))
	assert.Equal(t, 0, boundary(func(s *Signs) { s.SystolicBP = 111 }))
	assert.Equal(t, 3, boundary(func(s *Signs) { s.SystolicBP = 220 }))

	assert.Equal(t, 3, boundary(func(s *Signs) { s.Temperature = 35.0 }))
	assert.Equal(t, 1, boundary(func(s *Signs) { s.Temperature = 35.5 }))
	assert.Equal(t, 0, boundary(func(s *Signs) { s.Temperature = 37.0 }))
	assert.Equal(t, 1, boundary(func(s *Signs) { s.Temperature = 38.5 }))
	assert.Equal(t, 2, boundary(func(s *Signs) { s.Temperature = 39.5 }))

	assert.Equal(t, 3, boundary(func(s *Signs) { s.Consciousness = Confusion }))
	assert.Equal(t, 3, boundary(func(s *Signs) { s.Consciousness = Unresponsive }))
}

func TestSignsSummary(t *testing.T) {
	s := DefaultSigns()
	assert.Equal(t, "RR 16, SpO2 95% on air, HR 75, BP 120/80, T 36.5, alert", s.Summary())

	s.OnOxygen = true
	s.SpO2 = 91
	assert.Equal(t, "RR 16, SpO2 91% on O2, HR 75, BP 120/80, T 36.5, alert", s.Summary())
}
