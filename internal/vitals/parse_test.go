package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFullObservation(t *testing.T) {
	signs := Parse("RR 22, SpO2 93% on air, HR 104, BP 108/66, T 37.9, alert")

	assert.Equal(t, 22, signs.RespiratoryRate)
	assert.Equal(t, 93, signs.SpO2)
	assert.False(t, signs.OnOxygen)
	assert.Equal(t, 104, signs.HeartRate)
	assert.Equal(t, 108, signs.SystolicBP)
	assert.Equal(t, 66, signs.DiastolicBP)
	assert.Equal(t, 37.9, signs.Temperature)
	assert.Equal(t, Alert, signs.Consciousness)
}

func TestParseEmptyFallsBackToDefaults(t *testing.T) {
	assert.Equal(t, DefaultSigns(), Parse(""))
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	signs := Parse("HR 110, looks uncomfortable")

	assert.Equal(t, 110, signs.HeartRate)
	assert.Equal(t, DefaultRespiratoryRate, signs.RespiratoryRate)
	assert.Equal(t, DefaultSpO2, signs.SpO2)
	assert.Equal(t, DefaultSystolicBP, signs.SystolicBP)
	assert.Equal(t, DefaultTemperature, signs.Temperature)
	assert.Equal(t, Alert, signs.Consciousness)
}

func TestParseOxygenDelivery(t *testing.T) {
	signs := Parse("SpO2 91% on 2L O2 via nasal cannula")
	assert.Equal(t, 91, signs.SpO2)
	assert.True(t, signs.OnOxygen)

	signs = Parse("SpO2 96% on room air")
	assert.False(t, signs.OnOxygen)
}

func TestParseConsciousnessLevels(t *testing.T) {
	cases := []struct {
		text string
		want Consciousness
	}{
		{"alert and orientated", Alert},
		{"newly confused, agitated", Confusion},
		{"drowsy but rousable", Voice},
		{"responds to voice only", Voice},
		{"responds to pain", Pain},
		{"unresponsive, GCS 3", Unresponsive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Parse(tc.text).Consciousness, "text: %s", tc.text)
	}
}

func TestParseSeverestConsciousnessWins(t *testing.T) {
	// Both "drowsy" and "alert" appear; severity order decides.
	signs := Parse("previously alert, now drowsy")
	assert.Equal(t, Voice, signs.Consciousness)
}

func TestParsePainScore(t *testing.T) {
	signs := Parse("HR 98, pain 3/10 on movement")
	if assert.NotNil(t, signs.PainScore) {
		assert.Equal(t, 3, *signs.PainScore)
	}

	signs = Parse("pain score 7, requesting analgesia")
	if assert.NotNil(t, signs.PainScore) {
		assert.Equal(t, 7, *signs.PainScore)
	}

	// A consciousness mention is not a score.
	assert.Nil(t, Parse("responds to pain").PainScore)
	assert.Nil(t, Parse("RR 18, nil acute").PainScore)
}

func TestParseAlternateSpellings(t *testing.T) {
	signs := Parse("sats 89%, pulse 125, temp 38.6")
	assert.Equal(t, 89, signs.SpO2)
	assert.Equal(t, 125, signs.HeartRate)
	assert.Equal(t, 38.6, signs.Temperature)
}

func TestParseNormalizesUnicode(t *testing.T) {
	// Decomposed "e" + combining acute in a surrounding word must not
	// disturb the numeric matches.
	signs := Parse("patient pyrexial (temperature 38.5), HR 98, café au lait spots noted")
	assert.Equal(t, 38.5, signs.Temperature)
	assert.Equal(t, 98, signs.HeartRate)
}
