package vitals

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Observation text comes from scenario YAML written by hand, so the parser
// is permissive: case-insensitive, tolerant of spacing, and indifferent to
// the order of measurements. Unmatched measurements keep their defaults.
var (
	reRR   = regexp.MustCompile(`(?i)\bRR:?\s*(\d{1,2})\b`)
	reSpO2 = regexp.MustCompile(`(?i)\b(?:SpO2|sats?|O2 sats?):?\s*(\d{1,3})\s*%?`)
	reHR   = regexp.MustCompile(`(?i)\b(?:HR|pulse):?\s*(\d{1,3})\b`)
	reBP   = regexp.MustCompile(`(?i)\bBP:?\s*(\d{2,3})\s*/\s*(\d{2,3})\b`)
	reTemp = regexp.MustCompile(`(?i)\b(?:T|temp|temperature):?\s*(\d{2}(?:\.\d+)?)\b`)
	rePain = regexp.MustCompile(`(?i)\bpain\s*(?:score)?:?\s*(\d{1,2})(?:\s*/\s*10)?\b`)

	reOnOxygen = regexp.MustCompile(`(?i)\bon\s+(?:O2|oxygen|\d+\s*L(?:/min)?)\b|\d+\s*L(?:/min)?\s+(?:O2|oxygen|nasal|mask)`)
	reOnAir    = regexp.MustCompile(`(?i)\bon\s+(?:room\s+)?air\b`)
)

// consciousnessTerms maps keyword to ACVPU level, checked in order so that
// the most severe mention wins.
var consciousnessTerms = []struct {
	keyword string
	level   Consciousness
}{
	{"unresponsive", Unresponsive},
	{"responds to pain", Pain},
	{"responsive to pain", Pain},
	{"responds to voice", Voice},
	{"responsive to voice", Voice},
	{"drowsy", Voice},
	{"confused", Confusion},
	{"confusion", Confusion},
	{"disoriented", Confusion},
	{"disorientated", Confusion},
	{"alert", Alert},
}

// Parse extracts structured vital signs from a free-text observation
// string. Input is NFC-normalized first so composed and decomposed unicode
// spellings match identically. Anything not stated falls back to
// DefaultSigns.
func Parse(text string) Signs {
	text = norm.NFC.String(text)
	signs := DefaultSigns()

	if m := reRR.FindStringSubmatch(text); m != nil {
		signs.RespiratoryRate = atoi(m[1], signs.RespiratoryRate)
	}
	if m := reSpO2.FindStringSubmatch(text); m != nil {
		signs.SpO2 = atoi(m[1], signs.SpO2)
	}
	if m := reHR.FindStringSubmatch(text); m != nil {
		signs.HeartRate = atoi(m[1], signs.HeartRate)
	}
	if m := reBP.FindStringSubmatch(text); m != nil {
		signs.SystolicBP = atoi(m[1], signs.SystolicBP)
		signs.DiastolicBP = atoi(m[2], signs.DiastolicBP)
	}
	if m := reTemp.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			signs.Temperature = f
		}
	}

	if m := rePain.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= 10 {
			signs.PainScore = &n
		}
	}

	if reOnOxygen.MatchString(text) && !reOnAir.MatchString(text) {
		signs.OnOxygen = true
	}

	lower := strings.ToLower(text)
	for _, term := range consciousnessTerms {
		if strings.Contains(lower, term.keyword) {
			signs.Consciousness = term.level
			break
		}
	}

	return signs
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
