// Package nurse answers trainee questions in the voice of the bedside
// nurse. Answers draw on the patient's scripted nursing impression, so the
// nurse only ever reports what a nurse would plausibly have noticed.
//
// Two responders exist: TopicResponder routes questions to impression
// fields by keyword and needs no network, and LLMResponder phrases the
// same material through a chat-completion endpoint. The engine treats both
// identically through the Responder interface.
package nurse

import (
	"context"
	"fmt"
	"strings"

	"wardsim/internal/engine"
)

// Answer is the nurse's reply to one question.
type Answer struct {
	Text  string `json:"text"`
	Topic string `json:"topic"`
}

// Responder produces nurse answers for a patient.
type Responder interface {
	Answer(ctx context.Context, patient *engine.Patient, question string) (Answer, error)
}

// topicRoute maps one topic to its question keywords and the impression
// fields that answer it. Routing is two-stage: keywords select the topic,
// the topic selects the fields.
type topicRoute struct {
	topic    string
	keywords []string
	paths    []string
}

// routes are checked in order; the first topic with a keyword hit wins.
// The general topic sits last as the catch-all for explicit overview
// questions.
var routes = []topicRoute{
	{
		topic:    "observations",
		keywords: []string{"obs", "observations", "vitals", "news", "sats", "blood pressure", "heart rate", "temperature"},
		paths:    []string{"current_observations"},
	},
	{
		topic:    "breathing",
		keywords: []string{"breathing", "breath", "respiratory", "oxygen", "wheeze", "cough"},
		paths:    []string{"breathing", "current_observations"},
	},
	{
		topic:    "pain",
		keywords: []string{"pain", "discomfort", "sore", "analgesia"},
		paths:    []string{"pain"},
	},
	{
		topic:    "intake",
		keywords: []string{"eating", "drinking", "intake", "appetite", "fluids", "nausea", "vomit"},
		paths:    []string{"intake", "general_impression"},
	},
	{
		topic:    "output",
		keywords: []string{"urine", "output", "catheter", "bowels", "stool"},
		paths:    []string{"output", "general_impression"},
	},
	{
		topic:    "mobility",
		keywords: []string{"mobilis", "mobility", "walking", "transfer", "falls"},
		paths:    []string{"mobility", "general_impression"},
	},
	{
		topic:    "mentation",
		keywords: []string{"confus", "orientat", "agitat", "mood", "behaviour", "behavior", "drowsy"},
		paths:    []string{"mentation", "general_impression"},
	},
	{
		topic:    "general",
		keywords: []string{"how is", "how are they", "overall", "general", "worried", "concern"},
		paths:    []string{"general_impression"},
	},
}

// defaultAnswer is used when nothing in the impression covers the topic.
const defaultAnswer = "Nothing new to report since I last checked on them."

// TopicResponder answers by keyword routing into the patient's nursing
// impression. Deterministic and offline; the default responder.
type TopicResponder struct{}

func (TopicResponder) Answer(_ context.Context, patient *engine.Patient, question string) (Answer, error) {
	if patient == nil {
		return Answer{}, engine.NewInvalidArgument("nurse question requires a patient")
	}

	lower := strings.ToLower(question)
	for _, route := range routes {
		if !matchesAny(lower, route.keywords) {
			continue
		}
		if text := lookupPaths(patient.NursingImpression, route.paths); text != "" {
			return Answer{Text: text, Topic: route.topic}, nil
		}
		return Answer{Text: defaultAnswer, Topic: route.topic}, nil
	}

	// No topic matched: fall back to the general impression.
	if text := lookupPaths(patient.NursingImpression, []string{"general_impression"}); text != "" {
		return Answer{Text: text, Topic: "general"}, nil
	}
	return Answer{Text: defaultAnswer, Topic: "general"}, nil
}

func matchesAny(question string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(question, k) {
			return true
		}
	}
	return false
}

// lookupPaths collects the first non-empty string found under each path,
// joined with a space. Paths use dots for nesting ("obs.trend").
func lookupPaths(impression map[string]any, paths []string) string {
	var parts []string
	for _, path := range paths {
		if v := lookupPath(impression, path); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func lookupPath(m map[string]any, path string) string {
	cur := any(m)
	for _, seg := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = node[seg]
		if !ok {
			return ""
		}
	}
	switch v := cur.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}
