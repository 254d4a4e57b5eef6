package nurse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wardsim/internal/engine"
)

// LLMResponder phrases nurse answers through an OpenAI-compatible
// chat-completion endpoint. The scripted nursing impression is passed as
// grounding in the system prompt; the model is instructed not to invent
// findings beyond it.
type LLMResponder struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// LLMOption configures an LLMResponder.
type LLMOption func(*LLMResponder)

// WithHTTPClient overrides the HTTP client, used by tests.
func WithHTTPClient(c *http.Client) LLMOption {
	return func(r *LLMResponder) { r.client = c }
}

// NewLLMResponder builds a responder against the given endpoint base URL
// (without the /chat/completions suffix).
func NewLLMResponder(baseURL, apiKey, model string, opts ...LLMOption) *LLMResponder {
	r := &LLMResponder{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPromptTemplate = `You are the bedside nurse looking after %s (%s, bed %s).
Answer the doctor's question in one or two short spoken sentences, in character.
Only use the handover notes below. If the notes do not cover the question, say you have not noticed anything and offer to check.

Handover notes:
%s`

func (r *LLMResponder) Answer(ctx context.Context, patient *engine.Patient, question string) (Answer, error) {
	if patient == nil {
		return Answer{}, engine.NewInvalidArgument("nurse question requires a patient")
	}

	impression, err := json.Marshal(patient.NursingImpression)
	if err != nil {
		return Answer{}, fmt.Errorf("encoding nursing impression: %w", err)
	}

	reqBody := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: fmt.Sprintf(systemPromptTemplate,
					patient.Name, patient.Ward, patient.Bed, impression),
			},
			{Role: "user", Content: question},
		},
		Temperature: 0.7,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Answer{}, fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Answer{}, fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("calling chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Answer{}, fmt.Errorf("reading chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Answer{}, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Answer{}, fmt.Errorf("chat endpoint returned no choices")
	}

	return Answer{Text: parsed.Choices[0].Message.Content, Topic: "llm"}, nil
}
