package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedResponse = errors.New("generation response is not a JSON object")
	ErrEmptyPlan         = errors.New("generation response carries no lesson plan fields")
)

// Request is the body sent to the generation endpoint
type Request struct {
	Topic           string `json:"topic"`
	Level           string `json:"level"`
	DurationMinutes int    `json:"durationMinutes"`
	UserID          string `json:"userId"`
}

// Plan is the validated lesson plan returned by the endpoint.
// Pure JSON contract, not a DB model.
type Plan struct {
	Title        string `json:"titulo_plano,omitempty"`
	Introduction string `json:"introducao_ludica,omitempty"`
	Objective    string `json:"objetivo_bncc,omitempty"`
	StepByStep   string `json:"passo_a_passo,omitempty"`
	Rubric       string `json:"rubrica_avaliacao,omitempty"`
}

// IsEmpty reports whether no known field was filled
func (p *Plan) IsEmpty() bool {
	return p.Title == "" && p.Introduction == "" && p.Objective == "" && p.StepByStep == "" && p.Rubric == ""
}

// RemoteError is a failure reported by the endpoint itself
type RemoteError struct {
	StatusCode int
	// Message is the endpoint's error text, then its details text; empty when
	// the endpoint gave neither
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation endpoint failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation endpoint failed with status %d: %s", e.StatusCode, e.Message)
}

// parseResponse validates a response body at the boundary. Error fields win
// over the status code; the plan is read from "content" when present.
func parseResponse(statusCode int, body []byte) (*Plan, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		if statusCode < 200 || statusCode >= 300 {
			return nil, &RemoteError{StatusCode: statusCode}
		}
		return nil, ErrMalformedResponse
	}

	errRaw, hasError := present(fields, "error")
	detailsRaw, hasDetails := present(fields, "details")
	if hasError || hasDetails || statusCode < 200 || statusCode >= 300 {
		msg := textOf(errRaw)
		if msg == "" {
			msg = textOf(detailsRaw)
		}
		return nil, &RemoteError{StatusCode: statusCode, Message: msg}
	}

	source := fields
	if contentRaw, ok := present(fields, "content"); ok {
		if nested := objectOf(contentRaw); nested != nil {
			source = nested
		}
	}

	plan := &Plan{
		Title:        stringField(source, "titulo_plano"),
		Introduction: stringField(source, "introducao_ludica"),
		Objective:    stringField(source, "objetivo_bncc"),
		StepByStep:   stringField(source, "passo_a_passo"),
		Rubric:       stringField(source, "rubrica_avaliacao"),
	}
	if plan.IsEmpty() {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// textOf reads a string, or the "message" of an object, exactly as sent
func textOf(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// objectOf accepts an object or a string holding a JSON object, which is how
// some model outputs arrive
func objectOf(raw json.RawMessage) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// stringField reads a string or a list of strings (joined by newlines); any
// other type is treated as missing
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := present(fields, key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "\n"))
	}
	return ""
}
