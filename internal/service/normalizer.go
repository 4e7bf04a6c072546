package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"promptcraft/internal/model"
)

// DiagnosticSentinel appears in a reply when the generation service echoed
// its own unfilled template, meaning our fields arrived empty on its side.
const DiagnosticSentinel = "TASK: \nAUDIENCE: \nTONE:"

// Normalizer turns raw generation replies into display text.
type Normalizer struct{}

// NewNormalizer creates a new normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize classifies raw, first match wins:
//  1. template echo -> diagnostic report of what was sent
//  2. {"finalPrompt": "..."} or {"body": {"finalPrompt": "..."}}
//  3. raw text unchanged
//
// It never fails; sent is only used to build the diagnostic report.
func (n *Normalizer) Normalize(raw string, sent model.PromptRequest) model.NormalizedResult {
	if strings.Contains(raw, DiagnosticSentinel) {
		return model.NormalizedResult{Text: diagnosticReport(raw, sent), Diagnostic: true}
	}

	if text, ok := extractFinalPrompt(raw); ok {
		return model.NormalizedResult{Text: text}
	}

	return model.NormalizedResult{Text: raw}
}

func extractFinalPrompt(raw string) (string, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return "", false
	}

	if s, ok := stringField(top, "finalPrompt"); ok {
		return s, true
	}

	// gateways sometimes wrap the handler's response in {"body": ...}
	body, ok := top["body"]
	if !ok {
		return "", false
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(body, &inner); err != nil {
		return "", false
	}
	return stringField(inner, "finalPrompt")
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(v, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

func diagnosticReport(raw string, sent model.PromptRequest) string {
	var b strings.Builder
	b.WriteString("[DEBUG PAYLOAD] The generation service echoed its empty template instead of a prompt.\n")
	b.WriteString("The fields below were sent but were not received as populated data.\n\n")
	b.WriteString("Submitted fields:\n")
	for _, f := range sent.Fields() {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	b.WriteString("\nService reply:\n")
	b.WriteString(raw)
	return b.String()
}
