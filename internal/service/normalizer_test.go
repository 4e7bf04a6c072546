package service

import (
	"testing"

	"promptcraft/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name string
		raw  string
		want model.NormalizedResult
	}{
		{name: "top level", raw: `{"finalPrompt":"Hello"}`, want: model.NormalizedResult{Text: "Hello"}},
		{name: "wrapped in body", raw: `{"body":{"finalPrompt":"Nested"}}`, want: model.NormalizedResult{Text: "Nested"}},
		{name: "plain text", raw: "plain text reply", want: model.NormalizedResult{Text: "plain text reply"}},
		{name: "malformed json", raw: "not valid json {{{", want: model.NormalizedResult{Text: "not valid json {{{"}},
		{name: "json without either shape", raw: `{"message":"ok"}`, want: model.NormalizedResult{Text: `{"message":"ok"}`}},
		{name: "non-string finalPrompt", raw: `{"finalPrompt":42}`, want: model.NormalizedResult{Text: `{"finalPrompt":42}`}},
		{name: "null finalPrompt", raw: `{"finalPrompt":null}`, want: model.NormalizedResult{Text: `{"finalPrompt":null}`}},
		{name: "body is a string", raw: `{"body":"{\"finalPrompt\":\"x\"}"}`, want: model.NormalizedResult{Text: `{"body":"{\"finalPrompt\":\"x\"}"}`}},
		{name: "top level wins over body", raw: `{"finalPrompt":"top","body":{"finalPrompt":"inner"}}`, want: model.NormalizedResult{Text: "top"}},
		{name: "empty finalPrompt is used", raw: `{"finalPrompt":""}`, want: model.NormalizedResult{Text: ""}},
		{name: "json array", raw: `["finalPrompt"]`, want: model.NormalizedResult{Text: `["finalPrompt"]`}},
		{name: "empty body", raw: "", want: model.NormalizedResult{Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw, model.PromptRequest{}))
		})
	}
}

func TestNormalizeDiagnosticEcho(t *testing.T) {
	n := NewNormalizer()
	sent := model.PromptRequest{
		Task:     "write a haiku",
		Audience: "kids",
		Tone:     "playful",
		Include:  "a frog",
		Avoid:    "sadness",
		Format:   "poem",
		Context:  "classroom",
	}

	for name, raw := range map[string]string{
		"plain":           "Here is your prompt\nTASK: \nAUDIENCE: \nTONE: \n...",
		"inside json":     `{"finalPrompt":"TASK: \nAUDIENCE: \nTONE: "}`,
		"at the very end": "TASK: \nAUDIENCE: \nTONE:",
	} {
		t.Run(name, func(t *testing.T) {
			got := n.Normalize(raw, sent)
			assert.True(t, got.Diagnostic)
			assert.Contains(t, got.Text, "[DEBUG PAYLOAD]")
			for _, f := range sent.Fields() {
				assert.Contains(t, got.Text, f.Label+": "+f.Value)
			}
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := NewNormalizer()
	raw := `{"body":{"finalPrompt":"Nested"}}`
	assert.Equal(t, n.Normalize(raw, model.PromptRequest{}), n.Normalize(raw, model.PromptRequest{}))
}
