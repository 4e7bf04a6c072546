package model

import "strings"

// Request fields in wire order.
const (
	FieldTask     = "task"
	FieldAudience = "audience"
	FieldTone     = "tone"
	FieldInclude  = "include"
	FieldAvoid    = "avoid"
	FieldFormat   = "format"
	FieldContext  = "context"
)

// RequestFields lists the seven request keys in the order they are sent.
var RequestFields = []string{
	FieldTask,
	FieldAudience,
	FieldTone,
	FieldInclude,
	FieldAvoid,
	FieldFormat,
	FieldContext,
}

// IsRequestField reports whether key is one of the seven request keys.
func IsRequestField(key string) bool {
	for _, f := range RequestFields {
		if f == key {
			return true
		}
	}
	return false
}

// AnswerSet maps question id to the answer text.
type AnswerSet map[string]string

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// PromptRequest is the body sent to the generation service. The field order
// and the absence of omitempty are part of the wire contract: the service
// matches its template on all seven keys being present.
type PromptRequest struct {
	Task     string `json:"task" bson:"task"`
	Audience string `json:"audience" bson:"audience"`
	Tone     string `json:"tone" bson:"tone"`
	Include  string `json:"include" bson:"include"`
	Avoid    string `json:"avoid" bson:"avoid"`
	Format   string `json:"format" bson:"format"`
	Context  string `json:"context" bson:"context"`
}

// NewPromptRequest folds answers into the fixed schema. Missing keys become
// empty strings and keys outside the schema are dropped.
func NewPromptRequest(answers AnswerSet) PromptRequest {
	return PromptRequest{
		Task:     answers[FieldTask],
		Audience: answers[FieldAudience],
		Tone:     answers[FieldTone],
		Include:  answers[FieldInclude],
		Avoid:    answers[FieldAvoid],
		Format:   answers[FieldFormat],
		Context:  answers[FieldContext],
	}
}

// RequestField is one labelled value of a PromptRequest.
type RequestField struct {
	Key   string
	Label string
	Value string
}

// Fields returns the seven values in wire order.
func (r PromptRequest) Fields() []RequestField {
	values := []string{r.Task, r.Audience, r.Tone, r.Include, r.Avoid, r.Format, r.Context}
	out := make([]RequestField, len(RequestFields))
	for i, key := range RequestFields {
		out[i] = RequestField{Key: key, Label: strings.ToUpper(key), Value: values[i]}
	}
	return out
}
