package model

import (
	"fmt"
	"time"
)

// Lifecycle is the state of a questionnaire session.
type Lifecycle string

const (
	LifecycleCollecting Lifecycle = "collecting"
	LifecycleSubmitting Lifecycle = "submitting"
	LifecycleCompleted  Lifecycle = "completed"
	LifecycleFailed     Lifecycle = "failed"
)

// Session is everything one user has entered so far. It is threaded through
// every engine operation; nothing about a session lives outside this record.
type Session struct {
	ID         string    `json:"id"`
	Index      int       `json:"index"`
	Answers    AnswerSet `json:"answers"`
	Draft      string    `json:"draft"`
	Lifecycle  Lifecycle `json:"lifecycle"`
	FinalText  string    `json:"finalText,omitempty"`
	Diagnostic bool      `json:"diagnostic,omitempty"`
	ErrorText  string    `json:"errorText,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NormalizedResult is a generation reply reduced to display text.
// Diagnostic marks a synthesized debug payload rather than a real prompt.
type NormalizedResult struct {
	Text       string `json:"text"`
	Diagnostic bool   `json:"diagnostic"`
}

// SessionView is the API representation of a session.
type SessionView struct {
	ID         string    `json:"id"`
	Lifecycle  Lifecycle `json:"lifecycle"`
	Index      int       `json:"index"`
	Total      int       `json:"total"`
	Progress   string    `json:"progress"`
	Question   *Question `json:"question,omitempty"`
	Draft      string    `json:"draft"`
	Answers    AnswerSet `json:"answers"`
	FinalText  string    `json:"finalText,omitempty"`
	Diagnostic bool      `json:"diagnostic"`
	ErrorText  string    `json:"errorText,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Progress renders the "Question N of M" indicator.
func Progress(index, total int) string {
	return fmt.Sprintf("Question %d of %d", index+1, total)
}

// NewSessionView builds the view of s against catalog.
func NewSessionView(s *Session, catalog Catalog) *SessionView {
	v := &SessionView{
		ID:         s.ID,
		Lifecycle:  s.Lifecycle,
		Index:      s.Index,
		Total:      catalog.Len(),
		Progress:   Progress(s.Index, catalog.Len()),
		Draft:      s.Draft,
		Answers:    s.Answers.Clone(),
		FinalText:  s.FinalText,
		Diagnostic: s.Diagnostic,
		ErrorText:  s.ErrorText,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if q, ok := catalog.At(s.Index); ok {
		v.Question = &q
	}
	return v
}
