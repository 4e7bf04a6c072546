package service

import (
	"context"
	"fmt"
	"time"

	"promptcraft/internal/model"
)

// FailureMessage prefixes the error text of a failed submission.
const FailureMessage = "Something went wrong. Try again."

// Submitter sends one prompt request and returns the raw reply text.
type Submitter interface {
	Submit(ctx context.Context, req model.PromptRequest) (string, error)
}

// QuestionnaireEngine moves sessions through the catalog and submits the
// answers at the terminal step. The engine keeps no per-session state, so one
// engine serves any number of sessions, but a single session must not be
// operated on concurrently.
type QuestionnaireEngine struct {
	catalog    model.Catalog
	submitter  Submitter
	normalizer *Normalizer
	now        func() time.Time
}

// NewQuestionnaireEngine creates an engine over catalog
func NewQuestionnaireEngine(catalog model.Catalog, submitter Submitter, normalizer *Normalizer) *QuestionnaireEngine {
	return &QuestionnaireEngine{
		catalog:    catalog,
		submitter:  submitter,
		normalizer: normalizer,
		now:        time.Now,
	}
}

// Catalog returns the questions this engine walks through
func (e *QuestionnaireEngine) Catalog() model.Catalog {
	return e.catalog
}

// NewSession returns a session at the first question
func (e *QuestionnaireEngine) NewSession(id string) *model.Session {
	s := &model.Session{ID: id, CreatedAt: e.now()}
	e.clear(s)
	return s
}

// Current returns the question at the session's position
func (e *QuestionnaireEngine) Current(s *model.Session) (model.Question, bool) {
	return e.catalog.At(s.Index)
}

// SetDraft replaces the text being edited for the current question
func (e *QuestionnaireEngine) SetDraft(s *model.Session, text string) error {
	if err := e.checkEditable(s); err != nil {
		return err
	}
	s.Draft = text
	e.touch(s)
	return nil
}

// RecordAnswer stores text as the answer to the current question, replacing
// any earlier answer, and makes it the current draft.
func (e *QuestionnaireEngine) RecordAnswer(s *model.Session, text string) error {
	if err := e.checkEditable(s); err != nil {
		return err
	}
	q, ok := e.Current(s)
	if !ok {
		return fmt.Errorf("session %s is at index %d of %d", s.ID, s.Index, e.catalog.Len())
	}
	if s.Answers == nil {
		s.Answers = model.AnswerSet{}
	}
	s.Answers[q.ID] = text
	s.Draft = text
	e.touch(s)
	return nil
}

// Advance records the draft and moves to the next question. At the terminal
// step it submits the whole answer set instead; a failed submission leaves
// the session Failed and is returned, and calling Advance again retries.
func (e *QuestionnaireEngine) Advance(ctx context.Context, s *model.Session) error {
	needsSubmit, err := e.StepForward(s)
	if err != nil || !needsSubmit {
		return err
	}
	return e.Submit(ctx, s)
}

// StepForward is the synchronous half of Advance. It reports whether the
// session is now Submitting and must be passed to Submit.
func (e *QuestionnaireEngine) StepForward(s *model.Session) (bool, error) {
	if err := e.RecordAnswer(s, s.Draft); err != nil {
		return false, err
	}

	if e.catalog.IsLast(s.Index) {
		s.Lifecycle = model.LifecycleSubmitting
		s.ErrorText = ""
		e.touch(s)
		return true, nil
	}

	s.Index++
	s.Draft = s.Answers[e.catalog[s.Index].ID]
	s.Lifecycle = model.LifecycleCollecting
	e.touch(s)
	return false, nil
}

// Submit sends the answers of a Submitting session and settles it as
// Completed or Failed.
func (e *QuestionnaireEngine) Submit(ctx context.Context, s *model.Session) error {
	if s.Lifecycle != model.LifecycleSubmitting {
		return fmt.Errorf("session %s is %s, not %s", s.ID, s.Lifecycle, model.LifecycleSubmitting)
	}

	req := model.NewPromptRequest(s.Answers)
	raw, err := e.submitter.Submit(ctx, req)
	if err != nil {
		s.Lifecycle = model.LifecycleFailed
		s.ErrorText = fmt.Sprintf("%s (%v)", FailureMessage, err)
		e.touch(s)
		return err
	}

	result := e.normalizer.Normalize(raw, req)
	s.Lifecycle = model.LifecycleCompleted
	s.FinalText = result.Text
	s.Diagnostic = result.Diagnostic
	s.ErrorText = ""
	e.touch(s)
	return nil
}

// Retreat keeps the current draft as its question's answer and steps back
// one question, restoring that question's answer as the draft.
func (e *QuestionnaireEngine) Retreat(s *model.Session) error {
	if err := e.checkEditable(s); err != nil {
		return err
	}
	if s.Index == 0 {
		return ErrAtFirstQuestion
	}
	if err := e.RecordAnswer(s, s.Draft); err != nil {
		return err
	}

	s.Index--
	s.Draft = s.Answers[e.catalog[s.Index].ID]
	s.Lifecycle = model.LifecycleCollecting
	s.ErrorText = ""
	e.touch(s)
	return nil
}

// Reset starts the session over with no answers.
func (e *QuestionnaireEngine) Reset(s *model.Session) error {
	if s.Lifecycle == model.LifecycleSubmitting {
		return ErrSubmissionInFlight
	}
	e.clear(s)
	return nil
}

// Abandon fails a session whose submitter went away mid-flight, so the user
// can retry. Sessions in any other state are left alone.
func (e *QuestionnaireEngine) Abandon(s *model.Session, reason string) {
	if s.Lifecycle != model.LifecycleSubmitting {
		return
	}
	s.Lifecycle = model.LifecycleFailed
	s.ErrorText = fmt.Sprintf("%s (%s)", FailureMessage, reason)
	e.touch(s)
}

func (e *QuestionnaireEngine) checkEditable(s *model.Session) error {
	switch s.Lifecycle {
	case model.LifecycleSubmitting:
		return ErrSubmissionInFlight
	case model.LifecycleCompleted:
		return ErrSessionCompleted
	}
	return nil
}

func (e *QuestionnaireEngine) clear(s *model.Session) {
	s.Index = 0
	s.Answers = model.AnswerSet{}
	s.Draft = ""
	s.Lifecycle = model.LifecycleCollecting
	s.FinalText = ""
	s.Diagnostic = false
	s.ErrorText = ""
	e.touch(s)
}

func (e *QuestionnaireEngine) touch(s *model.Session) {
	s.UpdatedAt = e.now()
}
