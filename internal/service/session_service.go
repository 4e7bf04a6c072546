package service

import (
	"context"
	"fmt"
	"time"

	"promptcraft/internal/cache"
	"promptcraft/internal/export"
	"promptcraft/internal/logger"
	"promptcraft/internal/model"
	"promptcraft/internal/repository"

	"github.com/google/uuid"
)

// SessionService runs questionnaire sessions stored in a SessionCache. Every
// mutation holds the session's lock for its whole duration, including the
// outbound submission, so concurrent requests on one session are rejected
// with ErrSessionBusy instead of interleaving.
type SessionService struct {
	engine      *QuestionnaireEngine
	sessions    cache.SessionCache
	prompts     repository.PromptRepo
	broadcaster Broadcaster
	log         *logger.Logger
}

// NewSessionService creates a new session service. prompts may be nil, which
// disables the archive.
func NewSessionService(
	engine *QuestionnaireEngine,
	sessions cache.SessionCache,
	prompts repository.PromptRepo,
	log *logger.Logger,
) *SessionService {
	return &SessionService{
		engine:   engine,
		sessions: sessions,
		prompts:  prompts,
		log:      log.With("component", "session_service"),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Catalog returns the questions sessions walk through
func (s *SessionService) Catalog() model.Catalog {
	return s.engine.Catalog()
}

// Create starts a new session at the first question
func (s *SessionService) Create(ctx context.Context) (*model.SessionView, error) {
	sess := s.engine.NewSession(uuid.New().String())
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.log.Info("session created", "session", sess.ID)
	return s.view(sess), nil
}

// Get returns the current state of a session
func (s *SessionService) Get(ctx context.Context, id string) (*model.SessionView, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// SaveDraft replaces the draft of the current question
func (s *SessionService) SaveDraft(ctx context.Context, id, draft string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *model.Session) error {
		return s.engine.SetDraft(sess, draft)
	})
}

// RecordAnswer stores an answer for the current question without moving
func (s *SessionService) RecordAnswer(ctx context.Context, id, answer string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *model.Session) error {
		return s.engine.RecordAnswer(sess, answer)
	})
}

// Retreat steps back one question. A non-nil draft replaces the current
// draft first so edits made before going back are kept.
func (s *SessionService) Retreat(ctx context.Context, id string, draft *string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *model.Session) error {
		if draft != nil {
			if err := s.engine.SetDraft(sess, *draft); err != nil {
				return err
			}
		}
		return s.engine.Retreat(sess)
	})
}

// Reset starts the session over
func (s *SessionService) Reset(ctx context.Context, id string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *model.Session) error {
		return s.engine.Reset(sess)
	})
}

// Advance answers the current question and moves on. At the terminal step
// it submits the answer set and returns once the session is Completed or
// Failed; a failed submission is reported through the session, not as an
// error.
func (s *SessionService) Advance(ctx context.Context, id, answer string) (*model.SessionView, error) {
	return s.stepForward(ctx, id, func(sess *model.Session) error {
		return s.engine.SetDraft(sess, answer)
	})
}

// Retry resubmits a Failed session's answer set unchanged. Sessions that are
// still collecting answers get ErrAnswerRequired.
func (s *SessionService) Retry(ctx context.Context, id string) (*model.SessionView, error) {
	return s.stepForward(ctx, id, func(sess *model.Session) error {
		if sess.Lifecycle == model.LifecycleCollecting {
			return ErrAnswerRequired
		}
		return nil
	})
}

func (s *SessionService) stepForward(ctx context.Context, id string, prepare func(sess *model.Session) error) (*model.SessionView, error) {
	token, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer s.unlock(ctx, id, token)

	sess, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := prepare(sess); err != nil {
		return nil, err
	}
	needsSubmit, err := s.engine.StepForward(sess)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	if !needsSubmit {
		s.broadcast(sess, EventSessionUpdated)
		return s.view(sess), nil
	}

	s.broadcast(sess, EventSubmissionStarted)

	// The caller cannot cancel a submission once it started.
	submitCtx := context.WithoutCancel(ctx)
	stopRefresh := s.keepLocked(submitCtx, id, token)
	err = s.engine.Submit(submitCtx, sess)
	stopRefresh()
	if err != nil {
		s.log.Warn("submission failed", "session", sess.ID, "error", err)
	}
	if err := s.save(submitCtx, sess); err != nil {
		return nil, err
	}

	switch sess.Lifecycle {
	case model.LifecycleCompleted:
		if sess.Diagnostic {
			s.log.Warn("generation service echoed its template", "session", sess.ID)
		}
		s.archive(submitCtx, sess)
		s.broadcast(sess, EventPromptReady)
	default:
		s.broadcast(sess, EventSubmissionFailed)
	}
	return s.view(sess), nil
}

// ExportLinks returns deep links for a completed session's prompt
func (s *SessionService) ExportLinks(ctx context.Context, id string) ([]model.ExportLink, error) {
	sess, err := s.completed(ctx, id)
	if err != nil {
		return nil, err
	}
	return export.Links(sess.FinalText), nil
}

// ExportLink returns the deep link for one target
func (s *SessionService) ExportLink(ctx context.Context, id, target string) (*model.ExportLink, error) {
	sess, err := s.completed(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, link := range export.Links(sess.FinalText) {
		if link.Target == target {
			return &link, nil
		}
	}
	return nil, export.ErrUnknownTarget
}

// GetPrompt returns the archived prompt of a session
func (s *SessionService) GetPrompt(ctx context.Context, sessionID string) (*model.PromptRecord, error) {
	if s.prompts == nil {
		return nil, ErrArchiveDisabled
	}
	record, err := s.prompts.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	if record == nil {
		return nil, ErrSessionNotFound
	}
	return record, nil
}

// ListPrompts returns the most recently archived prompts
func (s *SessionService) ListPrompts(ctx context.Context, limit int64) ([]*model.PromptRecord, error) {
	if s.prompts == nil {
		return nil, ErrArchiveDisabled
	}
	records, err := s.prompts.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	if records == nil {
		records = []*model.PromptRecord{}
	}
	return records, nil
}

func (s *SessionService) mutate(ctx context.Context, id string, fn func(sess *model.Session) error) (*model.SessionView, error) {
	token, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer s.unlock(ctx, id, token)

	sess, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.broadcast(sess, EventSessionUpdated)
	return s.view(sess), nil
}

func (s *SessionService) lock(ctx context.Context, id string) (string, error) {
	token, ok, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		sess, err := s.load(ctx, id)
		if err != nil {
			return "", err
		}
		if sess.Lifecycle == model.LifecycleSubmitting {
			return "", ErrSubmissionInFlight
		}
		return "", ErrSessionBusy
	}
	return token, nil
}

func (s *SessionService) unlock(ctx context.Context, id, token string) {
	if err := s.sessions.Unlock(context.WithoutCancel(ctx), id, token); err != nil {
		s.log.Error("failed to unlock session", "session", id, "error", err)
	}
}

// keepLocked refreshes the session lock until the returned stop func is
// called, so a submission slower than the lock TTL still owns its session.
func (s *SessionService) keepLocked(ctx context.Context, id, token string) (stop func()) {
	interval := s.sessions.LockTTL() / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ok, err := s.sessions.Refresh(ctx, id, token)
				if err != nil {
					s.log.Warn("failed to refresh session lock", "session", id, "error", err)
					continue
				}
				if !ok {
					s.log.Error("session lock lost during submission", "session", id)
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// loadLocked loads a session the caller holds the lock for. A session still
// marked Submitting at this point lost its submitter (the lock it held has
// expired), so it is failed to let the user retry.
func (s *SessionService) loadLocked(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Lifecycle == model.LifecycleSubmitting {
		s.engine.Abandon(sess, "the previous submission was interrupted")
		s.log.Warn("abandoned interrupted submission", "session", id)
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *SessionService) load(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) completed(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Lifecycle != model.LifecycleCompleted {
		return nil, ErrNotFinished
	}
	return sess, nil
}

func (s *SessionService) save(ctx context.Context, sess *model.Session) error {
	if err := s.sessions.Set(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionService) archive(ctx context.Context, sess *model.Session) {
	if s.prompts == nil {
		return
	}
	record := &model.PromptRecord{
		SessionID:  sess.ID,
		Request:    model.NewPromptRequest(sess.Answers),
		FinalText:  sess.FinalText,
		Diagnostic: sess.Diagnostic,
		CreatedAt:  sess.UpdatedAt,
	}
	if err := s.prompts.Save(ctx, record); err != nil {
		s.log.Error("failed to archive prompt", "session", sess.ID, "error", err)
	}
}

func (s *SessionService) broadcast(sess *model.Session, event string) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToSession(sess.ID, event, s.view(sess))
}

func (s *SessionService) view(sess *model.Session) *model.SessionView {
	return model.NewSessionView(sess, s.engine.Catalog())
}
