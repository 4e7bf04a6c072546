package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"promptcraft/internal/cache"
	"promptcraft/internal/export"
	"promptcraft/internal/logger"
	"promptcraft/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePromptRepo struct {
	mu      sync.Mutex
	records map[string]*model.PromptRecord
	saveErr error
}

func newFakePromptRepo() *fakePromptRepo {
	return &fakePromptRepo{records: map[string]*model.PromptRecord{}}
}

func (r *fakePromptRepo) Save(ctx context.Context, record *model.PromptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records[record.SessionID] = record
	return nil
}

func (r *fakePromptRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.PromptRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[sessionID], nil
}

func (r *fakePromptRepo) ListRecent(ctx context.Context, limit int64) ([]*model.PromptRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PromptRecord
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

type recordedEvent struct {
	sessionID string
	msgType   string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *fakeBroadcaster) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{sessionID, msgType})
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.msgType
	}
	return out
}

// blockingSubmitter holds every submission until release is closed.
type blockingSubmitter struct {
	started chan struct{}
	release chan struct{}
	reply   string
}

func (b *blockingSubmitter) Submit(ctx context.Context, req model.PromptRequest) (string, error) {
	close(b.started)
	<-b.release
	return b.reply, nil
}

type sessionFixture struct {
	svc      *SessionService
	sessions cache.SessionCache
	prompts  *fakePromptRepo
	events   *fakeBroadcaster
}

// slowSubmitter sleeps through every submission and tracks how many overlap.
type slowSubmitter struct {
	delay time.Duration

	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
}

func (s *slowSubmitter) Submit(ctx context.Context, req model.PromptRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return "X", nil
}

func newSessionFixture(sub Submitter) *sessionFixture {
	return newSessionFixtureWithLockTTL(sub, time.Minute)
}

func newSessionFixtureWithLockTTL(sub Submitter, lockTTL time.Duration) *sessionFixture {
	f := &sessionFixture{
		sessions: cache.NewMemorySessionCache(time.Hour, lockTTL),
		prompts:  newFakePromptRepo(),
		events:   &fakeBroadcaster{},
	}
	f.svc = NewSessionService(newTestEngine(sub), f.sessions, f.prompts, logger.Nop())
	f.svc.SetBroadcaster(f.events)
	return f
}

// walkToLast answers every question but the last.
func (f *sessionFixture) walkToLast(t *testing.T, id string) {
	t.Helper()
	for i := 0; i < f.svc.Catalog().Len()-1; i++ {
		view, err := f.svc.Advance(context.Background(), id, "answer")
		require.NoError(t, err)
		require.Equal(t, i+1, view.Index)
	}
}

func TestSessionServiceCompleteFlow(t *testing.T) {
	f := newSessionFixture(&fakeSubmitter{reply: `{"body":{"finalPrompt":"X"}}`})
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Question 1 of 7", view.Progress)

	f.walkToLast(t, view.ID)
	done, err := f.svc.Advance(ctx, view.ID, "last")
	require.NoError(t, err)

	assert.Equal(t, model.LifecycleCompleted, done.Lifecycle)
	assert.Equal(t, "X", done.FinalText)
	assert.Equal(t, "last", done.Answers[model.FieldContext])

	record, err := f.svc.GetPrompt(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", record.FinalText)
	assert.Equal(t, "last", record.Request.Context)

	types := f.events.types()
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, []string{EventSubmissionStarted, EventPromptReady}, types[len(types)-2:])

	links, err := f.svc.ExportLinks(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, links, len(export.Targets()))

	link, err := f.svc.ExportLink(ctx, view.ID, "chatgpt")
	require.NoError(t, err)
	assert.Contains(t, link.URL, "prompt=X")

	_, err = f.svc.ExportLink(ctx, view.ID, "nope")
	assert.ErrorIs(t, err, export.ErrUnknownTarget)
}

func TestSessionServiceFailedSubmissionIsNotAnError(t *testing.T) {
	sub := &fakeSubmitter{err: &TransportError{StatusCode: 500}}
	f := newSessionFixture(sub)
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)
	f.walkToLast(t, view.ID)

	failed, err := f.svc.Advance(ctx, view.ID, "last")
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleFailed, failed.Lifecycle)
	assert.Contains(t, failed.ErrorText, FailureMessage)
	assert.Contains(t, f.events.types(), EventSubmissionFailed)

	_, err = f.svc.ExportLinks(ctx, view.ID)
	assert.ErrorIs(t, err, ErrNotFinished)
	_, err = f.svc.GetPrompt(ctx, view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	sub.mu.Lock()
	sub.err = nil
	sub.reply = "retry worked"
	sub.mu.Unlock()

	done, err := f.svc.Advance(ctx, view.ID, "last")
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleCompleted, done.Lifecycle)
	assert.Equal(t, "retry worked", done.FinalText)
}

func TestSessionServiceRejectsConcurrentAdvance(t *testing.T) {
	sub := &blockingSubmitter{started: make(chan struct{}), release: make(chan struct{}), reply: "X"}
	f := newSessionFixture(sub)
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)
	f.walkToLast(t, view.ID)

	type result struct {
		view *model.SessionView
		err  error
	}
	first := make(chan result, 1)
	go func() {
		v, err := f.svc.Advance(ctx, view.ID, "last")
		first <- result{v, err}
	}()
	<-sub.started

	_, err = f.svc.Advance(ctx, view.ID, "again")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = f.svc.Reset(ctx, view.ID)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	current, err := f.svc.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleSubmitting, current.Lifecycle)

	close(sub.release)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, model.LifecycleCompleted, res.view.Lifecycle)
}

func TestSessionServiceKeepsLockThroughSlowSubmission(t *testing.T) {
	sub := &slowSubmitter{delay: 300 * time.Millisecond}
	f := newSessionFixtureWithLockTTL(sub, 100*time.Millisecond)
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)
	f.walkToLast(t, view.ID)

	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Advance(ctx, view.ID, "last")
		first <- err
	}()

	// past the lock TTL but well before the submission returns
	time.Sleep(150 * time.Millisecond)
	_, err = f.svc.Advance(ctx, view.ID, "again")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	require.NoError(t, <-first)

	sub.mu.Lock()
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, 1, sub.maxInFlight)
	sub.mu.Unlock()

	done, err := f.svc.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleCompleted, done.Lifecycle)
	assert.Equal(t, "X", done.FinalText)
	assert.Equal(t, "last", done.Answers[model.FieldContext])

	// the lock is released once the submission settles
	token, ok, err := f.sessions.Lock(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, f.sessions.Unlock(ctx, view.ID, token))
}

func TestSessionServiceBusyLock(t *testing.T) {
	f := newSessionFixture(&fakeSubmitter{})
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)

	token, ok, err := f.sessions.Lock(ctx, view.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.SaveDraft(ctx, view.ID, "x")
	assert.ErrorIs(t, err, ErrSessionBusy)

	require.NoError(t, f.sessions.Unlock(ctx, view.ID, token))
	updated, err := f.svc.SaveDraft(ctx, view.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", updated.Draft)
}

func TestSessionServiceAbandonsOrphanedSubmission(t *testing.T) {
	f := newSessionFixture(&fakeSubmitter{reply: "X"})
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)

	// a submitter that died mid-flight leaves the stored session Submitting
	sess, err := f.sessions.Get(ctx, view.ID)
	require.NoError(t, err)
	sess.Index = f.svc.Catalog().Len() - 1
	sess.Lifecycle = model.LifecycleSubmitting
	require.NoError(t, f.sessions.Set(ctx, sess))

	recovered, err := f.svc.SaveDraft(ctx, view.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleFailed, recovered.Lifecycle)
	assert.Contains(t, recovered.ErrorText, "interrupted")

	done, err := f.svc.Advance(ctx, view.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleCompleted, done.Lifecycle)
}

func TestSessionServiceNavigation(t *testing.T) {
	f := newSessionFixture(&fakeSubmitter{})
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)

	_, err = f.svc.Retreat(ctx, view.ID, nil)
	assert.ErrorIs(t, err, ErrAtFirstQuestion)

	_, err = f.svc.RecordAnswer(ctx, view.ID, "first")
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, view.ID, "first")
	require.NoError(t, err)

	draft := "half typed"
	back, err := f.svc.Retreat(ctx, view.ID, &draft)
	require.NoError(t, err)
	assert.Equal(t, 0, back.Index)
	assert.Equal(t, "first", back.Draft)
	assert.Equal(t, "half typed", back.Answers[model.FieldAudience])

	reset, err := f.svc.Reset(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, reset.ID)
	assert.Empty(t, reset.Answers)
}

func TestSessionServiceUnknownSession(t *testing.T) {
	f := newSessionFixture(&fakeSubmitter{})
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Advance(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionServiceArchiveFailureStillCompletes(t *testing.T) {
	f := newSessionFixture(&fakeSubmitter{reply: "X"})
	f.prompts.saveErr = errors.New("mongo down")
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)
	f.walkToLast(t, view.ID)

	done, err := f.svc.Advance(ctx, view.ID, "last")
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleCompleted, done.Lifecycle)
}

func TestSessionServiceWithoutArchive(t *testing.T) {
	svc := NewSessionService(newTestEngine(&fakeSubmitter{}), cache.NewMemorySessionCache(time.Hour, time.Minute), nil, logger.Nop())

	_, err := svc.ListPrompts(context.Background(), 10)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
	_, err = svc.GetPrompt(context.Background(), "x")
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestSessionServiceRetryResubmitsUnchanged(t *testing.T) {
	sub := &fakeSubmitter{err: &TransportError{StatusCode: 502}}
	f := newSessionFixture(sub)
	ctx := context.Background()

	view, err := f.svc.Create(ctx)
	require.NoError(t, err)

	_, err = f.svc.Retry(ctx, view.ID)
	assert.ErrorIs(t, err, ErrAnswerRequired)

	f.walkToLast(t, view.ID)
	failed, err := f.svc.Advance(ctx, view.ID, "last")
	require.NoError(t, err)
	require.Equal(t, model.LifecycleFailed, failed.Lifecycle)

	sub.mu.Lock()
	sub.err = nil
	sub.reply = "second try"
	sub.mu.Unlock()

	done, err := f.svc.Retry(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleCompleted, done.Lifecycle)
	assert.Equal(t, "second try", done.FinalText)
	assert.Equal(t, failed.Answers, done.Answers)

	_, err = f.svc.Retry(ctx, view.ID)
	assert.ErrorIs(t, err, ErrSessionCompleted)
}
