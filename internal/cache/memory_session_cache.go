package cache

import (
	"context"
	"sync"
	"time"

	"promptcraft/internal/model"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// memorySessionCache keeps sessions in process memory for single-instance
// deployments and tests.
type memorySessionCache struct {
	sessions *gocache.Cache
	locks    *gocache.Cache
	lockTTL  time.Duration

	// lockMu serializes lock changes that read the token before writing.
	lockMu sync.Mutex
}

// NewMemorySessionCache creates an in-memory session cache
func NewMemorySessionCache(ttl, lockTTL time.Duration) SessionCache {
	return &memorySessionCache{
		sessions: gocache.New(ttl, 10*time.Minute),
		locks:    gocache.New(lockTTL, time.Minute),
		lockTTL:  lockTTL,
	}
}

// Set stores a copy so callers cannot mutate the cached session in place.
func (c *memorySessionCache) Set(ctx context.Context, session *model.Session) error {
	c.sessions.Set(session.ID, cloneSession(session), gocache.DefaultExpiration)
	return nil
}

func (c *memorySessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	x, found := c.sessions.Get(id)
	if !found {
		return nil, nil
	}
	return cloneSession(x.(*model.Session)), nil
}

func (c *memorySessionCache) Delete(ctx context.Context, id string) error {
	c.sessions.Delete(id)
	c.locks.Delete(id)
	return nil
}

func (c *memorySessionCache) Lock(ctx context.Context, id string) (string, bool, error) {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	token := uuid.New().String()
	// Add fails when an unexpired item exists, which makes it a test-and-set.
	if err := c.locks.Add(id, token, c.lockTTL); err != nil {
		return "", false, nil
	}
	return token, true, nil
}

func (c *memorySessionCache) Unlock(ctx context.Context, id, token string) error {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	if x, found := c.locks.Get(id); found && x.(string) == token {
		c.locks.Delete(id)
	}
	return nil
}

func (c *memorySessionCache) Refresh(ctx context.Context, id, token string) (bool, error) {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	x, found := c.locks.Get(id)
	if !found || x.(string) != token {
		return false, nil
	}
	if err := c.locks.Replace(id, token, c.lockTTL); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *memorySessionCache) LockTTL() time.Duration {
	return c.lockTTL
}

func cloneSession(s *model.Session) *model.Session {
	out := *s
	out.Answers = s.Answers.Clone()
	return &out
}
