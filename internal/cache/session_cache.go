package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"promptcraft/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCache stores questionnaire sessions and the per-session mutation lock.
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error

	// Lock takes the session's mutation lock. ok is false when someone else
	// holds it. The returned token must be passed to Unlock.
	Lock(ctx context.Context, id string) (token string, ok bool, err error)
	Unlock(ctx context.Context, id, token string) error
	// Refresh pushes a held lock's expiry out by another LockTTL. ok is false
	// when token no longer holds the lock.
	Refresh(ctx context.Context, id, token string) (ok bool, err error)
	LockTTL() time.Duration
}

// unlockScript deletes the lock only if it still carries our token, so an
// expired holder cannot release a lock that was taken over.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only while it still carries our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type sessionCache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewSessionCache creates a Redis-backed session cache
func NewSessionCache(client *redis.Client, ttl, lockTTL time.Duration) SessionCache {
	return &sessionCache{
		client:  client,
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionCache) lockKey(id string) string {
	return fmt.Sprintf("session:%s:lock", id)
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id), c.lockKey(id)).Err()
}

func (c *sessionCache) Lock(ctx context.Context, id string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := c.client.SetNX(ctx, c.lockKey(id), token, c.lockTTL).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (c *sessionCache) Unlock(ctx context.Context, id, token string) error {
	return unlockScript.Run(ctx, c.client, []string{c.lockKey(id)}, token).Err()
}

func (c *sessionCache) Refresh(ctx context.Context, id, token string) (bool, error) {
	n, err := refreshScript.Run(ctx, c.client, []string{c.lockKey(id)}, token, c.lockTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *sessionCache) LockTTL() time.Duration {
	return c.lockTTL
}
