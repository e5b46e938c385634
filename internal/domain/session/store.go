// internal/domain/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront/internal/config"
)

// ErrLocked is returned when a session lock could not be acquired in time
var ErrLocked = errors.New("session is locked")

// unlockScript deletes the lock only if this holder still owns it
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store persists sessions as one Redis blob per session id
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	retry   time.Duration
}

// NewStore creates a new Redis session store
func NewStore(client *redis.Client, cfg config.SessionConfig) *Store {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Store{
		client:  client,
		ttl:     cfg.TTL,
		lockTTL: lockTTL,
		retry:   25 * time.Millisecond,
	}
}

// Load fetches a session. An unknown or empty id yields a new session
// under a fresh id; ids the client made up are never adopted.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return New(), nil
	}

	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	return decode(id, data)
}

// Save writes the session and refreshes its TTL
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := sess.encode()
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}

	sess.dirty = false
	sess.isNew = false
	return nil
}

// Rotate moves the session values to a fresh id and drops the old key.
// Called after sign in so an id known before authentication stops working.
func (s *Store) Rotate(ctx context.Context, sess *Session) error {
	data, err := sess.encode()
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	oldID := sess.ID
	newID := uuid.New().String()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(newID), data, s.ttl)
	pipe.Del(ctx, sessionKey(oldID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis rotate session failed: %w", err)
	}

	sess.ID = newID
	sess.dirty = false
	sess.isNew = false
	return nil
}

// Destroy removes a session
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

// Lock acquires an exclusive lock on a session id, waiting until ctx is
// done. The returned function releases it.
func (s *Store) Lock(ctx context.Context, id string) (func(), error) {
	return s.acquire(ctx, lockKey(id), s.lockTTL)
}

// LockFor acquires a named lock that expires after ttl if never released.
// It serialises work on things other than sessions, such as charging an order.
func (s *Store) LockFor(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = s.lockTTL
	}
	return s.acquire(ctx, "lock:"+name, ttl)
}

func (s *Store) acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()

	for {
		ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s failed: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLocked, ctx.Err())
		case <-time.After(s.retry):
		}
	}

	unlock := func() {
		// Released with a fresh context so a cancelled request still unlocks
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		unlockScript.Run(releaseCtx, s.client, []string{key}, token)
	}
	return unlock, nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func lockKey(id string) string {
	return fmt.Sprintf("lock:session:%s", id)
}
