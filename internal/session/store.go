package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures. Domain conditions
// (missing or corrupt sessions) never produce it; they read as absent.
var ErrRedisUnavailable = errors.New("session: redis unavailable")

var errMalformedPayload = errors.New("session: malformed payload")

const (
	payloadPrefix = "session:"
	indexPrefix   = "user-sessions:"
)

// Config fixes the store's behavior for the process lifetime.
type Config struct {
	// TTL is the sliding session lifetime. Every refresh resets the payload
	// key and the owner's index key to this duration.
	TTL time.Duration
	// MaxPerUser caps concurrent sessions per user. Exceeding the cap evicts
	// the least-recently-refreshed session, best effort (see Create).
	MaxPerUser int
}

// Store owns session lifecycle against Redis. It holds no mutable state of
// its own, so a single instance is safe for any number of concurrent callers.
type Store struct {
	redis      redis.UniversalClient
	ttl        time.Duration
	maxPerUser int
}

// NewStore creates a session [Store] backed by the given Redis client.
func NewStore(redisClient redis.UniversalClient, cfg Config) *Store {
	return &Store{
		redis:      redisClient,
		ttl:        cfg.TTL,
		maxPerUser: cfg.MaxPerUser,
	}
}

func payloadKey(sid string) string {
	return payloadPrefix + sid
}

func indexKey(userID string) string {
	return indexPrefix + userID
}

// Create registers a new session for userID and returns its id. The payload
// write, the index entry, and the index TTL go out in one pipelined batch.
//
// Cap enforcement runs after the batch has committed: the index cardinality
// is read back and, when it exceeds MaxPerUser, the lowest-scored member is
// evicted. Check-then-evict is not atomic with the write, so concurrent
// logins for one user can transiently exceed the cap until the next Create
// catches up. Accepted tradeoff; a hard cap would need a server-side script.
func (s *Store) Create(ctx context.Context, userID string, meta Metadata) (string, error) {
	sid := uuid.NewString()
	data, err := json.Marshal(&Session{
		SID:       sid,
		UserID:    userID,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	})
	if err != nil {
		return "", err
	}

	idx := indexKey(userID)
	score := float64(time.Now().UnixMilli())

	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, payloadKey(sid), data, s.ttl)
		pipe.ZAdd(ctx, idx, redis.Z{Score: score, Member: sid})
		pipe.Expire(ctx, idx, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if err := s.evictOverCap(ctx, idx); err != nil {
		return "", err
	}

	return sid, nil
}

func (s *Store) evictOverCap(ctx context.Context, idx string) error {
	card, err := s.redis.ZCard(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if card <= int64(s.maxPerUser) {
		return nil
	}

	oldest, err := s.redis.ZRange(ctx, idx, 0, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(oldest) == 0 {
		return nil
	}

	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, idx, oldest[0])
		pipe.Del(ctx, payloadKey(oldest[0]))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the session for sid, or nil when it does not exist. A payload
// that fails to decode reads as nil too: a single corrupt entry must never
// surface as anything but a missing session.
func (s *Store) Get(ctx context.Context, sid string) (*Session, error) {
	data, err := s.redis.Get(ctx, payloadKey(sid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := decodeSession(data)
	if err != nil {
		return nil, nil
	}
	return sess, nil
}

// RefreshTTL implements sliding expiration: the payload key goes back to the
// full TTL, the session's recency score in the owner's index moves to now,
// and the index key's own TTL is realigned. No-op when sid does not exist.
func (s *Store) RefreshTTL(ctx context.Context, sid string) error {
	sess, err := s.Get(ctx, sid)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	idx := indexKey(sess.UserID)
	score := float64(time.Now().UnixMilli())

	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, payloadKey(sid), s.ttl)
		pipe.ZAdd(ctx, idx, redis.Z{Score: score, Member: sid})
		pipe.Expire(ctx, idx, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a single session and its index entry. No-op when absent.
func (s *Store) Delete(ctx context.Context, sid string) error {
	sess, err := s.Get(ctx, sid)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, payloadKey(sid))
		pipe.ZRem(ctx, indexKey(sess.UserID), sid)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every session tracked in the user's index plus the
// index key itself, in one pipelined batch.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	idx := indexKey(userID)

	sids, err := s.redis.ZRange(ctx, idx, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, sid := range sids {
			pipe.Del(ctx, payloadKey(sid))
		}
		pipe.Del(ctx, idx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ListForUser returns the user's live sessions. Index entries whose payload
// expired or no longer decodes are zombies: they are excluded from the result
// and pruned from the index as a side effect.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*Session, error) {
	idx := indexKey(userID)

	sids, err := s.redis.ZRange(ctx, idx, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(sids) == 0 {
		return []*Session{}, nil
	}

	keys := make([]string, len(sids))
	for i, sid := range sids {
		keys[i] = payloadKey(sid)
	}
	fetched, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	live, stale := reconcile(sids, fetched)
	if len(stale) > 0 {
		if err := s.PruneIndex(ctx, userID, stale); err != nil {
			return nil, err
		}
	}
	return live, nil
}

// PruneIndex drops the given session ids from the user's index. It touches
// only the index, never payload keys; ListForUser calls it for zombie entries.
func (s *Store) PruneIndex(ctx context.Context, userID string, sids []string) error {
	if len(sids) == 0 {
		return nil
	}
	members := make([]interface{}, len(sids))
	for i, sid := range sids {
		members[i] = sid
	}
	if err := s.redis.ZRem(ctx, indexKey(userID), members...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
