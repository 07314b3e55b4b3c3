// Package token provides the single-use, type-scoped token store backing the
// account-lifecycle flows: email verification, password reset, and company
// invitations.
//
// Tokens are bearer credentials with a fixed per-kind TTL. They are never
// listed, updated, or refreshed; a token is either still pending or gone.
// Consume is exactly-once: it rides on a single atomic GETDEL, so of any
// number of concurrent redeemers at most one observes the payload.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures. Missing, expired,
// already-consumed, and corrupt tokens all read as absent instead.
var ErrRedisUnavailable = errors.New("token: redis unavailable")

// Config fixes the per-kind TTLs for the process lifetime.
type Config struct {
	VerifyTTL time.Duration
	ResetTTL  time.Duration
	InviteTTL time.Duration
}

func (c Config) ttl(kind Kind) time.Duration {
	switch kind {
	case KindVerify:
		return c.VerifyTTL
	case KindReset:
		return c.ResetTTL
	case KindInvite:
		return c.InviteTTL
	default:
		panic(fmt.Sprintf("token: unknown kind %d", int(kind)))
	}
}

// Store issues and redeems single-use tokens against Redis.
type Store struct {
	redis redis.UniversalClient
	cfg   Config
}

func NewStore(redisClient redis.UniversalClient, cfg Config) *Store {
	return &Store{redis: redisClient, cfg: cfg}
}

func key(kind Kind, tok string) string {
	return kind.String() + ":" + tok
}

// Create writes the payload under a fresh random token with the kind's
// configured TTL and returns the token string.
func (s *Store) Create(ctx context.Context, kind Kind, payload Payload) (string, error) {
	data, err := json.Marshal(&payload)
	if err != nil {
		return "", err
	}

	tok := uuid.NewString()
	if err := s.redis.Set(ctx, key(kind, tok), data, s.cfg.ttl(kind)).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return tok, nil
}

// Consume atomically reads and deletes the token, returning its payload.
// Returns nil when the token does not exist under the given kind, has
// expired, was already consumed, or its stored payload fails validation.
func (s *Store) Consume(ctx context.Context, kind Kind, tok string) (*Payload, error) {
	data, err := s.redis.GetDel(ctx, key(kind, tok)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	payload, err := decodePayload(kind, data)
	if err != nil {
		return nil, nil
	}
	return payload, nil
}
