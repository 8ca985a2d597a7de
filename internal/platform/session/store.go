package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"online_judge/internal/domain/model"
)

const keyPrefix = "session:"

// Store keeps Principals server-side, keyed by an opaque session id.
type Store interface {
	Create(ctx context.Context, p model.Principal) (string, error)
	// Get returns nil without error when the session is unknown or expired.
	Get(ctx context.Context, sessionID string) (*model.Principal, error)
	Put(ctx context.Context, sessionID string, p model.Principal) error
	Delete(ctx context.Context, sessionID string) error
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) Create(ctx context.Context, p model.Principal) (string, error) {
	sessionID := uuid.NewString()
	if err := s.Put(ctx, sessionID, p); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*model.Principal, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session.Get: %w", err)
	}

	var p model.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("session.Get decode: %w", err)
	}
	return &p, nil
}

func (s *redisStore) Put(ctx context.Context, sessionID string, p model.Principal) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session.Put encode: %w", err)
	}
	// XX with KEEPTTL: the session keeps its login expiry and an expired one is not revived.
	err = s.rdb.SetArgs(ctx, keyPrefix+sessionID, payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session.Put: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("session.Delete: %w", err)
	}
	return nil
}
