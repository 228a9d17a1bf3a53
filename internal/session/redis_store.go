package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"casino-client/internal/config"
)

const (
	KeySession = "casino:session:%s"

	TTLSession = 24 * time.Hour
)

// RedisStore shares one session between several client processes keyed by profile.
type RedisStore struct {
	client  *redis.Client
	profile string
	ttl     time.Duration
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = TTLSession
	}

	return &RedisStore{
		client:  client,
		profile: cfg.SessionProfile,
		ttl:     ttl,
	}, nil
}

func (s *RedisStore) key() string {
	return fmt.Sprintf(KeySession, s.profile)
}

func (s *RedisStore) Load(ctx context.Context) (*State, error) {
	data, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(), data, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
