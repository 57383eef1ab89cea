// Package store persists the caller-facing reasoning and sampling
// configuration. The reasoning core never reads this directly; the HTTP
// layer resolves a per-request config from defaults, stored settings and
// request overrides.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/codraft/internal/provider"
	"github.com/mohammad-safakhou/codraft/internal/reasoning"
)

// ModelSettings are the persisted sampling parameters plus model selection.
type ModelSettings struct {
	provider.SamplingParams
	Model string `json:"model"`
}

// Settings is the persisted configuration record.
type Settings struct {
	Reasoning reasoning.Config `json:"codConfig"`
	Fireworks ModelSettings    `json:"fireworksConfig"`
}

// SettingsStore is the persisted key-value settings collaborator. Updates
// follow a single-writer rule: callers read, modify and write whole
// records.
type SettingsStore interface {
	Get(ctx context.Context) (Settings, bool, error)
	Update(ctx context.Context, s Settings) error
}

const settingsKey = "codraft:settings"

// RedisSettingsStore keeps the settings record as one JSON value in redis.
type RedisSettingsStore struct {
	client *redis.Client
}

// NewRedisSettingsStore wraps an existing redis client.
func NewRedisSettingsStore(client *redis.Client) *RedisSettingsStore {
	return &RedisSettingsStore{client: client}
}

// Conn opens a redis connection and verifies it with a ping.
func Conn(ctx context.Context, addr, password string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}
	return client, nil
}

// Get returns the stored settings record. The second return is false when
// nothing has been stored yet.
func (s *RedisSettingsStore) Get(ctx context.Context) (Settings, bool, error) {
	val, err := s.client.Get(ctx, settingsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Settings{}, false, nil
		}
		return Settings{}, false, err
	}

	var settings Settings
	if err := json.Unmarshal([]byte(val), &settings); err != nil {
		return Settings{}, false, fmt.Errorf("corrupt settings record: %w", err)
	}
	return settings, true, nil
}

// Update replaces the stored settings record.
func (s *RedisSettingsStore) Update(ctx context.Context, settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, settingsKey, data, 0).Err()
}
