// Package preference persists the single theme preference key.
package preference

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"parking_finder/internal/domain"
	"parking_finder/internal/logger"
)

// ThemeKey is the only key ever written.
const ThemeKey = "themePreference"

// ErrNoPreference means the user never chose a theme.
var ErrNoPreference = errors.New("no stored preference")

type Store interface {
	Theme(ctx context.Context) (domain.Theme, error)
	SetTheme(ctx context.Context, t domain.Theme) error
}

// OpenRedis returns nil when no host is configured.
func OpenRedis(host, port, pass string, db int) *redis.Client {
	if host == "" {
		return nil
	}
	addr := host + ":" + port
	logger.L().Debug("redis_open", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Theme(ctx context.Context) (domain.Theme, error) {
	v, err := s.client.Get(ctx, ThemeKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoPreference
	}
	if err != nil {
		return "", fmt.Errorf("RedisStore.Theme: %w", err)
	}
	t := domain.Theme(v)
	if !t.Valid() {
		// an unknown value is treated as never set
		logger.L().Warn("theme_preference_invalid", "value", v)
		return "", ErrNoPreference
	}
	return t, nil
}

func (s *RedisStore) SetTheme(ctx context.Context, t domain.Theme) error {
	if err := s.client.Set(ctx, ThemeKey, string(t), 0).Err(); err != nil {
		return fmt.Errorf("RedisStore.SetTheme: %w", err)
	}
	return nil
}

// MemoryStore is used when Redis is not configured.
type MemoryStore struct {
	mu    sync.RWMutex
	theme domain.Theme
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Theme(ctx context.Context) (domain.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.theme == "" {
		return "", ErrNoPreference
	}
	return s.theme, nil
}

func (s *MemoryStore) SetTheme(ctx context.Context, t domain.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = t
	return nil
}
