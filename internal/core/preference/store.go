package preference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

// Store 可關閉的偏好儲存
type Store interface {
	grocery.PreferenceStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	// ErrInvalidPreference 使用者、鍵或分類不合法
	ErrInvalidPreference = errors.New("invalid category preference")
)

func validate(userID, key string, tag grocery.Category) error {
	switch {
	case strings.TrimSpace(userID) == "":
		return fmt.Errorf("%w: empty user id", ErrInvalidPreference)
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty key", ErrInvalidPreference)
	case !tag.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidPreference, tag)
	}
	return nil
}

// New 依設定創建偏好儲存
func New(cfg config.PreferenceConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		common.LogInfo("Using in-memory category preferences")
		return NewMemoryStore(), nil
	case "redis":
		store, err := NewRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		common.LogInfo("Using redis category preferences", zap.String("addr", cfg.RedisAddr))
		return store, nil
	case "sqlite":
		store, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		common.LogInfo("Using sqlite category preferences", zap.String("path", cfg.SQLitePath))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown preference backend %q", cfg.Backend)
	}
}
