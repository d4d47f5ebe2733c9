package preference

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/infrastructure/config"
)

// RedisStore 以 redis hash 保存每位使用者的 {正規化鍵: 分類}
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 連線 redis 並確認可用
func NewRedisStore(cfg config.PreferenceConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient 使用既有的 client
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "grocery:prefs"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get 讀取單一偏好
func (s *RedisStore) Get(ctx context.Context, userID, key string) (grocery.Category, bool, error) {
	value, err := s.client.HGet(ctx, s.userKey(userID), key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get preference: %w", err)
	}
	tag := grocery.Category(value)
	if !tag.Valid() {
		return "", false, nil
	}
	return tag, true, nil
}

// Set 寫入偏好；HSET 本身即為後寫入者勝出
func (s *RedisStore) Set(ctx context.Context, userID, key string, tag grocery.Category) error {
	if err := validate(userID, key, tag); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.userKey(userID), key, string(tag)).Err(); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// All 讀取使用者全部偏好，略過已不合法的舊值
func (s *RedisStore) All(ctx context.Context, userID string) (map[string]grocery.Category, error) {
	values, err := s.client.HGetAll(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	out := make(map[string]grocery.Category, len(values))
	for k, v := range values {
		if tag := grocery.Category(v); tag.Valid() {
			out[k] = tag
		}
	}
	return out, nil
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) userKey(userID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, userID)
}

// Ping 檢查 redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
