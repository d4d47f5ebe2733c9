package preference

import (
	"context"
	"sync"

	"grocery-engine/internal/core/grocery"
)

// MemoryStore 行程內的偏好儲存
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string]grocery.Category
}

// NewMemoryStore 創建記憶體偏好儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]grocery.Category)}
}

// Get 讀取單一偏好
func (s *MemoryStore) Get(_ context.Context, userID, key string) (grocery.Category, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag, ok := s.users[userID][key]
	return tag, ok, nil
}

// Set 寫入偏好（後寫入者勝出）
func (s *MemoryStore) Set(_ context.Context, userID, key string, tag grocery.Category) error {
	if err := validate(userID, key, tag); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, ok := s.users[userID]
	if !ok {
		prefs = make(map[string]grocery.Category)
		s.users[userID] = prefs
	}
	prefs[key] = tag
	return nil
}

// All 返回使用者偏好的副本
func (s *MemoryStore) All(_ context.Context, userID string) (map[string]grocery.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]grocery.Category, len(s.users[userID]))
	for k, v := range s.users[userID] {
		out[k] = v
	}
	return out, nil
}

// Close 無需釋放資源
func (s *MemoryStore) Close() error {
	return nil
}

// Ping 記憶體儲存永遠可用
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
