package shopping

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

// ListStore 已生成購物清單的暫存（TTL + 最少使用淘汰）
// 清單的就地修改必須透過 Update，在鎖內完成
type ListStore struct {
	cfg   config.ListStoreConfig
	mu    sync.RWMutex
	store map[string]*listEntry
	stats storeStats
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// listEntry 暫存條目
type listEntry struct {
	list        *grocery.ShoppingList
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// storeStats 暫存統計
type storeStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewListStore 創建清單暫存並啟動過期清理
func NewListStore(cfg config.ListStoreConfig) *ListStore {
	s := &ListStore{
		cfg:   cfg,
		store: make(map[string]*listEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go s.startCleanup()
	}

	common.LogInfo("清單暫存已初始化",
		zap.Int("max_size", cfg.MaxSize),
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)
	return s
}

// Put 存入（或覆蓋）清單
func (s *ListStore) Put(list *grocery.ShoppingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.store[list.ID]; !exists && len(s.store) >= s.cfg.MaxSize {
		// 先清理過期項目，仍滿則淘汰最少使用者
		evicted := s.cleanup()
		if len(s.store) >= s.cfg.MaxSize {
			s.evictLRU()
		}
		if len(s.store) >= s.cfg.MaxSize {
			s.stats.errors++
			common.LogWarn("List store full", zap.Int("size", len(s.store)), zap.Int("evicted", evicted))
			return common.ErrListStoreFull
		}
	}

	now := s.now()
	s.store[list.ID] = &listEntry{
		list:       list,
		expiresAt:  now.Add(s.cfg.TTL),
		createdAt:  now,
		lastAccess: now,
	}
	return nil
}

// Get 取得清單的副本
func (s *ListStore) Get(id string) (*grocery.ShoppingList, error) {
	var out *grocery.ShoppingList
	err := s.Update(id, func(list *grocery.ShoppingList) error {
		out = cloneList(list)
		return nil
	})
	return out, err
}

// Update 在鎖內就地修改清單
func (s *ListStore) Update(id string, fn func(*grocery.ShoppingList) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[id]
	if !ok {
		s.stats.misses++
		return common.ErrListNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.store, id)
		s.stats.evictions++
		s.stats.misses++
		return common.ErrListNotFound
	}

	entry.lastAccess = s.now()
	entry.accessCount++
	s.stats.hits++
	return fn(entry.list)
}

// startCleanup 定期清理過期清單
func (s *ListStore) startCleanup() {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.cleanup()
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// cleanup 清理過期清單，呼叫端須持有寫鎖
func (s *ListStore) cleanup() int {
	now := s.now()
	count := 0
	for id, entry := range s.store {
		if now.After(entry.expiresAt) {
			delete(s.store, id)
			count++
			s.stats.evictions++
		}
	}
	if count > 0 {
		common.LogInfo("Cleaned up expired shopping lists",
			zap.Int("count", count),
			zap.Int("remaining_size", len(s.store)),
		)
	}
	return count
}

// evictLRU 淘汰存取次數最少、最久未使用的清單
func (s *ListStore) evictLRU() {
	var oldestID string
	var oldestAccess time.Time
	lowestCount := 0

	for id, entry := range s.store {
		if oldestID == "" ||
			entry.accessCount < lowestCount ||
			(entry.accessCount == lowestCount && entry.lastAccess.Before(oldestAccess)) {
			oldestID = id
			oldestAccess = entry.lastAccess
			lowestCount = entry.accessCount
		}
	}
	if oldestID != "" {
		delete(s.store, oldestID)
		s.stats.evictions++
		common.LogInfo("清單已淘汰(LRU)", zap.String("list_id", oldestID))
	}
}

// GetStats 暫存統計資訊
func (s *ListStore) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ratio := 0.0
	if total := s.stats.hits + s.stats.misses; total > 0 {
		ratio = float64(s.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(s.store),
		"max_size":  s.cfg.MaxSize,
		"hits":      s.stats.hits,
		"misses":    s.stats.misses,
		"evictions": s.stats.evictions,
		"errors":    s.stats.errors,
		"hit_ratio": ratio,
	}
}

// Close 停止清理並清空暫存
func (s *ListStore) Close() error {
	s.once.Do(func() { close(s.stop) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = make(map[string]*listEntry)
	common.LogInfo("清單暫存已關閉",
		zap.Int64("hits", s.stats.hits),
		zap.Int64("misses", s.stats.misses),
		zap.Int64("evictions", s.stats.evictions),
	)
	return nil
}

// cloneList 深複製清單，避免呼叫端在鎖外修改
func cloneList(src *grocery.ShoppingList) *grocery.ShoppingList {
	dst := *src
	dst.Items = make(grocery.CategorizedItems, len(src.Items))
	for cat, items := range src.Items {
		copied := make([]grocery.ResolvedItem, len(items))
		for i, item := range items {
			copied[i] = cloneItem(item)
		}
		dst.Items[cat] = copied
	}
	dst.Stats.Categories = make(map[grocery.Category]int, len(src.Stats.Categories))
	for k, v := range src.Stats.Categories {
		dst.Stats.Categories[k] = v
	}
	return &dst
}

func cloneItem(item grocery.ResolvedItem) grocery.ResolvedItem {
	item.Recipes = append([]string{}, item.Recipes...)
	if item.AlternativeAmounts != nil {
		alts := make([]grocery.AlternativeAmount, len(item.AlternativeAmounts))
		for i, alt := range item.AlternativeAmounts {
			alt.Recipes = append([]string(nil), alt.Recipes...)
			alts[i] = alt
		}
		item.AlternativeAmounts = alts
	}
	if item.InventoryItem != nil {
		rec := *item.InventoryItem
		item.InventoryItem = &rec
	}
	return item
}
