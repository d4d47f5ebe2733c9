package grocery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrItemNotFound 清單中找不到項目
	ErrItemNotFound = errors.New("shopping list item not found")
	// ErrInvalidCategory 非法的分類標籤
	ErrInvalidCategory = errors.New("invalid category")
	// ErrPreferenceNotSaved 項目已移動但偏好未能保存
	ErrPreferenceNotSaved = errors.New("category preference not saved")
)

// ComputeStats 計算清單統計
func ComputeStats(items CategorizedItems) Stats {
	stats := Stats{Categories: make(map[Category]int)}
	for cat, group := range items {
		if len(group) == 0 {
			continue
		}
		stats.Categories[cat] = len(group)
		for _, item := range group {
			stats.TotalItems++
			if item.InInventory {
				stats.InInventory++
			}
			if item.Purchased {
				stats.Purchased++
			}
			if item.NeedsPurchase() {
				stats.NeedToBuy++
			}
		}
	}
	return stats
}

// RefreshStats 重新計算統計
func (l *ShoppingList) RefreshStats() {
	l.Stats = ComputeStats(l.Items)
}

func (l *ShoppingList) locate(key string, from Category) (int, error) {
	for i, item := range l.Items[from] {
		if item.NormalizedKey == key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q in %s", ErrItemNotFound, key, from)
}

// Move 將項目從來源分類移到目標分類；來源清空時刪除該分類
func (l *ShoppingList) Move(key string, from, to Category) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, to)
	}
	idx, err := l.locate(key, from)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}

	item := l.Items[from][idx]
	item.Category = to
	source := append(l.Items[from][:idx:idx], l.Items[from][idx+1:]...)
	if len(source) == 0 {
		delete(l.Items, from)
	} else {
		l.Items[from] = source
	}
	l.Items[to] = append(l.Items[to], item)
	l.RefreshStats()
	return nil
}

// SetPurchased 切換項目的已購買狀態
func (l *ShoppingList) SetPurchased(ingredient string, purchased bool) error {
	cat, idx, ok := l.Items.Find(Normalize(ingredient))
	if !ok {
		return fmt.Errorf("%w: %q", ErrItemNotFound, ingredient)
	}
	l.Items[cat][idx].Purchased = purchased
	l.RefreshStats()
	return nil
}

// SelectInventoryItem 使用者手動指定庫存項目
func (l *ShoppingList) SelectInventoryItem(ingredient string, record InventoryRecord) error {
	cat, idx, ok := l.Items.Find(Normalize(ingredient))
	if !ok {
		return fmt.Errorf("%w: %q", ErrItemNotFound, ingredient)
	}
	item := &l.Items[cat][idx]
	rec := record
	item.InventoryItem = &rec
	item.InInventory = true
	item.MatchType = MatchManual
	l.RefreshStats()
	return nil
}

// ItemFilter 清單篩選條件
type ItemFilter string

const (
	FilterAll         ItemFilter = "all"
	FilterNeedToBuy   ItemFilter = "needToBuy"
	FilterInInventory ItemFilter = "inInventory"
	FilterPurchased   ItemFilter = "purchased"
)

// ParseItemFilter 解析篩選條件，未知值視為 all
func ParseItemFilter(s string) ItemFilter {
	switch ItemFilter(strings.TrimSpace(s)) {
	case FilterNeedToBuy:
		return FilterNeedToBuy
	case FilterInInventory:
		return FilterInInventory
	case FilterPurchased:
		return FilterPurchased
	default:
		return FilterAll
	}
}

// Filter 返回符合條件的項目（仍依分類分組）
func (l *ShoppingList) Filter(f ItemFilter) CategorizedItems {
	out := make(CategorizedItems)
	for cat, items := range l.Items {
		for _, item := range items {
			keep := true
			switch f {
			case FilterNeedToBuy:
				keep = item.NeedsPurchase()
			case FilterInInventory:
				keep = item.InInventory
			case FilterPurchased:
				keep = item.Purchased
			}
			if keep {
				out[cat] = append(out[cat], item)
			}
		}
	}
	return out
}

// Entries 將清單轉回原始項目（與臨時項目重新合併時使用）
func (l *ShoppingList) Entries() []RawEntry {
	var entries []RawEntry
	for _, group := range l.Items.Ordered() {
		for _, item := range group.Items {
			entries = append(entries, EntryFromItem(item))
		}
	}
	return entries
}

// WorkingInventory 庫存的工作副本；新增項目不會影響來源
type WorkingInventory struct {
	records []InventoryRecord
	added   []InventoryRecord
}

// NewWorkingInventory 複製來源庫存
func NewWorkingInventory(source []InventoryRecord) *WorkingInventory {
	records := make([]InventoryRecord, len(source))
	copy(records, source)
	return &WorkingInventory{records: records}
}

// Add 加入新項目（如完成餐點時補上的缺少食材），缺少 ID 時自動產生
func (w *WorkingInventory) Add(record InventoryRecord) InventoryRecord {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	w.records = append(w.records, record)
	w.added = append(w.added, record)
	return record
}

// Records 目前的工作副本
func (w *WorkingInventory) Records() []InventoryRecord {
	out := make([]InventoryRecord, len(w.records))
	copy(out, w.records)
	return out
}

// Added 本次新增的項目
func (w *WorkingInventory) Added() []InventoryRecord {
	out := make([]InventoryRecord, len(w.added))
	copy(out, w.added)
	return out
}
