package grocery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"grocery-engine/internal/infrastructure/metrics"
	"grocery-engine/internal/pkg/common"
)

// Options 購物清單生成選項
type Options struct {
	CheckInventory     bool
	CombineIngredients bool
	// UserID 用於載入分類偏好
	UserID string
	// Previous 上一次生成的清單，保留已購買狀態與手動選擇
	Previous *ShoppingList
}

// Assembler 購物清單組裝器
type Assembler struct {
	classifier *Classifier
	prefs      PreferenceStore
	now        func() time.Time
}

// NewAssembler 創建組裝器
func NewAssembler(classifier *Classifier, prefs PreferenceStore) *Assembler {
	if classifier == nil {
		classifier = NewClassifier(prefs)
	}
	return &Assembler{
		classifier: classifier,
		prefs:      prefs,
		now:        time.Now,
	}
}

// Classifier 返回組裝器使用的分類器
func (a *Assembler) Classifier() *Classifier {
	return a.classifier
}

// BuildShoppingList 從餐點計畫生成購物清單
func (a *Assembler) BuildShoppingList(ctx context.Context, plan MealPlan, inventory []InventoryRecord, opts Options) *ShoppingList {
	refs := plan.References()
	entries := make([]RawEntry, 0, len(refs))
	for _, ref := range refs {
		entries = append(entries, EntryFromReference(ref))
	}

	list := a.BuildFromEntries(ctx, entries, inventory, opts)
	list.MealPlanID = plan.ID

	common.LogInfo("Shopping list generated",
		zap.String("list_id", list.ID),
		zap.String("meal_plan_id", plan.ID),
		zap.Int("references", len(refs)),
		zap.Int("total_items", list.Stats.TotalItems),
		zap.Int("need_to_buy", list.Stats.NeedToBuy),
	)
	return list
}

// BuildFromEntries 從任意原始項目生成清單（臨時購物項目、已儲存清單）
func (a *Assembler) BuildFromEntries(ctx context.Context, entries []RawEntry, inventory []InventoryRecord, opts Options) *ShoppingList {
	consolidator := NewConsolidator(a.classifier.ForUser(ctx, opts.UserID))
	var items CategorizedItems
	if opts.CombineIngredients {
		items = consolidator.Consolidate(entries)
	} else {
		items = consolidator.Place(entries)
	}

	previous := previousState(opts.Previous)
	for cat := range items {
		for i := range items[cat] {
			item := &items[cat][i]
			prior, hadPrior := previous[item.NormalizedKey]
			if opts.CheckInventory {
				resolveInventory(item, inventory, prior, hadPrior)
			} else {
				item.InInventory = false
				item.InventoryItem = nil
				item.MatchType = MatchNone
			}
			if hadPrior {
				item.Purchased = prior.Purchased
			}
			metrics.InventoryMatches.WithLabelValues(string(item.MatchType)).Inc()
		}
		sortItems(items[cat])
	}

	list := &ShoppingList{
		ID:          uuid.New().String(),
		UserID:      opts.UserID,
		Items:       items,
		GeneratedAt: a.now(),
	}
	if opts.Previous != nil && opts.Previous.ID != "" {
		list.ID = opts.Previous.ID
	}
	list.RefreshStats()

	metrics.ListsGenerated.Inc()
	metrics.ListSize.Observe(float64(list.Stats.TotalItems))
	return list
}

// MergeEntries 將臨時項目併入既有清單；保留清單 ID、分類與庫存比對
// 已購買的項目若再加入數量，會回到待購買
func (a *Assembler) MergeEntries(ctx context.Context, list *ShoppingList, extra []RawEntry) *ShoppingList {
	entries := append(list.Entries(), extra...)
	merged := a.BuildFromEntries(ctx, entries, nil, Options{
		CombineIngredients: true,
		UserID:             list.UserID,
	})
	merged.ID = list.ID
	merged.MealPlanID = list.MealPlanID

	previous := previousState(list)
	for cat := range merged.Items {
		for i := range merged.Items[cat] {
			item := &merged.Items[cat][i]
			if prior, ok := previous[item.NormalizedKey]; ok {
				item.InInventory = prior.InInventory
				item.InventoryItem = prior.InventoryItem
				item.MatchType = prior.MatchType
			}
		}
	}
	merged.RefreshStats()

	common.LogInfo("Entries merged into shopping list",
		zap.String("list_id", merged.ID),
		zap.Int("added", len(extra)),
		zap.Int("total_items", merged.Stats.TotalItems),
	)
	return merged
}

func previousState(prev *ShoppingList) map[string]ResolvedItem {
	state := make(map[string]ResolvedItem)
	if prev == nil {
		return state
	}
	for _, items := range prev.Items {
		for _, item := range items {
			if _, ok := state[item.NormalizedKey]; !ok && item.NormalizedKey != "" {
				state[item.NormalizedKey] = item
			}
		}
	}
	return state
}

// resolveInventory 依序嘗試：保留的手動選擇、直接指定、自動比對
func resolveInventory(item *ResolvedItem, inventory []InventoryRecord, prior ResolvedItem, hadPrior bool) {
	setMatch := func(rec *InventoryRecord, mt MatchType) {
		item.InInventory = true
		item.InventoryItem = rec
		item.MatchType = mt
	}

	if hadPrior && prior.MatchType == MatchManual && prior.InventoryItem != nil {
		if rec := FindByID(prior.InventoryItem.ID, inventory); rec != nil {
			setMatch(rec, MatchManual)
			return
		}
	}
	if item.MatchType == MatchDirect && item.InventoryItem != nil {
		if rec := FindByID(item.InventoryItem.ID, inventory); rec != nil {
			setMatch(rec, MatchDirect)
			return
		}
	}
	if rec := FindBestMatch(item.NormalizedKey, inventory); rec != nil {
		setMatch(rec, MatchAuto)
		return
	}
	item.InInventory = false
	item.InventoryItem = nil
	item.MatchType = MatchNone
}

func sortItems(items []ResolvedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Ingredient) < strings.ToLower(items[j].Ingredient)
	})
}

// MoveItem 將項目移至其他分類並記住使用者偏好
// 來源分類清空時刪除該分類
func (a *Assembler) MoveItem(ctx context.Context, list *ShoppingList, userID, ingredient string, from, to Category) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, to)
	}
	key := Normalize(ingredient)
	if from == "" {
		cat, _, ok := list.Items.Find(key)
		if !ok {
			return fmt.Errorf("%w: %q", ErrItemNotFound, ingredient)
		}
		from = cat
	}
	if err := list.Move(key, from, to); err != nil {
		return err
	}

	if userID == "" || a.prefs == nil || key == "" {
		return nil
	}
	if err := a.prefs.Set(ctx, userID, key, to); err != nil {
		// 清單已更新；偏好僅為建議性質
		common.LogWarn("Failed to persist category preference",
			zap.String("user_id", userID),
			zap.String("key", key),
			zap.String("category", string(to)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrPreferenceNotSaved, err)
	}
	return nil
}

// Recategorize 以目前偏好與規則重新分類整份清單
func (a *Assembler) Recategorize(ctx context.Context, list *ShoppingList, userID string) int {
	type move struct {
		key      string
		from, to Category
	}
	resolver := a.classifier.ForUser(ctx, userID)

	// 先收集再搬移，避免在走訪中修改分組切片
	var moves []move
	for _, group := range list.Items.Ordered() {
		for _, item := range group.Items {
			if target := resolver.Classify(item.Ingredient, "", ""); target != group.Category {
				moves = append(moves, move{key: item.NormalizedKey, from: group.Category, to: target})
			}
		}
	}

	moved := 0
	for _, m := range moves {
		if err := list.Move(m.key, m.from, m.to); err == nil {
			moved++
		}
	}
	if moved > 0 {
		for cat := range list.Items {
			sortItems(list.Items[cat])
		}
	}
	return moved
}

// ResolveMeal 單餐完成時逐一解析食材的庫存狀態
func (a *Assembler) ResolveMeal(ctx context.Context, userID string, meal PlannedMeal, inventory []InventoryRecord) []ResolvedItem {
	resolver := a.classifier.ForUser(ctx, userID)
	consolidator := NewConsolidator(resolver)

	refs := meal.references("")
	out := make([]ResolvedItem, 0, len(refs))
	for _, ref := range refs {
		var item ResolvedItem
		placed := consolidator.Place([]RawEntry{EntryFromReference(ref)})
		for _, items := range placed {
			if len(items) > 0 {
				item = items[0]
			}
		}
		if item.Ingredient == "" {
			continue
		}
		resolveInventory(&item, inventory, ResolvedItem{}, false)
		out = append(out, item)
	}
	return out
}
