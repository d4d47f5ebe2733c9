package shopping

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

// MealPlanSource 餐點計畫來源
type MealPlanSource interface {
	GetMealPlan(ctx context.Context, planID string) (*grocery.MealPlan, error)
}

// InventorySource 庫存來源
type InventorySource interface {
	ListInventory(ctx context.Context, userID string) ([]grocery.InventoryRecord, error)
}

// GenerateOptions 可覆寫預設的生成選項
type GenerateOptions struct {
	CheckInventory     *bool `json:"checkInventory,omitempty"`
	CombineIngredients *bool `json:"combineIngredients,omitempty"`
}

// GenerateRequest 生成購物清單請求
type GenerateRequest struct {
	UserID         string                     `json:"userId"`
	MealPlanID     string                     `json:"mealPlanId,omitempty"`
	MealPlan       *grocery.MealPlan          `json:"mealPlan,omitempty"`
	Inventory      *[]grocery.InventoryRecord `json:"inventory,omitempty"`
	Options        GenerateOptions            `json:"options"`
	PreviousListID string                     `json:"previousListId,omitempty"`
}

// Service 購物清單服務
type Service struct {
	assembler *grocery.Assembler
	store     *ListStore
	mealPlans MealPlanSource
	inventory InventorySource
	defaults  config.ShoppingConfig
}

// NewService 創建購物清單服務；mealPlans 與 inventory 可為 nil
func NewService(assembler *grocery.Assembler, store *ListStore, mealPlans MealPlanSource, inventory InventorySource, defaults config.ShoppingConfig) *Service {
	return &Service{
		assembler: assembler,
		store:     store,
		mealPlans: mealPlans,
		inventory: inventory,
		defaults:  defaults,
	}
}

// Store 返回清單暫存
func (s *Service) Store() *ListStore {
	return s.store
}

// Assembler 返回清單組裝器
func (s *Service) Assembler() *grocery.Assembler {
	return s.assembler
}

// Generate 生成並暫存購物清單
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*grocery.ShoppingList, error) {
	opts := grocery.Options{
		CheckInventory:     pick(req.Options.CheckInventory, s.defaults.CheckInventory),
		CombineIngredients: pick(req.Options.CombineIngredients, s.defaults.CombineIngredients),
		UserID:             req.UserID,
	}

	if req.PreviousListID != "" {
		prev, err := s.store.Get(req.PreviousListID)
		if err != nil {
			return nil, err
		}
		opts.Previous = prev
	}

	plan, err := s.loadMealPlan(ctx, req)
	if err != nil {
		return nil, err
	}

	var inventory []grocery.InventoryRecord
	if opts.CheckInventory {
		if inventory, err = s.loadInventory(ctx, req); err != nil {
			return nil, err
		}
	}

	list := s.assembler.BuildShoppingList(ctx, *plan, inventory, opts)
	if err := s.store.Put(list); err != nil {
		return nil, err
	}
	return cloneList(list), nil
}

func (s *Service) loadMealPlan(ctx context.Context, req GenerateRequest) (*grocery.MealPlan, error) {
	if req.MealPlan != nil {
		return req.MealPlan, nil
	}
	if req.MealPlanID == "" {
		return nil, common.ErrMealPlanRequired
	}
	if s.mealPlans == nil {
		return nil, common.ErrServiceUnavailable.Wrap(errors.New("meal plan collaborator is not configured"))
	}
	plan, err := s.mealPlans.GetMealPlan(ctx, req.MealPlanID)
	if err != nil {
		common.LogError("Failed to fetch meal plan", zap.String("meal_plan_id", req.MealPlanID), zap.Error(err))
		return nil, common.ErrUpstreamUnavailable.Wrap(err)
	}
	return plan, nil
}

func (s *Service) loadInventory(ctx context.Context, req GenerateRequest) ([]grocery.InventoryRecord, error) {
	if req.Inventory != nil {
		return *req.Inventory, nil
	}
	if s.inventory == nil {
		// 無庫存來源時視為空庫存
		common.LogWarn("Inventory collaborator not configured, treating inventory as empty",
			zap.String("user_id", req.UserID))
		return nil, nil
	}
	records, err := s.inventory.ListInventory(ctx, req.UserID)
	if err != nil {
		common.LogError("Failed to fetch inventory", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, common.ErrUpstreamUnavailable.Wrap(err)
	}
	return records, nil
}

// Get 取得已暫存的清單
func (s *Service) Get(id string) (*grocery.ShoppingList, error) {
	return s.store.Get(id)
}

// SetPurchased 更新項目的已購買狀態
func (s *Service) SetPurchased(id, ingredient string, purchased bool) (*grocery.ShoppingList, error) {
	return s.mutate(id, func(list *grocery.ShoppingList) error {
		return list.SetPurchased(ingredient, purchased)
	})
}

// MoveItem 移動項目並記住使用者偏好
func (s *Service) MoveItem(ctx context.Context, id, userID, ingredient string, from, to grocery.Category) (*grocery.ShoppingList, error) {
	if !to.Valid() {
		return nil, common.ErrInvalidCategory.Wrap(grocery.ErrInvalidCategory)
	}
	var prefErr error
	list, err := s.mutate(id, func(list *grocery.ShoppingList) error {
		if userID == "" {
			userID = list.UserID
		}
		err := s.assembler.MoveItem(ctx, list, userID, ingredient, from, to)
		if errors.Is(err, grocery.ErrPreferenceNotSaved) {
			// 清單已更新，偏好寫入失敗另行回報
			prefErr = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if prefErr != nil {
		return list, common.ErrPreferenceStore.Wrap(prefErr)
	}
	return list, nil
}

// SelectInventory 手動指定項目對應的庫存
func (s *Service) SelectInventory(id, ingredient string, record grocery.InventoryRecord) (*grocery.ShoppingList, error) {
	if strings.TrimSpace(record.ID) == "" && strings.TrimSpace(record.Name) == "" {
		return nil, common.ErrInvalidRequest.Wrap(errors.New("inventory item requires id or name"))
	}
	return s.mutate(id, func(list *grocery.ShoppingList) error {
		return list.SelectInventoryItem(ingredient, record)
	})
}

// Recategorize 以偏好與規則重新分類整份清單
func (s *Service) Recategorize(ctx context.Context, id, userID string) (*grocery.ShoppingList, int, error) {
	moved := 0
	list, err := s.mutate(id, func(list *grocery.ShoppingList) error {
		if userID == "" {
			userID = list.UserID
		}
		moved = s.assembler.Recategorize(ctx, list, userID)
		return nil
	})
	return list, moved, err
}

// AddItems 將臨時項目併入已暫存的清單
func (s *Service) AddItems(ctx context.Context, id string, entries []grocery.RawEntry) (*grocery.ShoppingList, error) {
	if len(entries) == 0 {
		return nil, common.ErrInvalidRequest.Wrap(errors.New("no entries to add"))
	}
	return s.mutate(id, func(list *grocery.ShoppingList) error {
		*list = *s.assembler.MergeEntries(ctx, list, entries)
		return nil
	})
}

// FilterItems 依條件篩選清單項目
func (s *Service) FilterItems(id string, filter grocery.ItemFilter) (grocery.CategorizedItems, error) {
	list, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return list.Filter(filter), nil
}

// Consolidate 合併任意原始項目，不暫存
func (s *Service) Consolidate(ctx context.Context, userID string, entries []grocery.RawEntry) *grocery.ShoppingList {
	return s.assembler.BuildFromEntries(ctx, entries, nil, grocery.Options{
		CombineIngredients: true,
		UserID:             userID,
	})
}

// ResolveMeal 解析單餐食材的庫存狀態
func (s *Service) ResolveMeal(ctx context.Context, userID string, meal grocery.PlannedMeal, inventory []grocery.InventoryRecord) []grocery.ResolvedItem {
	return s.assembler.ResolveMeal(ctx, userID, meal, inventory)
}

// mutate 在暫存鎖內修改清單並返回副本
func (s *Service) mutate(id string, fn func(*grocery.ShoppingList) error) (*grocery.ShoppingList, error) {
	var out *grocery.ShoppingList
	err := s.store.Update(id, func(list *grocery.ShoppingList) error {
		if err := fn(list); err != nil {
			return mapListError(err)
		}
		out = cloneList(list)
		return nil
	})
	return out, err
}

func mapListError(err error) error {
	switch {
	case errors.Is(err, grocery.ErrItemNotFound):
		return common.ErrItemNotFound.Wrap(err)
	case errors.Is(err, grocery.ErrInvalidCategory):
		return common.ErrInvalidCategory.Wrap(err)
	default:
		return err
	}
}

func pick(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}
