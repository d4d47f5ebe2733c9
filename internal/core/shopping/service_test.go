package shopping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/core/preference"
	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

type stubMealPlans struct {
	plans map[string]grocery.MealPlan
	err   error
	calls int
}

func (s *stubMealPlans) GetMealPlan(_ context.Context, id string) (*grocery.MealPlan, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	plan, ok := s.plans[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &plan, nil
}

type stubInventory struct {
	records []grocery.InventoryRecord
	err     error
	userIDs []string
}

func (s *stubInventory) ListInventory(_ context.Context, userID string) ([]grocery.InventoryRecord, error) {
	s.userIDs = append(s.userIDs, userID)
	return s.records, s.err
}

// failingPrefs 讀取正常、寫入失敗的偏好儲存
type failingPrefs struct {
	*preference.MemoryStore
}

func (failingPrefs) Set(context.Context, string, string, grocery.Category) error {
	return errors.New("disk full")
}

func weekPlan() grocery.MealPlan {
	return grocery.MealPlan{
		ID: "plan-1",
		Meals: map[string][]grocery.PlannedMeal{
			"monday": {{
				MealType: "dinner",
				Recipe: &grocery.Recipe{Title: "Pasta", Ingredients: []grocery.RecipeIngredient{
					{Name: "spaghetti", Amount: grocery.Quantity{Value: 1}, Unit: "lb"},
					{Name: "garlic", Amount: grocery.Quantity{Value: 3}, Unit: "cloves"},
				}},
			}},
		},
	}
}

type serviceFixture struct {
	svc       *Service
	mealPlans *stubMealPlans
	inventory *stubInventory
	prefs     grocery.PreferenceStore
}

func newFixture(t *testing.T, prefs grocery.PreferenceStore) *serviceFixture {
	t.Helper()
	if prefs == nil {
		prefs = preference.NewMemoryStore()
	}
	f := &serviceFixture{
		mealPlans: &stubMealPlans{plans: map[string]grocery.MealPlan{"plan-1": weekPlan()}},
		inventory: &stubInventory{records: []grocery.InventoryRecord{{ID: "inv-g", Name: "Garlic Bulb"}}},
		prefs:     prefs,
	}
	store := NewListStore(config.ListStoreConfig{MaxSize: 10, TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })

	classifier := grocery.NewClassifier(prefs)
	f.svc = NewService(grocery.NewAssembler(classifier, prefs), store, f.mealPlans, f.inventory,
		config.ShoppingConfig{CheckInventory: true, CombineIngredients: true})
	return f
}

func TestService_GenerateFromCollaborators(t *testing.T) {
	f := newFixture(t, nil)
	list, err := f.svc.Generate(context.Background(), GenerateRequest{UserID: "u1", MealPlanID: "plan-1"})
	require.NoError(t, err)

	assert.Equal(t, "plan-1", list.MealPlanID)
	assert.Equal(t, []string{"u1"}, f.inventory.userIDs)
	assert.Equal(t, 2, list.Stats.TotalItems)
	assert.Equal(t, 1, list.Stats.InInventory)

	stored, err := f.svc.Get(list.ID)
	require.NoError(t, err)
	assert.Equal(t, list.Stats, stored.Stats)
}

func TestService_GenerateInlinePlanAndOptions(t *testing.T) {
	f := newFixture(t, nil)
	plan := weekPlan()
	off := false
	list, err := f.svc.Generate(context.Background(), GenerateRequest{
		MealPlan: &plan,
		Options:  GenerateOptions{CheckInventory: &off},
	})
	require.NoError(t, err)
	assert.Zero(t, f.mealPlans.calls)
	assert.Empty(t, f.inventory.userIDs, "inventory not fetched when checking is off")
	assert.Equal(t, 2, list.Stats.NeedToBuy)

	inline := []grocery.InventoryRecord{{ID: "x", Name: "Spaghetti"}}
	list, err = f.svc.Generate(context.Background(), GenerateRequest{MealPlan: &plan, Inventory: &inline})
	require.NoError(t, err)
	assert.Empty(t, f.inventory.userIDs)
	assert.Equal(t, 1, list.Stats.InInventory)
}

func TestService_GenerateErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Generate(ctx, GenerateRequest{})
	assert.True(t, errors.Is(err, common.ErrMealPlanRequired))

	_, err = f.svc.Generate(ctx, GenerateRequest{MealPlanID: "plan-1", PreviousListID: "gone"})
	assert.True(t, errors.Is(err, common.ErrListNotFound))

	f.mealPlans.err = errors.New("connection refused")
	_, err = f.svc.Generate(ctx, GenerateRequest{MealPlanID: "plan-1"})
	assert.True(t, errors.Is(err, common.ErrUpstreamUnavailable))

	f.mealPlans.err = nil
	f.inventory.err = errors.New("timeout")
	_, err = f.svc.Generate(ctx, GenerateRequest{MealPlanID: "plan-1"})
	assert.True(t, errors.Is(err, common.ErrUpstreamUnavailable))
}

func TestService_GenerateWithoutCollaborators(t *testing.T) {
	store := NewListStore(config.ListStoreConfig{MaxSize: 10, TTL: time.Hour})
	defer store.Close()
	svc := NewService(grocery.NewAssembler(nil, nil), store, nil, nil, config.ShoppingConfig{CheckInventory: true})

	_, err := svc.Generate(context.Background(), GenerateRequest{MealPlanID: "plan-1"})
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable))

	plan := weekPlan()
	list, err := svc.Generate(context.Background(), GenerateRequest{MealPlan: &plan})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Stats.InInventory, "missing inventory collaborator means empty inventory")
}

func TestService_RegenerateKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	first, err := f.svc.Generate(ctx, GenerateRequest{MealPlanID: "plan-1"})
	require.NoError(t, err)

	_, err = f.svc.SetPurchased(first.ID, "spaghetti", true)
	require.NoError(t, err)

	second, err := f.svc.Generate(ctx, GenerateRequest{MealPlanID: "plan-1", PreviousListID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.Stats.Purchased)
}

func TestService_ListMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	list, err := f.svc.Generate(ctx, GenerateRequest{UserID: "u1", MealPlanID: "plan-1"})
	require.NoError(t, err)

	updated, err := f.svc.SetPurchased(list.ID, "Spaghetti", true)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Stats.Purchased)

	_, err = f.svc.SetPurchased(list.ID, "caviar", true)
	assert.True(t, errors.Is(err, common.ErrItemNotFound))

	_, err = f.svc.SetPurchased("missing", "spaghetti", true)
	assert.True(t, errors.Is(err, common.ErrListNotFound))

	_, err = f.svc.SelectInventory(list.ID, "spaghetti", grocery.InventoryRecord{})
	assert.True(t, errors.Is(err, common.ErrInvalidRequest))

	updated, err = f.svc.SelectInventory(list.ID, "spaghetti", grocery.InventoryRecord{ID: "inv-s", Name: "Linguine"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stats.InInventory)

	items, err := f.svc.FilterItems(list.ID, grocery.FilterNeedToBuy)
	require.NoError(t, err)
	assert.Equal(t, 0, items.Count())
}

func TestService_AddItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	list, err := f.svc.Generate(ctx, GenerateRequest{UserID: "u1", MealPlanID: "plan-1"})
	require.NoError(t, err)

	entries, err := grocery.DecodeRawEntries([]byte(`[
		{"name": "spaghetti", "amount": 2, "unit": "lb"},
		{"category": "Dairy & Eggs", "items": [{"name": "milk", "amount": 1, "unit": "gallon"}]}
	]`))
	require.NoError(t, err)

	updated, err := f.svc.AddItems(ctx, list.ID, entries)
	require.NoError(t, err)
	assert.Equal(t, list.ID, updated.ID)
	assert.Equal(t, 3, updated.Stats.TotalItems)
	assert.Equal(t, 1, updated.Stats.InInventory, "garlic keeps its inventory match")

	stored, err := f.svc.Get(list.ID)
	require.NoError(t, err)
	cat, idx, ok := stored.Items.Find("spaghetti")
	require.True(t, ok)
	assert.Equal(t, 3.0, stored.Items[cat][idx].Amount)
	_, _, ok = stored.Items.Find("milk")
	assert.True(t, ok)

	_, err = f.svc.AddItems(ctx, list.ID, nil)
	assert.True(t, errors.Is(err, common.ErrInvalidRequest))
	_, err = f.svc.AddItems(ctx, "missing", entries)
	assert.True(t, errors.Is(err, common.ErrListNotFound))
}

func TestService_MoveItemAndRecategorize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	list, err := f.svc.Generate(ctx, GenerateRequest{UserID: "u1", MealPlanID: "plan-1"})
	require.NoError(t, err)

	moved, err := f.svc.MoveItem(ctx, list.ID, "", "garlic", "", grocery.CategorySeasonings)
	require.NoError(t, err)
	cat, _, ok := moved.Items.Find("garlic")
	require.True(t, ok)
	assert.Equal(t, grocery.CategorySeasonings, cat)

	tag, ok, err := f.prefs.Get(ctx, "u1", "garlic")
	require.NoError(t, err)
	require.True(t, ok, "list owner used when no user given")
	assert.Equal(t, grocery.CategorySeasonings, tag)

	_, err = f.svc.MoveItem(ctx, list.ID, "u1", "garlic", "", grocery.Category("Aisle 9"))
	assert.True(t, errors.Is(err, common.ErrInvalidCategory))

	require.NoError(t, f.prefs.Set(ctx, "u1", "spaghetti", grocery.CategoryOther))
	_, count, err := f.svc.Recategorize(ctx, list.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_MoveItemPreferenceFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingPrefs{preference.NewMemoryStore()})
	list, err := f.svc.Generate(ctx, GenerateRequest{UserID: "u1", MealPlanID: "plan-1"})
	require.NoError(t, err)

	moved, err := f.svc.MoveItem(ctx, list.ID, "u1", "garlic", "", grocery.CategoryOther)
	assert.True(t, errors.Is(err, common.ErrPreferenceStore))
	require.NotNil(t, moved)
	cat, _, _ := moved.Items.Find("garlic")
	assert.Equal(t, grocery.CategoryOther, cat)

	stored, err := f.svc.Get(list.ID)
	require.NoError(t, err)
	cat, _, _ = stored.Items.Find("garlic")
	assert.Equal(t, grocery.CategoryOther, cat)
}

func TestService_Consolidate(t *testing.T) {
	f := newFixture(t, nil)
	entries := []grocery.RawEntry{
		grocery.StringEntry("2 cups flour"),
		grocery.StringEntry("1 cup flour"),
		grocery.StringEntry("milk"),
	}
	list := f.svc.Consolidate(context.Background(), "", entries)
	assert.Equal(t, 2, list.Stats.TotalItems)

	_, err := f.svc.Get(list.ID)
	assert.True(t, errors.Is(err, common.ErrListNotFound), "consolidation results are not stored")
}
