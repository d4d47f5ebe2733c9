package grocery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleList() *ShoppingList {
	list := &ShoppingList{
		ID: "list-1",
		Items: CategorizedItems{
			CategoryPantry: {
				{Ingredient: "flour", NormalizedKey: "flour", Category: CategoryPantry, InInventory: true, MatchType: MatchAuto},
				{Ingredient: "rice", NormalizedKey: "rice", Category: CategoryPantry, MatchType: MatchNone},
			},
			CategoryProduce: {
				{Ingredient: "onion", NormalizedKey: "onion", Category: CategoryProduce, Purchased: true, MatchType: MatchNone},
			},
			CategoryDairy: {
				{Ingredient: "milk", NormalizedKey: "milk", Category: CategoryDairy, MatchType: MatchNone},
			},
		},
	}
	list.RefreshStats()
	return list
}

func assertStatsConsistent(t *testing.T, list *ShoppingList) {
	t.Helper()
	need, total := 0, 0
	for _, items := range list.Items {
		for _, item := range items {
			total++
			if !item.InInventory && !item.Purchased {
				need++
			}
		}
	}
	assert.Equal(t, total, list.Stats.TotalItems)
	assert.Equal(t, need, list.Stats.NeedToBuy)
	assert.LessOrEqual(t, list.Stats.Purchased, list.Stats.TotalItems)
}

func TestComputeStats(t *testing.T) {
	list := sampleList()
	assert.Equal(t, Stats{
		TotalItems:  4,
		NeedToBuy:   2,
		InInventory: 1,
		Purchased:   1,
		Categories:  map[Category]int{CategoryPantry: 2, CategoryProduce: 1, CategoryDairy: 1},
	}, list.Stats)
	assertStatsConsistent(t, list)
}

func TestMove(t *testing.T) {
	list := sampleList()

	require.NoError(t, list.Move("milk", CategoryDairy, CategoryPantry))
	_, ok := list.Items[CategoryDairy]
	assert.False(t, ok, "empty category removed")
	assert.Len(t, list.Items[CategoryPantry], 3)
	assert.Equal(t, CategoryPantry, list.Items[CategoryPantry][2].Category)
	assert.Equal(t, 3, list.Stats.Categories[CategoryPantry])
	assertStatsConsistent(t, list)

	require.NoError(t, list.Move("rice", CategoryPantry, CategoryPantry))
	assert.Len(t, list.Items[CategoryPantry], 3)

	err := list.Move("rice", CategoryProduce, CategoryOther)
	assert.True(t, errors.Is(err, ErrItemNotFound))

	err = list.Move("rice", CategoryPantry, Category("Household"))
	assert.True(t, errors.Is(err, ErrInvalidCategory))
}

func TestSetPurchased(t *testing.T) {
	list := sampleList()

	require.NoError(t, list.SetPurchased("Rice", true))
	assert.Equal(t, 1, list.Stats.NeedToBuy)
	assert.Equal(t, 2, list.Stats.Purchased)
	assertStatsConsistent(t, list)

	require.NoError(t, list.SetPurchased("onion", false))
	assert.Equal(t, 2, list.Stats.NeedToBuy)

	assert.True(t, errors.Is(list.SetPurchased("saffron", true), ErrItemNotFound))
}

func TestSelectInventoryItem(t *testing.T) {
	list := sampleList()
	record := InventoryRecord{ID: "inv-9", Name: "Whole Milk", Quantity: 1, Unit: "gallon"}

	require.NoError(t, list.SelectInventoryItem("milk", record))
	cat, idx, ok := list.Items.Find("milk")
	require.True(t, ok)
	item := list.Items[cat][idx]
	assert.True(t, item.InInventory)
	assert.Equal(t, MatchManual, item.MatchType)
	assert.Equal(t, "inv-9", item.InventoryItem.ID)
	assert.Equal(t, 2, list.Stats.InInventory)
	assertStatsConsistent(t, list)

	// 記錄為副本
	record.Name = "changed"
	assert.Equal(t, "Whole Milk", list.Items[cat][idx].InventoryItem.Name)

	assert.True(t, errors.Is(list.SelectInventoryItem("butter", record), ErrItemNotFound))
}

func TestFilter(t *testing.T) {
	list := sampleList()

	assert.Equal(t, 4, list.Filter(FilterAll).Count())

	need := list.Filter(FilterNeedToBuy)
	assert.Equal(t, 2, need.Count())
	assert.Len(t, need[CategoryPantry], 1)
	assert.Equal(t, "rice", need[CategoryPantry][0].Ingredient)

	inv := list.Filter(FilterInInventory)
	require.Equal(t, 1, inv.Count())
	assert.Equal(t, "flour", inv[CategoryPantry][0].Ingredient)

	bought := list.Filter(FilterPurchased)
	require.Equal(t, 1, bought.Count())
	_, hasPantry := bought[CategoryPantry]
	assert.False(t, hasPantry)
}

func TestParseItemFilter(t *testing.T) {
	assert.Equal(t, FilterNeedToBuy, ParseItemFilter("needToBuy"))
	assert.Equal(t, FilterInInventory, ParseItemFilter(" inInventory "))
	assert.Equal(t, FilterPurchased, ParseItemFilter("purchased"))
	assert.Equal(t, FilterAll, ParseItemFilter(""))
	assert.Equal(t, FilterAll, ParseItemFilter("bogus"))
}

func TestEntries_RoundTripThroughConsolidation(t *testing.T) {
	list := sampleList()
	entries := list.Entries()
	require.Len(t, entries, 4)

	items := NewConsolidator(NewClassifier(nil).ForUser(context.Background(), "")).Consolidate(entries)
	assert.Equal(t, 4, items.Count())
}

func TestWorkingInventory(t *testing.T) {
	source := []InventoryRecord{{ID: "a", Name: "Rice"}}
	w := NewWorkingInventory(source)

	added := w.Add(InventoryRecord{Name: "Saffron", Quantity: 1})
	assert.NotEmpty(t, added.ID)
	kept := w.Add(InventoryRecord{ID: "given", Name: "Salt"})
	assert.Equal(t, "given", kept.ID)

	assert.Len(t, w.Records(), 3)
	assert.Len(t, w.Added(), 2)
	assert.Len(t, source, 1, "source untouched")

	records := w.Records()
	records[0].Name = "mutated"
	assert.Equal(t, "Rice", w.Records()[0].Name)
}

func TestCategorizedItems_MarshalJSONKeepsCategoryOrder(t *testing.T) {
	data, err := json.Marshal(sampleList().Items)
	require.NoError(t, err)

	assert.Equal(t, []string{"Produce", "Dairy & Eggs", "Pantry"}, topLevelKeys(t, data))

	var decoded map[string][]ResolvedItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 3)

	empty, err := json.Marshal(CategorizedItems{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(empty))
}

func TestCategorizedItems_MarshalJSONWithoutHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(sampleList().Items))

	assert.Contains(t, buf.String(), `"Dairy & Eggs"`)
	assert.NotContains(t, buf.String(), `\u0026`)
}

// topLevelKeys 依輸出順序取出物件的鍵
func topLevelKeys(t *testing.T, data []byte) []string {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	return keys
}
