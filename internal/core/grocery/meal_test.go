package grocery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMealPlan_Days(t *testing.T) {
	plan := MealPlan{Meals: map[string][]PlannedMeal{
		"Sunday":    nil,
		"wednesday": nil,
		"monday":    nil,
		"extra":     nil,
		"bonus":     nil,
	}}
	assert.Equal(t, []string{"monday", "wednesday", "Sunday", "bonus", "extra"}, plan.Days())
}

func TestMealPlan_ReferencesScaleServings(t *testing.T) {
	plan := MealPlan{Meals: map[string][]PlannedMeal{
		"monday": {{
			MealType:   "dinner",
			Servings:   6,
			RecipeName: "Chili",
			Recipe: &Recipe{Servings: 4, Ingredients: []RecipeIngredient{
				{Name: "ground beef", Amount: Quantity{Value: 2}, Unit: "lb"},
				{Name: "kidney beans", Amount: Quantity{Value: 1, Unit: "can"}},
			}},
		}},
	}}

	refs := plan.References()
	require.Len(t, refs, 2)
	assert.Equal(t, IngredientReference{RawName: "ground beef", Amount: 3, Unit: "lb", SourceRecipe: "Chili"}, refs[0])
	assert.Equal(t, 1.5, refs[1].Amount)
	assert.Equal(t, "can", refs[1].Unit, "unit parsed from a string amount")
}

func TestMealPlan_ReferencesSimpleItems(t *testing.T) {
	plan := MealPlan{Meals: map[string][]PlannedMeal{
		"tuesday": {
			{MealType: "snack", SimpleItems: []SimpleMealItem{{ItemName: "Apple", Quantity: 2, InventoryItemID: "inv-apple"}}},
			{MealType: "lunch", Name: "Leftovers", SimpleItems: []SimpleMealItem{{ItemName: "Bread"}}},
		},
	}}

	refs := plan.References()
	require.Len(t, refs, 2)
	assert.Equal(t, "tuesday snack", refs[0].SourceRecipe)
	assert.Equal(t, "inv-apple", refs[0].InventoryItemID)
	assert.Equal(t, 2.0, refs[0].Amount)
	assert.Equal(t, "Leftovers", refs[1].SourceRecipe)
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	var ing struct {
		A Quantity `json:"a"`
		B Quantity `json:"b"`
		C Quantity `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 2.5, "b": "1 1/2 cups", "c": "a pinch"}`), &ing))
	assert.Equal(t, Quantity{Value: 2.5}, ing.A)
	assert.Equal(t, 1.5, ing.B.Value)
	assert.Equal(t, "cups", ing.B.Unit)
	assert.Equal(t, 0.0, ing.C.Value)

	var bad Quantity
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))

	out, err := json.Marshal(Quantity{Value: 3, Unit: "cups"})
	require.NoError(t, err)
	assert.Equal(t, "3", string(out))
}

func TestMealPlan_DecodesUpstreamShape(t *testing.T) {
	payload := `{
		"id": "mp-7",
		"meals": {
			"monday": [{"mealType": "dinner", "servings": 2,
				"recipe": {"id": "r1", "title": "Soup", "servings": 2,
					"ingredients": [{"name": "carrots", "amount": "2", "unit": "cups"}]}}]
		}
	}`
	var plan MealPlan
	require.NoError(t, json.Unmarshal([]byte(payload), &plan))
	refs := plan.References()
	require.Len(t, refs, 1)
	assert.Equal(t, 2.0, refs[0].Amount)
	assert.Equal(t, "Soup", refs[0].SourceRecipe)
}
