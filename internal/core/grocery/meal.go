package grocery

import (
	"encoding/json"
	"sort"
	"strings"
)

// MealPlan 餐點計畫（由餐點計畫服務提供）
type MealPlan struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	WeekStart string                   `json:"weekStart,omitempty"`
	Meals     map[string][]PlannedMeal `json:"meals"`
}

// PlannedMeal 某天某餐次的餐點，可為食譜或簡易餐點
type PlannedMeal struct {
	MealType    string           `json:"mealType"`
	Name        string           `json:"name,omitempty"`
	RecipeID    string           `json:"recipeId,omitempty"`
	RecipeName  string           `json:"recipeName,omitempty"`
	Servings    float64          `json:"servings,omitempty"`
	Recipe      *Recipe          `json:"recipe,omitempty"`
	SimpleItems []SimpleMealItem `json:"items,omitempty"`
}

// Recipe 食譜
type Recipe struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Servings    float64            `json:"servings,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// RecipeIngredient 食譜食材
type RecipeIngredient struct {
	Name     string   `json:"name"`
	Amount   Quantity `json:"amount"`
	Unit     string   `json:"unit,omitempty"`
	Optional bool     `json:"optional,omitempty"`
}

// SimpleMealItem 簡易餐點項目，可直接指定庫存項目
type SimpleMealItem struct {
	ItemName        string  `json:"itemName"`
	Quantity        float64 `json:"quantity,omitempty"`
	Unit            string  `json:"unit,omitempty"`
	InventoryItemID string  `json:"inventoryItemId,omitempty"`
}

// Quantity 接受數字或 "1 1/2 cups" 之類字串的數量
type Quantity struct {
	Value float64
	// Unit 字串數量中數字後的文字
	Unit string
}

// UnmarshalJSON 支援數字與字串兩種格式
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		q.Value, q.Unit = n, ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	q.Value, q.Unit = ParseAmount(s)
	return nil
}

// MarshalJSON 輸出為數字
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Value)
}

var weekdayOrder = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3, "friday": 4, "saturday": 5, "sunday": 6,
}

// Days 依星期順序返回日期鍵，非星期名稱的鍵排在後面並依字母排序
func (p MealPlan) Days() []string {
	days := make([]string, 0, len(p.Meals))
	for day := range p.Meals {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		ri, iok := weekdayOrder[strings.ToLower(days[i])]
		rj, jok := weekdayOrder[strings.ToLower(days[j])]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return days[i] < days[j]
		}
	})
	return days
}

// References 取出計畫中每個食譜食材與簡易餐點項目的引用
// 食譜數量依 餐點份數 / 食譜份數 縮放
func (p MealPlan) References() []IngredientReference {
	var refs []IngredientReference
	for _, day := range p.Days() {
		for _, meal := range p.Meals[day] {
			refs = append(refs, meal.references(day)...)
		}
	}
	return refs
}

func (m PlannedMeal) references(day string) []IngredientReference {
	var refs []IngredientReference
	if m.Recipe != nil {
		scale := 1.0
		if m.Servings > 0 && m.Recipe.Servings > 0 {
			scale = m.Servings / m.Recipe.Servings
		}
		source := m.Recipe.Title
		if source == "" {
			source = m.RecipeName
		}
		for _, ing := range m.Recipe.Ingredients {
			unit := ing.Unit
			if unit == "" {
				unit = ing.Amount.Unit
			}
			refs = append(refs, IngredientReference{
				RawName:      ing.Name,
				Amount:       ing.Amount.Value * scale,
				Unit:         unit,
				SourceRecipe: source,
			})
		}
	}

	source := m.Name
	if source == "" {
		source = strings.TrimSpace(day + " " + m.MealType)
	}
	for _, item := range m.SimpleItems {
		refs = append(refs, IngredientReference{
			RawName:         item.ItemName,
			Amount:          item.Quantity,
			Unit:            item.Unit,
			SourceRecipe:    source,
			InventoryItemID: item.InventoryItemID,
		})
	}
	return refs
}
