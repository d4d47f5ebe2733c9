package grocery

import (
	"strings"
	"unicode"
)

// Category 商店分區分類標籤
type Category string

// 分類常數（順序即顯示順序）
const (
	CategoryProduce    Category = "Produce"
	CategoryMeat       Category = "Meat & Seafood"
	CategoryDairy      Category = "Dairy & Eggs"
	CategoryBakery     Category = "Bakery"
	CategoryPantry     Category = "Pantry"
	CategoryFrozen     Category = "Frozen"
	CategoryCondiments Category = "Condiments & Sauces"
	CategorySeasonings Category = "Seasonings"
	CategoryOther      Category = "Other"
)

var categoryOrder = []Category{
	CategoryProduce,
	CategoryMeat,
	CategoryDairy,
	CategoryBakery,
	CategoryPantry,
	CategoryFrozen,
	CategoryCondiments,
	CategorySeasonings,
	CategoryOther,
}

// 舊版資料中出現過的小寫標籤
var categoryAliases = map[string]Category{
	"produce":             CategoryProduce,
	"fruit":               CategoryProduce,
	"fruits":              CategoryProduce,
	"vegetable":           CategoryProduce,
	"vegetables":          CategoryProduce,
	"meat":                CategoryMeat,
	"meat & seafood":      CategoryMeat,
	"meat and seafood":    CategoryMeat,
	"seafood":             CategoryMeat,
	"protein":             CategoryMeat,
	"proteins":            CategoryMeat,
	"dairy":               CategoryDairy,
	"dairy & eggs":        CategoryDairy,
	"dairy and eggs":      CategoryDairy,
	"bakery":              CategoryBakery,
	"bread":               CategoryBakery,
	"pantry":              CategoryPantry,
	"dry goods":           CategoryPantry,
	"canned goods":        CategoryPantry,
	"frozen":              CategoryFrozen,
	"condiments":          CategoryCondiments,
	"sauces":              CategoryCondiments,
	"condiments & sauces": CategoryCondiments,
	"condiments/sauces":   CategoryCondiments,
	"seasonings":          CategorySeasonings,
	"seasoning":           CategorySeasonings,
	"spices":              CategorySeasonings,
	"other":               CategoryOther,
}

// Categories 返回固定的分類顯示順序
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Valid 檢查是否為已知分類
func (c Category) Valid() bool {
	return c.rank() >= 0
}

func (c Category) rank() int {
	for i, known := range categoryOrder {
		if known == c {
			return i
		}
	}
	return -1
}

// ParseCategory 將上游傳入的標籤解析為分類
// 純數字標籤（陣列索引外洩）一律視為不可信
func ParseCategory(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	if label == "" || IsNumericLabel(label) {
		return "", false
	}
	if c := Category(label); c.Valid() {
		return c, true
	}
	if c, ok := categoryAliases[strings.ToLower(label)]; ok {
		return c, true
	}
	return "", false
}

// IsNumericLabel 判斷標籤是否只由數字組成
func IsNumericLabel(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" {
		return false
	}
	for _, r := range label {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
