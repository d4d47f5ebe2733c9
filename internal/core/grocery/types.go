package grocery

import (
	"bytes"
	"encoding/json"
	"time"
)

// IngredientReference 單一食譜食材或簡易餐點項目的引用
type IngredientReference struct {
	RawName      string  `json:"rawName"`
	Amount       float64 `json:"amount,omitempty"`
	Unit         string  `json:"unit,omitempty"`
	SourceRecipe string  `json:"sourceRecipe,omitempty"`
	// InventoryItemID 簡易餐點直接指定的庫存項目
	InventoryItemID string `json:"inventoryItemId,omitempty"`
}

// InventoryRecord 庫存項目（由庫存服務擁有，引擎只讀）
type InventoryRecord struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand,omitempty"`
	Category string  `json:"category,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Location string  `json:"location,omitempty"`
}

// MatchType 庫存比對方式
type MatchType string

const (
	MatchAuto   MatchType = "auto"
	MatchManual MatchType = "manual"
	MatchDirect MatchType = "direct"
	MatchNone   MatchType = "none"
)

// AlternativeAmount 單位不一致時保留的另一份數量
type AlternativeAmount struct {
	Amount  float64  `json:"amount"`
	Unit    string   `json:"unit"`
	Recipes []string `json:"recipes,omitempty"`
}

// ResolvedItem 購物清單上已解析的一行
type ResolvedItem struct {
	Ingredient         string              `json:"ingredient"`
	NormalizedKey      string              `json:"normalizedKey"`
	Category           Category            `json:"category"`
	Amount             float64             `json:"amount"`
	Unit               string              `json:"unit"`
	AlternativeAmounts []AlternativeAmount `json:"alternativeAmounts,omitempty"`
	Recipes            []string            `json:"recipes"`
	InInventory        bool                `json:"inInventory"`
	InventoryItem      *InventoryRecord    `json:"inventoryItem,omitempty"`
	Purchased          bool                `json:"purchased"`
	MatchType          MatchType           `json:"matchType"`
}

// NeedsPurchase 尚未在庫存中且未購買
func (r ResolvedItem) NeedsPurchase() bool {
	return !r.InInventory && !r.Purchased
}

// CategorizedItems 依分類分組的項目
type CategorizedItems map[Category][]ResolvedItem

// Ordered 依固定分類順序返回非空分組
func (c CategorizedItems) Ordered() []CategoryGroup {
	groups := make([]CategoryGroup, 0, len(c))
	for _, cat := range categoryOrder {
		if items := c[cat]; len(items) > 0 {
			groups = append(groups, CategoryGroup{Category: cat, Items: items})
		}
	}
	return groups
}

// Count 項目總數
func (c CategorizedItems) Count() int {
	n := 0
	for _, items := range c {
		n += len(items)
	}
	return n
}

// Find 依正規化鍵尋找項目位置
func (c CategorizedItems) Find(key string) (Category, int, bool) {
	for _, cat := range categoryOrder {
		for i, item := range c[cat] {
			if item.NormalizedKey == key {
				return cat, i, true
			}
		}
	}
	return "", -1, false
}

// MarshalJSON 以固定分類順序輸出，而非 map 的字母順序
func (c CategorizedItems) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, group := range c.Ordered() {
		key, err := marshalUnescaped(string(group.Category))
		if err != nil {
			return nil, err
		}
		items, err := marshalUnescaped(group.Items)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(items)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalUnescaped 分類名稱如 "Dairy & Eggs" 直接輸出，不轉為 \u0026
func marshalUnescaped(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// CategoryGroup 單一分類的項目
type CategoryGroup struct {
	Category Category       `json:"category"`
	Items    []ResolvedItem `json:"items"`
}

// Stats 購物清單統計
type Stats struct {
	TotalItems  int              `json:"totalItems"`
	NeedToBuy   int              `json:"needToBuy"`
	InInventory int              `json:"inInventory"`
	Purchased   int              `json:"purchased"`
	Categories  map[Category]int `json:"categories"`
}

// ShoppingList 購物清單生成結果
type ShoppingList struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId,omitempty"`
	MealPlanID  string           `json:"mealPlanId,omitempty"`
	Items       CategorizedItems `json:"items"`
	Stats       Stats            `json:"stats"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
