package grocery

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// RawEntry 上游傳入的原始項目：StringEntry、ObjectEntry、CategorizedBucket 或 InvalidEntry
type RawEntry interface {
	rawEntry()
}

// StringEntry 純文字項目，如 "2 cups flour"
type StringEntry string

// ObjectEntry 部分填寫的物件項目
type ObjectEntry struct {
	Name               string
	Amount             float64
	Unit               string
	Category           string
	Brand              string
	Recipes            []string
	Purchased          bool
	InventoryItemID    string
	// AlternativeAmounts 已儲存清單中單位不一致的數量
	AlternativeAmounts []AlternativeAmount
}

// CategorizedBucket 已依分類分組的項目（分類鍵未必可信）
type CategorizedBucket struct {
	Category string
	Items    []RawEntry
}

// InvalidEntry 無法辨識的項目，合併時略過並記錄警告
type InvalidEntry struct {
	Raw    string
	Reason string
}

func (StringEntry) rawEntry()       {}
func (ObjectEntry) rawEntry()       {}
func (CategorizedBucket) rawEntry() {}
func (InvalidEntry) rawEntry()      {}

// EntryFromReference 由食材引用建立物件項目
func EntryFromReference(ref IngredientReference) ObjectEntry {
	entry := ObjectEntry{
		Name:            ref.RawName,
		Amount:          ref.Amount,
		Unit:            ref.Unit,
		InventoryItemID: ref.InventoryItemID,
	}
	if ref.SourceRecipe != "" {
		entry.Recipes = []string{ref.SourceRecipe}
	}
	return entry
}

// EntryFromItem 由既有清單項目建立物件項目（重新合併已儲存的清單）
func EntryFromItem(item ResolvedItem) ObjectEntry {
	entry := ObjectEntry{
		Name:      item.Ingredient,
		Amount:    item.Amount,
		Unit:      item.Unit,
		Category:  string(item.Category),
		Recipes:   append([]string(nil), item.Recipes...),
		Purchased: item.Purchased,
	}
	for _, alt := range item.AlternativeAmounts {
		entry.AlternativeAmounts = append(entry.AlternativeAmounts, AlternativeAmount{
			Amount:  alt.Amount,
			Unit:    alt.Unit,
			Recipes: append([]string(nil), alt.Recipes...),
		})
	}
	if item.InventoryItem != nil && item.MatchType == MatchDirect {
		entry.InventoryItemID = item.InventoryItem.ID
	}
	return entry
}

// DecodeRawEntries 在邊界將異質 JSON 解析為 RawEntry
// 巢狀陣列會被攤平，以分類為鍵的物件依文件順序拆成多個分組
func DecodeRawEntries(data []byte) ([]RawEntry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON payload")
	}
	return decodeValue(gjson.ParseBytes(data)), nil
}

// DecodeRawEntriesResult 解析已取出的 gjson 節點
func DecodeRawEntriesResult(r gjson.Result) []RawEntry {
	if !r.Exists() {
		return nil
	}
	return decodeValue(r)
}

func decodeValue(r gjson.Result) []RawEntry {
	switch {
	case r.Type == gjson.String:
		return []RawEntry{StringEntry(r.Str)}
	case r.IsArray():
		var out []RawEntry
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, decodeValue(v)...)
			return true
		})
		return out
	case r.IsObject():
		if name := objectName(r); name != "" {
			return []RawEntry{decodeObject(r, name)}
		}
		// {"category": "...", "items": [...]} 形式的分組
		if items := r.Get("items"); items.IsArray() {
			return []RawEntry{CategorizedBucket{
				Category: strings.TrimSpace(r.Get("category").String()),
				Items:    decodeValue(items),
			}}
		}
		if isBucketMap(r) {
			var out []RawEntry
			r.ForEach(func(k, v gjson.Result) bool {
				out = append(out, CategorizedBucket{Category: k.String(), Items: decodeValue(v)})
				return true
			})
			return out
		}
		return []RawEntry{InvalidEntry{Raw: r.Raw, Reason: "object without a name"}}
	default:
		return []RawEntry{InvalidEntry{Raw: r.Raw, Reason: "unsupported value type " + r.Type.String()}}
	}
}

func objectName(r gjson.Result) string {
	for _, field := range nameFields {
		if v := r.Get(field); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return strings.TrimSpace(v.Str)
		}
	}
	return ""
}

// isBucketMap 值全為陣列/物件，或鍵全為分類標籤/數字索引
func isBucketMap(r gjson.Result) bool {
	count := 0
	allContainers, allLabels := true, true
	r.ForEach(func(k, v gjson.Result) bool {
		count++
		if !v.IsArray() && !v.IsObject() {
			allContainers = false
		}
		if _, ok := ParseCategory(k.String()); !ok && !IsNumericLabel(k.String()) {
			allLabels = false
		}
		return true
	})
	return count > 0 && (allContainers || allLabels)
}

func decodeObject(r gjson.Result, name string) ObjectEntry {
	entry := ObjectEntry{
		Name:            name,
		Unit:            strings.TrimSpace(r.Get("unit").String()),
		Category:        strings.TrimSpace(r.Get("category").String()),
		Brand:           strings.TrimSpace(r.Get("brand").String()),
		Purchased:       r.Get("purchased").Bool(),
		InventoryItemID: strings.TrimSpace(r.Get("inventoryItemId").String()),
	}

	amount := r.Get("amount")
	if !amount.Exists() {
		amount = r.Get("quantity")
	}
	switch amount.Type {
	case gjson.Number:
		entry.Amount = amount.Num
	case gjson.String:
		value, rest := ParseAmount(amount.Str)
		entry.Amount = value
		if entry.Unit == "" {
			entry.Unit = rest
		}
	}

	if recipes := r.Get("recipes"); recipes.IsArray() {
		recipes.ForEach(func(_, v gjson.Result) bool {
			if s := strings.TrimSpace(v.String()); s != "" {
				entry.Recipes = append(entry.Recipes, s)
			}
			return true
		})
	}
	if alts := r.Get("alternativeAmounts"); alts.IsArray() {
		alts.ForEach(func(_, v gjson.Result) bool {
			if alt, ok := decodeAlternative(v); ok {
				entry.AlternativeAmounts = append(entry.AlternativeAmounts, alt)
			}
			return true
		})
	}
	for _, field := range []string{"sourceRecipe", "recipe", "recipeName"} {
		if s := strings.TrimSpace(r.Get(field).String()); s != "" {
			entry.Recipes = append(entry.Recipes, s)
		}
	}
	return entry
}

func decodeAlternative(r gjson.Result) (AlternativeAmount, bool) {
	if !r.IsObject() {
		return AlternativeAmount{}, false
	}
	alt := AlternativeAmount{Unit: strings.TrimSpace(r.Get("unit").String())}
	switch amount := r.Get("amount"); amount.Type {
	case gjson.Number:
		alt.Amount = amount.Num
	case gjson.String:
		value, rest := ParseAmount(amount.Str)
		alt.Amount = value
		if alt.Unit == "" {
			alt.Unit = rest
		}
	}
	r.Get("recipes").ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			alt.Recipes = append(alt.Recipes, s)
		}
		return true
	})
	return alt, alt.Amount != 0 || alt.Unit != ""
}
