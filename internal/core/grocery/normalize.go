package grocery

import (
	"regexp"
	"strings"
)

// nameNormalizer 預編譯的名稱正規化規則
type nameNormalizer struct {
	parenthetical *regexp.Regexp
	descriptors   *regexp.Regexp
	sizes         *regexp.Regexp
	preparation   *regexp.Regexp
	packaging     *regexp.Regexp
	nonAlnum      *regexp.Regexp
	spaces        *regexp.Regexp
}

var normalizer = &nameNormalizer{
	parenthetical: regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`),
	descriptors:   regexp.MustCompile(`\b(organic|natural|pure|fresh|raw|whole|fine|coarse|ground)\b`),
	sizes:         regexp.MustCompile(`\b(extra\s+large|small|medium|large|jumbo|mini)\b`),
	preparation:   regexp.MustCompile(`\b(diced|chopped|minced|sliced|crushed|grated|shredded|pounded|flattened|tenderized)\b`),
	packaging:     regexp.MustCompile(`\b(can|jar|bottle|bag|box|package|container|pack)\b`),
	nonAlnum:      regexp.MustCompile(`[^a-z0-9]+`),
	spaces:        regexp.MustCompile(`\s+`),
}

// Normalize 將原始食材名稱轉為比對用的正規化鍵
func Normalize(raw string) string {
	return normalizer.normalize(raw)
}

func (n *nameNormalizer) normalize(raw string) string {
	s := strings.ToLower(raw)
	for {
		stripped := n.parenthetical.ReplaceAllString(s, " ")
		if stripped == s {
			break
		}
		s = stripped
	}

	s = n.stripWords(s)
	s = n.nonAlnum.ReplaceAllString(s, " ")
	s = n.collapse(s)

	// 標點轉空白後可能露出新的完整單字（如 "fresh_basil"），重跑至穩定
	for {
		next := n.collapse(n.stripWords(s))
		if next == s {
			return s
		}
		s = next
	}
}

func (n *nameNormalizer) stripWords(s string) string {
	s = n.descriptors.ReplaceAllString(s, " ")
	s = n.sizes.ReplaceAllString(s, " ")
	s = n.preparation.ReplaceAllString(s, " ")
	return n.packaging.ReplaceAllString(s, " ")
}

func (n *nameNormalizer) collapse(s string) string {
	return strings.TrimSpace(n.spaces.ReplaceAllString(s, " "))
}

// namer 任何能提供名稱的值
type namer interface {
	Name() string
}

// ExtractIngredientName 從字串或物件中取出食材名稱
// 無法辨識的輸入返回空字串
func ExtractIngredientName(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case *string:
		if t == nil {
			return ""
		}
		return strings.TrimSpace(*t)
	case IngredientReference:
		return strings.TrimSpace(t.RawName)
	case *IngredientReference:
		if t == nil {
			return ""
		}
		return strings.TrimSpace(t.RawName)
	case InventoryRecord:
		return strings.TrimSpace(t.Name)
	case *InventoryRecord:
		if t == nil {
			return ""
		}
		return strings.TrimSpace(t.Name)
	case ObjectEntry:
		return strings.TrimSpace(t.Name)
	case StringEntry:
		return strings.TrimSpace(string(t))
	case ResolvedItem:
		return strings.TrimSpace(t.Ingredient)
	case map[string]any:
		for _, key := range nameFields {
			if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	case map[string]string:
		for _, key := range nameFields {
			if s := strings.TrimSpace(t[key]); s != "" {
				return s
			}
		}
		return ""
	case namer:
		return strings.TrimSpace(t.Name())
	default:
		return ""
	}
}

// NormalizeName 先取出名稱再正規化
func NormalizeName(v any) string {
	return Normalize(ExtractIngredientName(v))
}

// 上游各種形狀中可能承載名稱的欄位
var nameFields = []string{"name", "ingredient", "itemName", "item_name", "rawName"}
