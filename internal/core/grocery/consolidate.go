package grocery

import (
	"strings"

	"go.uber.org/zap"

	"grocery-engine/internal/infrastructure/metrics"
	"grocery-engine/internal/pkg/common"
)

// Consolidator 將異質項目合併為依分類分組的清單
type Consolidator struct {
	resolver CategoryResolver
}

// NewConsolidator 創建合併器
func NewConsolidator(resolver CategoryResolver) *Consolidator {
	if resolver == nil {
		resolver = NewClassifier(nil)
	}
	return &Consolidator{resolver: resolver}
}

// Consolidate 以分類內的正規化名稱去重合併
func (c *Consolidator) Consolidate(entries []RawEntry) CategorizedItems {
	return c.collect(entries, true)
}

// Place 每次出現各自成為一項，不合併
func (c *Consolidator) Place(entries []RawEntry) CategorizedItems {
	return c.collect(entries, false)
}

func (c *Consolidator) collect(entries []RawEntry, merge bool) CategorizedItems {
	out := make(CategorizedItems)
	index := make(map[Category]map[string]int)

	add := func(item ResolvedItem) {
		if merge && item.NormalizedKey != "" {
			if idx, ok := index[item.Category][item.NormalizedKey]; ok {
				mergeItem(&out[item.Category][idx], item)
				return
			}
			if index[item.Category] == nil {
				index[item.Category] = make(map[string]int)
			}
			index[item.Category][item.NormalizedKey] = len(out[item.Category])
		}
		out[item.Category] = append(out[item.Category], item)
	}

	for _, entry := range entries {
		c.visit(entry, "", add)
	}
	return out
}

// visit 將單一項目解析後交給 add；label 為外層分組的分類鍵
func (c *Consolidator) visit(entry RawEntry, label string, add func(ResolvedItem)) {
	switch e := entry.(type) {
	case StringEntry:
		ref := ParseIngredientLine(string(e))
		if strings.TrimSpace(ref.RawName) == "" {
			skipEntry(string(e), "empty name")
			return
		}
		add(c.resolve(EntryFromReference(ref), label))
	case ObjectEntry:
		if strings.TrimSpace(e.Name) == "" {
			skipEntry("", "object without a name")
			return
		}
		add(c.resolve(e, label))
	case CategorizedBucket:
		for _, item := range e.Items {
			c.visit(item, e.Category, add)
		}
	case InvalidEntry:
		skipEntry(e.Raw, e.Reason)
	default:
		skipEntry("", "unknown entry variant")
	}
}

// resolve 建立清單項目；項目自身分類優先於外層分組鍵，皆不可信時重新分類
func (c *Consolidator) resolve(e ObjectEntry, bucketLabel string) ResolvedItem {
	name := strings.TrimSpace(e.Name)
	item := ResolvedItem{
		Ingredient:    name,
		NormalizedKey: Normalize(name),
		Amount:        e.Amount,
		Unit:          strings.TrimSpace(e.Unit),
		Recipes:       unionStrings(nil, e.Recipes),
		Purchased:     e.Purchased,
		MatchType:     MatchNone,
	}
	for _, alt := range e.AlternativeAmounts {
		if hasAmount(item) && SameUnit(item.Unit, alt.Unit) {
			item.Amount += alt.Amount
			continue
		}
		addAlternative(&item, alt)
	}
	if e.InventoryItemID != "" {
		item.InventoryItem = &InventoryRecord{ID: e.InventoryItemID}
		item.MatchType = MatchDirect
	}

	if cat, ok := ParseCategory(e.Category); ok {
		item.Category = cat
	} else if cat, ok := ParseCategory(bucketLabel); ok {
		item.Category = cat
	} else {
		item.Category = c.resolver.Classify(name, classifierHint(e.Category, bucketLabel), e.Brand)
	}
	if item.NormalizedKey == "" {
		item.Category = CategoryOther
	}
	return item
}

// classifierHint 不可信的文字標籤仍可作為提示，數字索引則不行
func classifierHint(labels ...string) string {
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" && !IsNumericLabel(l) {
			return l
		}
	}
	return ""
}

func skipEntry(raw, reason string) {
	metrics.SkippedEntries.Inc()
	common.LogWarn("Skipping malformed shopping entry",
		zap.String("reason", reason),
		zap.String("raw", raw),
	)
}

func hasAmount(item ResolvedItem) bool {
	return item.Amount != 0 || item.Unit != ""
}

// mergeItem 同單位相加，不同單位記入 alternativeAmounts
func mergeItem(dst *ResolvedItem, src ResolvedItem) {
	switch {
	case !hasAmount(src):
	case !hasAmount(*dst):
		dst.Amount, dst.Unit = src.Amount, src.Unit
	case SameUnit(dst.Unit, src.Unit):
		dst.Amount += src.Amount
	default:
		addAlternative(dst, AlternativeAmount{Amount: src.Amount, Unit: src.Unit, Recipes: src.Recipes})
	}
	for _, alt := range src.AlternativeAmounts {
		if SameUnit(dst.Unit, alt.Unit) {
			dst.Amount += alt.Amount
			continue
		}
		addAlternative(dst, alt)
	}

	dst.Recipes = unionStrings(dst.Recipes, src.Recipes)
	dst.Purchased = dst.Purchased && src.Purchased
	if dst.InventoryItem == nil && src.InventoryItem != nil {
		dst.InventoryItem = src.InventoryItem
		dst.MatchType = src.MatchType
	}
}

func addAlternative(dst *ResolvedItem, alt AlternativeAmount) {
	for i := range dst.AlternativeAmounts {
		existing := &dst.AlternativeAmounts[i]
		if SameUnit(existing.Unit, alt.Unit) {
			existing.Amount += alt.Amount
			existing.Recipes = unionStrings(existing.Recipes, alt.Recipes)
			return
		}
	}
	dst.AlternativeAmounts = append(dst.AlternativeAmounts, AlternativeAmount{
		Amount:  alt.Amount,
		Unit:    alt.Unit,
		Recipes: unionStrings(nil, alt.Recipes),
	})
}

// unionStrings 保留順序的聯集
func unionStrings(dst []string, src []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	out := make([]string, 0, len(dst)+len(src))
	for _, list := range [][]string{dst, src} {
		for _, s := range list {
			if _, ok := seen[s]; ok || s == "" {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
