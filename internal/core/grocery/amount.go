package grocery

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	vulgarFractions = map[rune]float64{
		'½': 0.5, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '¼': 0.25, '¾': 0.75,
		'⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
	}
	// 整數、小數、分數、帶分數及範圍（取下限）
	leadingAmount = regexp.MustCompile(`^\s*(\d+\s+\d+/\d+|\d+/\d+|\d*\.\d+|\d+)(?:\s*-\s*(?:\d+/\d+|\d*\.\d+|\d+))?`)

	unitAliases = map[string]string{
		"c": "cup", "cup": "cup", "cups": "cup",
		"tbsp": "tbsp", "tbs": "tbsp", "tbsps": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp", "t": "tbsp",
		"tsp": "tsp", "tsps": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
		"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
		"oz": "oz", "ounce": "oz", "ounces": "oz",
		"fl oz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz",
		"g": "g", "gram": "g", "grams": "g",
		"kg": "kg", "kilogram": "kg", "kilograms": "kg",
		"ml": "ml", "milliliter": "ml", "milliliters": "ml",
		"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
		"pt": "pint", "pint": "pint", "pints": "pint",
		"qt": "quart", "quart": "quart", "quarts": "quart",
		"gal": "gallon", "gallon": "gallon", "gallons": "gallon",
		"each": "each", "ea": "each", "whole": "each", "piece": "each", "pieces": "each", "item": "each", "items": "each",
		"clove": "clove", "cloves": "clove",
		"can": "can", "cans": "can",
		"jar": "jar", "jars": "jar",
		"package": "package", "packages": "package", "pkg": "package",
		"bag": "bag", "bags": "bag",
		"box": "box", "boxes": "box",
		"bunch": "bunch", "bunches": "bunch",
		"slice": "slice", "slices": "slice",
		"stick": "stick", "sticks": "stick",
		"dozen": "dozen",
		"pinch": "pinch", "pinches": "pinch",
		"dash": "dash", "dashes": "dash",
	}
)

// CanonicalUnit 將單位轉為比較用的標準形式（cups → cup）
// 未知單位僅做小寫與去空白
func CanonicalUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, ".")
	u = strings.Join(strings.Fields(u), " ")
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// SameUnit 判斷兩個單位是否可直接相加
func SameUnit(a, b string) bool {
	return CanonicalUnit(a) == CanonicalUnit(b)
}

// ParseAmount 解析 "1 1/2 cups"、"½ tsp"、"2-3" 等數量字串
// 返回數量與剩餘文字（單位）；無數字時數量為 0，整串視為單位
func ParseAmount(s string) (float64, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ""
	}

	amount := 0.0
	rest := s
	if m := leadingAmount.FindStringSubmatch(s); m != nil {
		amount = parseNumber(m[1])
		rest = s[len(m[0]):]
	}

	// 數字後可接 unicode 分數，如 "1½"
	trimmed := strings.TrimLeft(rest, " ")
	if r := []rune(trimmed); len(r) > 0 {
		if f, ok := vulgarFractions[r[0]]; ok {
			amount += f
			rest = string(r[1:])
		}
	}
	return amount, strings.TrimSpace(rest)
}

func parseNumber(s string) float64 {
	fields := strings.Fields(s)
	total := 0.0
	for _, f := range fields {
		if num, den, ok := strings.Cut(f, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 == nil && err2 == nil && d != 0 {
				total += n / d
			}
			continue
		}
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			total += v
		}
	}
	return total
}

// ParseIngredientLine 將 "2 cups flour" 拆為數量、單位與名稱
// 只有可辨識的單位會被取出，否則剩餘文字全部視為名稱
func ParseIngredientLine(line string) IngredientReference {
	amount, rest := ParseAmount(line)
	ref := IngredientReference{RawName: strings.TrimSpace(line)}
	if amount == 0 {
		return ref
	}
	ref.Amount = amount

	fields := strings.Fields(rest)
	// 先試兩字單位（fl oz），再試單字單位
	for n := 2; n >= 1; n-- {
		if len(fields) <= n {
			continue
		}
		candidate := strings.Join(fields[:n], " ")
		if _, ok := unitAliases[strings.TrimSuffix(strings.ToLower(candidate), ".")]; ok {
			ref.Unit = candidate
			ref.RawName = strings.Join(fields[n:], " ")
			return ref
		}
	}
	ref.RawName = rest
	return ref
}
