package grocery

import (
	"regexp"
	"strings"
)

// Subject 分類規則的輸入（已小寫並清理標點）
type Subject struct {
	Name  string
	Hint  string
	Brand string
}

// newSubject 保留描述詞（如 "ground"），它們對分類有意義
func newSubject(name, hint, brand string) Subject {
	return Subject{
		Name:  cleanForRules(name),
		Hint:  cleanForRules(hint),
		Brand: cleanForRules(brand),
	}
}

func cleanForRules(s string) string {
	s = strings.ToLower(s)
	s = normalizer.parenthetical.ReplaceAllString(s, " ")
	s = normalizer.nonAlnum.ReplaceAllString(s, " ")
	return normalizer.collapse(s)
}

// Rule 分類規則：依序評估，第一個符合者勝出
type Rule struct {
	Name  string
	Tag   Category
	Match func(Subject) bool
}

// terms 以完整單字（允許複數 s/es）比對的關鍵字集合
type terms struct {
	re *regexp.Regexp
}

func anyWord(words ...string) terms {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return terms{re: regexp.MustCompile(`\b(?:` + strings.Join(parts, "|") + `)(?:s|es)?\b`)}
}

func (t terms) in(s string) bool {
	return s != "" && t.re.MatchString(s)
}

var (
	convenienceTerms = anyWord("helper", "lasagna", "stroganoff", "frozen pizza", "frozen dinner", "frozen meal",
		"tv dinner", "lean cuisine", "stouffer", "marie callender", "hot pocket", "cheesy italian shells", "meal kit")

	frozenTerms = anyWord("frozen", "ice cream", "popsicle", "sorbet", "gelato", "frozen yogurt")

	spiceTerms = anyWord("cinnamon", "black pepper", "white pepper", "cayenne", "cayenne pepper", "garlic powder",
		"onion powder", "chili powder", "curry powder", "paprika", "oregano", "basil", "thyme", "rosemary", "sage",
		"cumin", "coriander", "turmeric", "nutmeg", "allspice", "red pepper flakes", "crushed red pepper",
		"kosher salt", "sea salt", "italian seasoning", "seasoning", "bay leaf", "bay leaves", "dill weed",
		"parsley flakes", "peppercorn", "cloves ground", "ground ginger", "ground cloves", "garlic salt",
		"onion salt", "celery salt", "seasoned salt", "lemon pepper")
	spiceHintTerms = anyWord("spice", "seasoning")
	// seasoningQualifiers 不改變 salt/pepper 本身的修飾詞
	seasoningQualifiers = map[string]bool{
		"kosher": true, "sea": true, "table": true, "himalayan": true, "pink": true, "iodized": true,
		"black": true, "white": true, "ground": true, "cracked": true, "fine": true, "coarse": true, "fresh": true, "freshly": true,
		"and": true, "to": true, "taste": true,
	}

	sauceTerms = anyWord("sauce", "gravy", "dressing", "vinegar", "mayo", "mayonnaise", "mustard", "ketchup",
		"catsup", "salsa", "relish", "marinade", "aioli", "pesto", "sriracha", "syrup")

	soupTerms = anyWord("soup", "broth", "stock", "bouillon", "consomme", "chowder", "bisque")

	starchGuard = anyWord("vinegar", "sauce")
	snackTerms  = anyWord("chip", "cracker", "pretzel", "popcorn", "tortilla chip")
	breadTerms  = anyWord("bread", "bun", "roll", "bagel", "tortilla", "pita", "croissant", "baguette",
		"english muffin", "muffin", "naan", "biscuit", "sourdough", "flatbread", "bread crumb")
	pastaTerms = anyWord("pasta", "spaghetti", "penne", "macaroni", "noodle", "shells", "rigatoni", "farfalle",
		"rotini", "linguine", "fettuccine", "fettuccini", "ziti", "orzo", "angel hair", "egg noodle")
	grainTerms = anyWord("rice", "quinoa", "oat", "oatmeal", "stuffing", "barley", "couscous", "cereal",
		"granola", "grits", "cornmeal", "polenta")
	potatoTerms = anyWord("potato", "sweet potato", "yam", "russet")

	produceGuard = anyWord("sauce", "soup", "oil", "paste", "canned", "puree", "juice", "starch", "powder")
	produceTerms = anyWord("broccoli", "carrot", "spinach", "lettuce", "corn", "pea", "green bean", "asparagus",
		"zucchini", "cauliflower", "cabbage", "brussels", "brussels sprout", "onion", "green onion", "scallion",
		"shallot", "leek", "garlic", "celery", "tomato", "bell pepper", "peppers", "jalapeno", "poblano",
		"serrano", "habanero", "mushroom", "cucumber", "kale", "eggplant", "squash", "radish", "beet", "arugula",
		"cilantro", "parsley", "mint", "ginger", "okra", "artichoke", "turnip", "parsnip", "sprout", "greens",
		"romaine", "chard", "apple", "banana", "lemon", "lime", "orange", "berry", "berries", "strawberry",
		"strawberries", "blueberry", "blueberries", "raspberry", "raspberries", "grape", "peach", "pear",
		"plum", "cherry", "cherries", "mango", "pineapple", "melon", "watermelon", "cantaloupe", "kiwi")
	produceHintTerms = anyWord("vegetable", "produce", "fruit")

	proteinCuts = anyWord("ground beef", "stew meat", "ribeye", "steak", "pork chop", "pork loin",
		"pork tenderloin", "pork shoulder", "chicken breast", "chicken thigh", "chicken wing", "chicken leg",
		"drumstick", "cubed steak", "cube steak", "bacon", "ham", "salmon", "tuna", "shrimp", "deli meat",
		"lunch meat", "sausage", "hot dog", "bratwurst", "hamburger patty", "hamburger patties", "hamburger",
		"meatball", "brisket", "roast", "ground turkey", "turkey breast", "tilapia", "cod", "crab", "lobster",
		"scallop", "lamb", "veal", "pepperoni", "salami", "prosciutto", "chorizo", "anchovy", "anchovies",
		"sardine", "trout", "halibut", "catfish", "clam", "mussel", "oyster", "venison")
	proteinBroad      = anyWord("chicken", "beef", "pork", "turkey", "fish", "meat", "poultry", "duck")
	proteinDisqualify = anyWord("sauce", "gravy", "soup", "helper", "seasoning", "powder", "broth", "stock", "bouillon")

	stapleTerms = anyWord("flour", "sugar", "baking powder", "baking soda", "yeast", "cornstarch", "corn starch",
		"cocoa", "chocolate", "vanilla", "extract", "honey", "peanut butter", "almond butter", "jam", "jelly",
		"preserves", "bean", "lentil", "chickpea", "canned", "tomato paste", "paste", "puree", "coffee", "tea",
		"molasses", "evaporated milk", "condensed milk", "powdered milk", "coconut milk", "cream of tartar")

	dairyGuard = anyWord("lasagna", "helper", "shells", "macaroni", "sauce")
	dairyTerms = anyWord("milk", "buttermilk", "yogurt", "cream", "sour cream", "heavy cream", "half and half",
		"butter", "cheese", "cheddar", "mozzarella", "parmesan", "ricotta", "feta", "cottage cheese",
		"cream cheese", "egg", "margarine", "ghee", "kefir", "creamer")

	oilTerm  = regexp.MustCompile(`\boils?\b`)
	avocado  = anyWord("avocado")
	fatTerms = anyWord("oil", "olive oil", "vegetable oil", "canola", "shortening", "lard", "nut", "almond",
		"walnut", "pecan", "cashew", "peanut", "pistachio", "hazelnut", "macadamia", "seed", "chia", "flax",
		"sesame", "sunflower")
)

// defaultRules 分類規則（順序即優先權）
var defaultRules = []Rule{
	{Name: "convenience", Tag: CategoryOther, Match: func(s Subject) bool {
		return convenienceTerms.in(s.Name) || convenienceTerms.in(s.Brand)
	}},
	{Name: "frozen", Tag: CategoryFrozen, Match: func(s Subject) bool {
		return frozenTerms.in(s.Name) || strings.Contains(s.Hint, "frozen")
	}},
	{Name: "seasoning", Tag: CategorySeasonings, Match: func(s Subject) bool {
		if spiceHintTerms.in(s.Hint) {
			return true
		}
		if spiceTerms.in(s.Name) {
			// "sage sausage" 是肉品，"sausage seasoning" 仍是調味料
			return !isProtein(s.Name) || proteinDisqualify.in(s.Name)
		}
		return bareSaltOrPepper(s.Name)
	}},
	{Name: "sauce", Tag: CategoryCondiments, Match: func(s Subject) bool {
		return sauceTerms.in(s.Name)
	}},
	{Name: "soup", Tag: CategoryOther, Match: func(s Subject) bool {
		return soupTerms.in(s.Name)
	}},
	{Name: "starch-snack", Tag: CategoryPantry, Match: starch(snackTerms)},
	{Name: "starch-bread", Tag: CategoryBakery, Match: starch(breadTerms)},
	{Name: "starch-pasta", Tag: CategoryPantry, Match: starch(pastaTerms)},
	{Name: "starch-grain", Tag: CategoryPantry, Match: starch(grainTerms)},
	{Name: "starch-potato", Tag: CategoryProduce, Match: starch(potatoTerms)},
	{Name: "produce", Tag: CategoryProduce, Match: func(s Subject) bool {
		if produceGuard.in(s.Name) {
			return false
		}
		return produceTerms.in(s.Name) || produceHintTerms.in(s.Hint)
	}},
	{Name: "protein-specific", Tag: CategoryMeat, Match: func(s Subject) bool {
		return proteinCuts.in(s.Name)
	}},
	{Name: "protein-general", Tag: CategoryMeat, Match: func(s Subject) bool {
		return proteinBroad.in(s.Name) && !proteinDisqualify.in(s.Name)
	}},
	{Name: "pantry-staple", Tag: CategoryPantry, Match: func(s Subject) bool {
		return stapleTerms.in(s.Name)
	}},
	{Name: "dairy", Tag: CategoryDairy, Match: func(s Subject) bool {
		return dairyTerms.in(s.Name) && !dairyGuard.in(s.Name)
	}},
	{Name: "avocado", Tag: CategoryProduce, Match: func(s Subject) bool {
		return avocado.in(s.Name) && !oilTerm.MatchString(s.Name)
	}},
	{Name: "fat", Tag: CategoryPantry, Match: func(s Subject) bool {
		return fatTerms.in(s.Name)
	}},
}

// bareSaltOrPepper 名稱只有 salt/pepper 與修飾詞，如 "kosher salt"、"salt and pepper"
// "salt pork"、"pepper jack cheese"、"bell pepper" 都不算
func bareSaltOrPepper(name string) bool {
	found := false
	for _, word := range strings.Fields(name) {
		switch {
		case word == "salt" || word == "pepper":
			found = true
		case !seasoningQualifiers[word]:
			return false
		}
	}
	return found
}

func isProtein(name string) bool {
	return proteinCuts.in(name) || proteinBroad.in(name)
}

func starch(t terms) func(Subject) bool {
	return func(s Subject) bool {
		return t.in(s.Name) && !starchGuard.in(s.Name)
	}
}

// Rules 返回預設規則的副本
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}
