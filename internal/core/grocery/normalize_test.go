package grocery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Chicken Breast", "chicken breast"},
		{"strips parenthetical", "Tomatoes (Diced)", "tomatoes"},
		{"strips preparation words", "tomatoes diced", "tomatoes"},
		{"strips descriptors and sizes", "Fresh Organic Large Eggs", "eggs"},
		{"strips extra large before large", "Extra Large Shrimp", "shrimp"},
		{"strips packaging", "can of black beans", "of black beans"},
		{"punctuation becomes space", "all-purpose flour", "all purpose flour"},
		{"collapses whitespace", "  green   onion  ", "green onion"},
		{"nested brackets", "basil ((fresh)) [about 1 cup]", "basil"},
		{"underscore exposes descriptor", "fresh_basil", "basil"},
		{"empty", "", ""},
		{"only descriptors", "Fresh Organic", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Tomatoes (Diced)", "Fresh Organic Large Eggs", "all-purpose flour", "fresh_basil",
		"Extra  Large -- Shrimp (peeled)", "2% milk", "Jalapeño peppers",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("GROUND BEEF"), Normalize("ground beef"))
	assert.Equal(t, Normalize("Tomatoes (Diced)"), Normalize("tomatoes diced"))
}

type namedThing struct{ n string }

func (n namedThing) Name() string { return n.n }

func TestExtractIngredientName(t *testing.T) {
	s := " basil "
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "  olive oil ", "olive oil"},
		{"string pointer", &s, "basil"},
		{"nil string pointer", (*string)(nil), ""},
		{"reference", IngredientReference{RawName: "flour"}, "flour"},
		{"inventory record", &InventoryRecord{Name: "Milk"}, "Milk"},
		{"object entry", ObjectEntry{Name: "eggs"}, "eggs"},
		{"string entry", StringEntry("2 cups flour"), "2 cups flour"},
		{"resolved item", ResolvedItem{Ingredient: "salt"}, "salt"},
		{"map name", map[string]any{"name": "rice"}, "rice"},
		{"map fallback field", map[string]any{"itemName": "oats"}, "oats"},
		{"map non string", map[string]any{"name": 42}, ""},
		{"string map", map[string]string{"ingredient": "sugar"}, "sugar"},
		{"namer", namedThing{"honey"}, "honey"},
		{"unsupported", 3.14, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIngredientName(tt.in))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "tomatoes", NormalizeName(map[string]any{"name": "Tomatoes (Diced)"}))
	assert.Equal(t, "", NormalizeName(struct{}{}))
}
