package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery-engine/internal/core/preference"
	"grocery-engine/internal/core/shopping"
	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Debug: true, Version: "test"},
		Preferences: config.PreferenceConfig{Backend: "memory"},
		ListStore:   config.ListStoreConfig{MaxSize: 50, TTL: time.Hour},
		Shopping:    config.ShoppingConfig{CheckInventory: true, CombineIngredients: true},
		BodyLimit:   1 << 16,
		Metrics:     config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

type testServer struct {
	router *gin.Engine
	prefs  *preference.MemoryStore
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	prefs := preference.NewMemoryStore()
	lists := shopping.NewListStore(cfg.ListStore)
	t.Cleanup(func() { _ = lists.Close() })

	router, err := SetupRouter(cfg, prefs, lists)
	require.NoError(t, err)
	return &testServer{router: router, prefs: prefs}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const planBody = `{
	"userId": "u1",
	"mealPlan": {
		"id": "plan-9",
		"meals": {
			"monday":  [{"mealType": "dinner", "recipe": {"title": "Bread", "ingredients": [{"name": "flour", "amount": 2, "unit": "cups"}]}}],
			"tuesday": [{"mealType": "dinner", "recipe": {"title": "Cake", "ingredients": [
				{"name": "flour", "amount": "1", "unit": "cup"},
				{"name": "Large Eggs", "amount": 3}
			]}}]
		}
	},
	"inventory": [{"id": "inv-flour", "name": "All-Purpose Flour", "quantity": 5, "unit": "cups"}]
}`

func TestSetupRouter_RequiresDependencies(t *testing.T) {
	_, err := SetupRouter(nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", decode(t, rec)["preferences"])

	rec = s.do(t, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grocery_http_requests_total")
}

func TestShoppingListLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := s.do(t, http.MethodPost, "/api/v1/shopping-lists", planBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id := created["id"].(string)

	items := created["items"].(map[string]interface{})
	pantry := items["Pantry"].([]interface{})
	require.Len(t, pantry, 1)
	flour := pantry[0].(map[string]interface{})
	assert.Equal(t, 3.0, flour["amount"])
	assert.Equal(t, true, flour["inInventory"])
	assert.Equal(t, "auto", flour["matchType"])

	stats := created["stats"].(map[string]interface{})
	assert.Equal(t, 2.0, stats["totalItems"])
	assert.Equal(t, 1.0, stats["needToBuy"])

	rec = s.do(t, http.MethodGet, "/api/v1/shopping-lists/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/shopping-lists/"+id+"/items/purchased",
		map[string]interface{}{"ingredient": "eggs", "purchased": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0.0, decode(t, rec)["stats"].(map[string]interface{})["needToBuy"])

	rec = s.do(t, http.MethodGet, "/api/v1/shopping-lists/"+id+"/items?filter=purchased", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode(t, rec)
	assert.Equal(t, "purchased", filtered["filter"])
	assert.Equal(t, 1.0, filtered["count"])

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists/"+id+"/items/move",
		map[string]string{"ingredient": "eggs", "to": "bakery"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode(t, rec)
	assert.Equal(t, true, moved["preferenceSaved"])
	movedItems := moved["list"].(map[string]interface{})["items"].(map[string]interface{})
	assert.Contains(t, movedItems, "Bakery")
	assert.NotContains(t, movedItems, "Dairy & Eggs")

	rec = s.do(t, http.MethodGet, "/api/v1/preferences/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prefs := decode(t, rec)["preferences"].(map[string]interface{})
	assert.Equal(t, "Bakery", prefs["eggs"])

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists/"+id+"/items/select",
		map[string]interface{}{"ingredient": "eggs", "inventoryItem": map[string]string{"id": "inv-e", "name": "Eggs"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2.0, decode(t, rec)["stats"].(map[string]interface{})["inInventory"])

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists/"+id+"/recategorize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0.0, decode(t, rec)["moved"])

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists/"+id+"/items",
		`{"entries": ["2 cups flour", {"category": "Produce", "items": [{"name": "bananas", "amount": 3}]}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	added := decode(t, rec)
	assert.Equal(t, id, added["id"])
	addedItems := added["items"].(map[string]interface{})
	assert.Equal(t, 5.0, addedItems["Pantry"].([]interface{})[0].(map[string]interface{})["amount"])
	assert.Len(t, addedItems["Produce"], 1)
	assert.Contains(t, addedItems, "Bakery", "moved item keeps its category")
	addedStats := added["stats"].(map[string]interface{})
	assert.Equal(t, 3.0, addedStats["totalItems"])
	assert.Equal(t, 2.0, addedStats["inInventory"])

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists/"+id+"/items", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists/missing/items", `["salt"]`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShoppingListErrors(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := s.do(t, http.MethodGet, "/api/v1/shopping-lists/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LIST_NOT_FOUND", decode(t, rec)["code"])

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists", `{"userId": "u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.ErrMealPlanRequired.Code, decode(t, rec)["code"])

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists", `{"mealPlanId": "p1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no meal plan collaborator configured")

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists", planBody)
	id := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPost, "/api/v1/shopping-lists/"+id+"/items/move",
		map[string]string{"ingredient": "eggs", "to": "Snacks"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CATEGORY", decode(t, rec)["code"])

	rec = s.do(t, http.MethodPatch, "/api/v1/shopping-lists/"+id+"/items/purchased",
		map[string]interface{}{"ingredient": "truffle", "purchased": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", decode(t, rec)["code"])
}

func TestGenerateFromMealPlanService(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "remote", "meals": {"friday": [{"mealType": "lunch",
			"items": [{"itemName": "Greek Yogurt", "quantity": 1}]}]}}`))
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.Collaborators = config.CollaboratorsConfig{MealPlanURL: upstream.URL, Timeout: time.Second}
	s := newTestServer(t, cfg)

	rec := s.do(t, http.MethodPost, "/api/v1/shopping-lists", `{"mealPlanId": "remote"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "remote", body["mealPlanId"])
	assert.Contains(t, body["items"].(map[string]interface{}), "Dairy & Eggs")
}

func TestIngredientEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := s.do(t, http.MethodPost, "/api/v1/ingredients/normalize",
		map[string]interface{}{"names": []string{"Fresh Basil (chopped)", "2 lb. Chicken Breast"}})
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode(t, rec)["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "basil", results[0].(map[string]interface{})["normalizedKey"])

	rec = s.do(t, http.MethodPost, "/api/v1/ingredients/normalize", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/ingredients/classify", map[string]string{"name": "frozen peas"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Frozen", decode(t, rec)["category"])

	rec = s.do(t, http.MethodPost, "/api/v1/ingredients/match", map[string]interface{}{
		"name":      "oil",
		"inventory": []map[string]string{{"id": "1", "name": "Olive Oil"}, {"id": "2", "name": "Vegetable Oil"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	match := decode(t, rec)
	assert.Equal(t, "auto", match["matchType"])
	assert.Equal(t, "1", match["match"].(map[string]interface{})["id"])

	rec = s.do(t, http.MethodPost, "/api/v1/ingredients/consolidate", `[
		"2 cups flour",
		{"name": "flour", "amount": 1, "unit": "cup"},
		42,
		{"category": "Produce", "items": ["onion", {"name": "Onion"}]}
	]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	consolidated := decode(t, rec)
	assert.Equal(t, 2.0, consolidated["stats"].(map[string]interface{})["totalItems"])

	rec = s.do(t, http.MethodPost, "/api/v1/ingredients/consolidate", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ENTRIES", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode(t, rec)["categories"].([]interface{})
	assert.Len(t, cats, 9)
	assert.Equal(t, "Produce", cats[0])
	assert.Equal(t, "Other", cats[8])
}

func TestPreferenceEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := s.do(t, http.MethodPut, "/api/v1/preferences/u7",
		map[string]string{"ingredient": "Tofu (firm)", "category": "meat & seafood"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "tofu", decode(t, rec)["normalizedKey"])

	rec = s.do(t, http.MethodPost, "/api/v1/ingredients/classify", map[string]string{"userId": "u7", "name": "tofu"})
	require.Equal(t, http.StatusOK, rec.Code)
	classified := decode(t, rec)
	assert.Equal(t, "Meat & Seafood", classified["category"])

	rec = s.do(t, http.MethodPut, "/api/v1/preferences/u7",
		map[string]string{"ingredient": "tofu", "category": "Aisle 5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/preferences/u7",
		map[string]string{"ingredient": "(chopped)", "category": "Other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveMealEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := s.do(t, http.MethodPost, "/api/v1/meals/resolve", `{
		"meal": {"mealType": "dinner", "recipe": {"title": "Salad", "ingredients": [
			{"name": "lettuce", "amount": 1, "unit": "head"},
			{"name": "olive oil", "amount": 2, "unit": "tbsp"}
		]}},
		"inventory": [{"id": "o", "name": "Olive Oil"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Len(t, body["items"], 2)
	assert.Equal(t, 1.0, body["missing"])
}

func TestRateLimitAndBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Minute}
	cfg.BodyLimit = 64
	s := newTestServer(t, cfg)

	rec := s.do(t, http.MethodPost, "/api/v1/ingredients/normalize", `{"name": "`+strings.Repeat("a", 100)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// 健康檢查不受限流影響
	rec = s.do(t, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
