package ingredient

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"grocery-engine/internal/api/handlers"
	"grocery-engine/internal/core/grocery"
	shoppingService "grocery-engine/internal/core/shopping"
	"grocery-engine/internal/pkg/common"
)

// Handler 食材工具處理程序
type Handler struct {
	classifier *grocery.Classifier
	shopping   *shoppingService.Service
}

// NewHandler 創建食材工具處理程序
func NewHandler(classifier *grocery.Classifier, shopping *shoppingService.Service) *Handler {
	return &Handler{classifier: classifier, shopping: shopping}
}

// Register 註冊食材相關路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	ing := rg.Group("/ingredients")
	ing.POST("/normalize", h.Normalize)
	ing.POST("/classify", h.Classify)
	ing.POST("/match", h.Match)
	ing.POST("/consolidate", h.Consolidate)

	rg.GET("/categories", h.Categories)
}

type normalizeRequest struct {
	Name  string   `json:"name"`
	Names []string `json:"names"`
}

// Normalize 正規化一或多個食材名稱
func (h *Handler) Normalize(c *gin.Context) {
	var req normalizeRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	names := req.Names
	if req.Name != "" {
		names = append([]string{req.Name}, names...)
	}
	if len(names) == 0 {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(errors.New("name or names is required")))
		return
	}

	results := make([]gin.H, 0, len(names))
	for _, name := range names {
		results = append(results, gin.H{
			"name":          name,
			"normalizedKey": grocery.Normalize(name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type classifyRequest struct {
	UserID   string `json:"userId"`
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
}

// Classify 分類單一食材並說明命中的規則
func (h *Handler) Classify(c *gin.Context) {
	var req classifyRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	result := h.classifier.ClassifyFor(c.Request.Context(), req.UserID, req.Name, req.Category, req.Brand)
	c.JSON(http.StatusOK, result)
}

type matchRequest struct {
	Name      string                    `json:"name" binding:"required"`
	Inventory []grocery.InventoryRecord `json:"inventory"`
}

// Match 以正規化名稱比對庫存
func (h *Handler) Match(c *gin.Context) {
	var req matchRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	key := grocery.Normalize(req.Name)
	match := grocery.FindBestMatch(key, req.Inventory)

	matchType := grocery.MatchNone
	if match != nil {
		matchType = grocery.MatchAuto
	}
	c.JSON(http.StatusOK, gin.H{
		"normalizedKey": key,
		"match":         match,
		"matchType":     matchType,
	})
}

// Consolidate 合併任意形狀的原始項目
// 請求體可為陣列，或 {"userId": ..., "entries": ...}
func (h *Handler) Consolidate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	if !gjson.ValidBytes(body) {
		handlers.RespondError(c, common.ErrInvalidEntries.Wrap(errors.New("body is not valid JSON")))
		return
	}

	doc := gjson.ParseBytes(body)
	userID := ""
	if doc.IsObject() && doc.Get("entries").Exists() {
		userID = doc.Get("userId").String()
		doc = doc.Get("entries")
	}
	entries := grocery.DecodeRawEntriesResult(doc)

	list := h.shopping.Consolidate(c.Request.Context(), userID, entries)
	common.LogDebug("Entries consolidated",
		zap.Int("entries", len(entries)),
		zap.Int("items", list.Stats.TotalItems),
	)
	c.JSON(http.StatusOK, gin.H{
		"items": list.Items,
		"stats": list.Stats,
	})
}

// Categories 依固定順序列出分類
func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": grocery.Categories()})
}
