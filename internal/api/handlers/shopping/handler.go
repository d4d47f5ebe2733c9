package shopping

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

// Handler 購物清單處理程序
type Handler struct {
	svc *shoppingService.Service
}

// NewHandler 創建購物清單處理程序
func NewHandler(svc *shoppingService.Service) *Handler {
	return &Handler{svc: svc}
}

// Register 註冊購物清單路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	lists := rg.Group("/shopping-lists")
	lists.POST("", h.Generate)
	lists.GET("/:id", h.Get)
	lists.GET("/:id/items", h.Items)
	lists.POST("/:id/items", h.AddItems)
	lists.PATCH("/:id/items/purchased", h.SetPurchased)
	lists.POST("/:id/items/move", h.Move)
	lists.POST("/:id/items/select", h.Select)
	lists.POST("/:id/recategorize", h.Recategorize)

	rg.POST("/meals/resolve", h.ResolveMeal)
}

// Generate 生成購物清單
func (h *Handler) Generate(c *gin.Context) {
	var req shoppingService.GenerateRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	list, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// Get 取得購物清單
func (h *Handler) Get(c *gin.Context) {
	list, err := h.svc.Get(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Items 依條件篩選項目
func (h *Handler) Items(c *gin.Context) {
	filter := grocery.ParseItemFilter(c.DefaultQuery("filter", string(grocery.FilterAll)))
	items, err := h.svc.FilterItems(c.Param("id"), filter)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filter": filter,
		"count":  items.Count(),
		"items":  items,
	})
}

// AddItems 將臨時項目併入清單
// 請求體可為陣列，或 {"entries": ...}
func (h *Handler) AddItems(c *gin.Context) {
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
	if doc.IsObject() && doc.Get("entries").Exists() {
		doc = doc.Get("entries")
	}
	list, err := h.svc.AddItems(c.Request.Context(), c.Param("id"), grocery.DecodeRawEntriesResult(doc))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type purchasedRequest struct {
	Ingredient string `json:"ingredient" binding:"required"`
	Purchased  bool   `json:"purchased"`
}

// SetPurchased 切換已購買狀態
func (h *Handler) SetPurchased(c *gin.Context) {
	var req purchasedRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	list, err := h.svc.SetPurchased(c.Param("id"), req.Ingredient, req.Purchased)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type moveRequest struct {
	UserID     string `json:"userId"`
	Ingredient string `json:"ingredient" binding:"required"`
	From       string `json:"from"`
	To         string `json:"to" binding:"required"`
}

// Move 移動項目到其他分類並記住偏好
func (h *Handler) Move(c *gin.Context) {
	var req moveRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	to, ok := grocery.ParseCategory(req.To)
	if !ok {
		handlers.RespondError(c, common.ErrInvalidCategory)
		return
	}
	var from grocery.Category
	if req.From != "" {
		if from, ok = grocery.ParseCategory(req.From); !ok {
			handlers.RespondError(c, common.ErrInvalidCategory)
			return
		}
	}

	list, err := h.svc.MoveItem(c.Request.Context(), c.Param("id"), req.UserID, req.Ingredient, from, to)
	if err != nil {
		var ce *common.CustomError
		if list != nil && errors.As(err, &ce) && ce.Code == common.ErrPreferenceStore.Code {
			// 項目已移動，僅偏好未保存
			common.LogWarn("Item moved without saving preference",
				zap.String("list_id", list.ID),
				zap.String("ingredient", req.Ingredient),
			)
			c.JSON(http.StatusOK, gin.H{
				"list":            list,
				"preferenceSaved": false,
			})
			return
		}
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"list":            list,
		"preferenceSaved": true,
	})
}

type selectRequest struct {
	Ingredient    string                  `json:"ingredient" binding:"required"`
	InventoryItem grocery.InventoryRecord `json:"inventoryItem"`
}

// Select 手動指定庫存項目
func (h *Handler) Select(c *gin.Context) {
	var req selectRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	list, err := h.svc.SelectInventory(c.Param("id"), req.Ingredient, req.InventoryItem)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type recategorizeRequest struct {
	UserID string `json:"userId"`
}

// Recategorize 以偏好與規則重新分類
func (h *Handler) Recategorize(c *gin.Context) {
	var req recategorizeRequest
	if c.Request.ContentLength > 0 && !handlers.BindJSON(c, &req) {
		return
	}
	list, moved, err := h.svc.Recategorize(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"list":  list,
		"moved": moved,
	})
}

type resolveMealRequest struct {
	UserID    string                    `json:"userId"`
	Meal      grocery.PlannedMeal       `json:"meal"`
	Inventory []grocery.InventoryRecord `json:"inventory"`
}

// ResolveMeal 完成單餐時解析各食材的庫存狀態
func (h *Handler) ResolveMeal(c *gin.Context) {
	var req resolveMealRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	items := h.svc.ResolveMeal(c.Request.Context(), req.UserID, req.Meal, req.Inventory)

	missing := 0
	for _, item := range items {
		if !item.InInventory {
			missing++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"missing": missing,
	})
}
