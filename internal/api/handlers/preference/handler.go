package preference

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"grocery-engine/internal/api/handlers"
	"grocery-engine/internal/core/grocery"
	prefStore "grocery-engine/internal/core/preference"
	"grocery-engine/internal/pkg/common"
)

// Handler 分類偏好處理程序
type Handler struct {
	store grocery.PreferenceStore
}

// NewHandler 創建分類偏好處理程序
func NewHandler(store grocery.PreferenceStore) *Handler {
	return &Handler{store: store}
}

// Register 註冊偏好路由
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/preferences/:userId", h.List)
	rg.PUT("/preferences/:userId", h.Set)
}

// List 列出使用者全部偏好
func (h *Handler) List(c *gin.Context) {
	userID := c.Param("userId")
	prefs, err := h.store.All(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, common.ErrPreferenceStore.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":      userID,
		"preferences": prefs,
	})
}

type setRequest struct {
	Ingredient string `json:"ingredient" binding:"required"`
	Category   string `json:"category" binding:"required"`
}

// Set 記住使用者對某食材的分類
func (h *Handler) Set(c *gin.Context) {
	var req setRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	tag, ok := grocery.ParseCategory(req.Category)
	if !ok {
		handlers.RespondError(c, common.ErrInvalidCategory)
		return
	}
	key := grocery.Normalize(req.Ingredient)
	if key == "" {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(errors.New("ingredient normalizes to an empty key")))
		return
	}

	if err := h.store.Set(c.Request.Context(), c.Param("userId"), key, tag); err != nil {
		if errors.Is(err, prefStore.ErrInvalidPreference) {
			handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err))
			return
		}
		handlers.RespondError(c, common.ErrPreferenceStore.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":        c.Param("userId"),
		"normalizedKey": key,
		"category":      tag,
	})
}
