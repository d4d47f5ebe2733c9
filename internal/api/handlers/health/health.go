package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

// Pinger 可檢查連線的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsProvider 提供暫存統計
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	ListStore map[string]interface{} `json:"list_store,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	cfg   *config.Config
	prefs Pinger
	lists StatsProvider
}

// NewHandler 創建健康檢查處理程序
func NewHandler(cfg *config.Config, prefs Pinger, lists StatsProvider) *Handler {
	return &Handler{cfg: cfg, prefs: prefs, lists: lists}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.lists != nil {
		response.ListStore = h.lists.GetStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：偏好儲存必須可連線
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.prefs != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.prefs.Ping(ctx); err != nil {
			common.LogWarn("Preference store not ready", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"preferences": err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"preferences": h.cfg.Preferences.Backend,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
