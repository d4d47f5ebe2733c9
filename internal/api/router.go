package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grocery-engine/internal/api/handlers/health"
	ingredientHandler "grocery-engine/internal/api/handlers/ingredient"
	preferenceHandler "grocery-engine/internal/api/handlers/preference"
	shoppingHandler "grocery-engine/internal/api/handlers/shopping"
	"grocery-engine/internal/api/middleware"
	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/core/preference"
	"grocery-engine/internal/core/service"
	"grocery-engine/internal/core/shopping"
	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/infrastructure/metrics"
	"grocery-engine/internal/pkg/common"
)

const (
	// 超時設置
	timeoutDuration = 30 * time.Second
	// 預設請求體大小限制 (2MB)
	defaultBodySize = 2 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, prefs preference.Store, lists *shopping.ListStore) (*gin.Engine, error) {
	if cfg == nil || prefs == nil || lists == nil {
		return nil, errors.New("router requires config, preference store and list store")
	}
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = defaultBodySize
	}
	router.Use(middleware.BodySizeLimit(bodyLimit))

	// 初始化服務
	classifier := grocery.NewClassifier(prefs)
	assembler := grocery.NewAssembler(classifier, prefs)

	var mealPlans shopping.MealPlanSource
	if client := service.NewMealPlanClient(cfg.Collaborators); client != nil {
		mealPlans = client
	}
	var inventory shopping.InventorySource
	if client := service.NewInventoryClient(cfg.Collaborators); client != nil {
		inventory = client
	}
	shoppingSvc := shopping.NewService(assembler, lists, mealPlans, inventory, cfg.Shopping)

	common.LogInfo("Services initialized",
		zap.String("preference_backend", cfg.Preferences.Backend),
		zap.Bool("meal_plan_client", mealPlans != nil),
		zap.Bool("inventory_client", inventory != nil),
		zap.Int("list_store_size", cfg.ListStore.MaxSize),
		zap.Duration("timeout", timeoutDuration),
	)

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: "Request timeout",
				Details: timeoutDuration.String(),
			})
		}
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, prefs, lists)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	shoppingHandler.NewHandler(shoppingSvc).Register(api)
	ingredientHandler.NewHandler(classifier, shoppingSvc).Register(api)
	preferenceHandler.NewHandler(prefs).Register(api)

	common.LogInfo("Router setup completed successfully",
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", bodyLimit),
	)

	return router, nil
}
