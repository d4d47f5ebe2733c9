package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"grocery-engine/internal/api"
	"grocery-engine/internal/core/preference"
	"grocery-engine/internal/core/shopping"
	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("Configuration loaded",
		zap.String("env", cfg.App.Env),
		zap.String("preference_backend", cfg.Preferences.Backend),
		zap.String("meal_plan_url", cfg.Collaborators.MealPlanURL),
		zap.String("inventory_url", cfg.Collaborators.InventoryURL),
	)

	prefs, err := preference.New(cfg.Preferences)
	if err != nil {
		common.LogFatal("Failed to initialize preference store", zap.Error(err))
	}
	defer prefs.Close()

	lists := shopping.NewListStore(cfg.ListStore)
	defer lists.Close()

	router, err := api.SetupRouter(cfg, prefs, lists)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("Starting grocery engine",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
