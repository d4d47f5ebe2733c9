package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/infrastructure/config"
)

// MealPlanClient 餐點計畫服務客戶端
type MealPlanClient struct {
	client *resty.Client
}

// NewMealPlanClient 創建餐點計畫服務客戶端；未設定 URL 時返回 nil
func NewMealPlanClient(cfg config.CollaboratorsConfig) *MealPlanClient {
	if cfg.MealPlanURL == "" {
		return nil
	}
	return &MealPlanClient{client: newRestClient(cfg.MealPlanURL, cfg)}
}

// GetMealPlan 取得含食譜內容的餐點計畫
func (c *MealPlanClient) GetMealPlan(ctx context.Context, planID string) (*grocery.MealPlan, error) {
	if planID == "" {
		return nil, fmt.Errorf("meal plan id is required")
	}
	var plan grocery.MealPlan
	path := "/meal-plans/" + url.PathEscape(planID)
	if err := getJSON(ctx, c.client, "meal-plan-service", path, &plan, map[string]string{"expand": "recipes"}); err != nil {
		return nil, err
	}
	if plan.ID == "" {
		plan.ID = planID
	}
	return &plan, nil
}
