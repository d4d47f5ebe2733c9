package service

import (
	"context"

	"github.com/go-resty/resty/v2"

	"grocery-engine/internal/core/grocery"
	"grocery-engine/internal/infrastructure/config"
)

// InventoryClient 庫存服務客戶端（唯讀）
type InventoryClient struct {
	client *resty.Client
}

// NewInventoryClient 創建庫存服務客戶端；未設定 URL 時返回 nil
func NewInventoryClient(cfg config.CollaboratorsConfig) *InventoryClient {
	if cfg.InventoryURL == "" {
		return nil
	}
	return &InventoryClient{client: newRestClient(cfg.InventoryURL, cfg)}
}

// ListInventory 取得使用者目前的庫存
func (c *InventoryClient) ListInventory(ctx context.Context, userID string) ([]grocery.InventoryRecord, error) {
	var body struct {
		Items []grocery.InventoryRecord `json:"items"`
	}
	if err := getJSON(ctx, c.client, "inventory-service", "/inventory", &body, map[string]string{"userId": userID}); err != nil {
		return nil, err
	}
	return body.Items, nil
}
