package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"grocery-engine/internal/infrastructure/config"
	"grocery-engine/internal/pkg/common"
)

// newRestClient 建立共用設定的 resty client
func newRestClient(baseURL string, cfg config.CollaboratorsConfig) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "grocery-engine").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.APIKey != "" {
		client.SetHeader("X-API-Key", cfg.APIKey)
	}
	return client
}

// StatusError 外部服務返回非 2xx
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Body)
}

// getJSON 發送 GET 並解析 JSON
func getJSON(ctx context.Context, client *resty.Client, service, path string, out interface{}, params map[string]string) error {
	start := time.Now()
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		common.LogUpstreamCall(service, path, 0, time.Since(start), err)
		return fmt.Errorf("failed to call %s: %w", service, err)
	}
	if resp.StatusCode() != http.StatusOK {
		statusErr := &StatusError{Service: service, Status: resp.StatusCode(), Body: truncate(resp.String(), 200)}
		common.LogUpstreamCall(service, path, resp.StatusCode(), time.Since(start), statusErr)
		return statusErr
	}
	common.LogUpstreamCall(service, path, resp.StatusCode(), time.Since(start), nil)

	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", service, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
