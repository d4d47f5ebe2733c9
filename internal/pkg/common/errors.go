package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeUnauthorized     = "UNAUTHORIZED"       // 401
	ErrCodeForbidden        = "FORBIDDEN"          // 403
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"    // 408
	ErrCodeConflict         = "CONFLICT"           // 409
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeNotImplemented     = "NOT_IMPLEMENTED"     // 501
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "未授權的訪問", http.StatusUnauthorized, nil)
	ErrForbidden        = NewError(ErrCodeForbidden, "禁止訪問", http.StatusForbidden, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrMethodNotAllowed = NewError(ErrCodeMethodNotAllowed, "不支持的請求方法", http.StatusMethodNotAllowed, nil)
	ErrRequestTimeout   = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrConflict         = NewError(ErrCodeConflict, "資源衝突", http.StatusConflict, nil)
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrNotImplemented     = NewError(ErrCodeNotImplemented, "功能未實現", http.StatusNotImplemented, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrListNotFound        = NewError("LIST_NOT_FOUND", "購物清單不存在或已過期", http.StatusNotFound, nil)
	ErrItemNotFound        = NewError("ITEM_NOT_FOUND", "清單中找不到該項目", http.StatusNotFound, nil)
	ErrInvalidCategory     = NewError("INVALID_CATEGORY", "無效的分類", http.StatusBadRequest, nil)
	ErrInvalidEntries      = NewError("INVALID_ENTRIES", "無法解析的項目資料", http.StatusBadRequest, nil)
	ErrMealPlanRequired    = NewError("MEAL_PLAN_REQUIRED", "需要提供餐點計畫或其 ID", http.StatusBadRequest, nil)
	ErrUpstreamUnavailable = NewError("UPSTREAM_UNAVAILABLE", "外部服務暫時不可用", http.StatusBadGateway, nil)
	ErrPreferenceStore     = NewError("PREFERENCE_STORE_ERROR", "分類偏好儲存失敗", http.StatusServiceUnavailable, nil)
	ErrListStoreFull       = NewError("LIST_STORE_FULL", "清單暫存已滿", http.StatusServiceUnavailable, nil)
)

// Wrap 以預定義錯誤為範本附加原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{Code: e.Code, Message: e.Message, Status: e.Status, Err: err}
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 同一錯誤代碼視為同一錯誤，Wrap 後仍可用 errors.Is 比對
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Code == e.Code
}

// AsCustomError 取出 CustomError，非自定義錯誤時視為內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	if IsValidationError(err) {
		return ErrInvalidRequest.Wrap(err)
	}
	return ErrInternalError.Wrap(err)
}
