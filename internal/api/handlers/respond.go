package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grocery-engine/internal/pkg/common"
)

// RespondError 將錯誤轉為統一的錯誤響應
func RespondError(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	_ = c.Error(err)

	resp := common.ErrorResponse{Code: ce.Code, Message: ce.Message}
	if gin.IsDebugging() && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}

	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("Request failed", fields...)
	} else {
		common.LogDebug("Request rejected", fields...)
	}
	c.AbortWithStatusJSON(ce.Status, resp)
}

// BindJSON 解析請求體，失敗時回應 400 並返回 false
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
				Code:    "PAYLOAD_TOO_LARGE",
				Message: "Request body too large",
			})
			return false
		}
		RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return false
	}
	return true
}
