package response

import (
	"net/http"

	apperrors "notehub/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误返回格式
type ErrorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
	Field   string   `json:"field,omitempty"`
}

// ========== 基础返回方法 ==========

// OK 成功返回
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功返回
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error 通用错误返回
func Error(c *gin.Context, status int, message, code string) {
	c.JSON(status, ErrorBody{
		Error: message,
		Code:  code,
	})
}

// ========== HTTP错误快捷方法 ==========

func BadRequest(c *gin.Context, message, code string) {
	Error(c, http.StatusBadRequest, message, code)
}

func Unauthorized(c *gin.Context, message, code string) {
	Error(c, http.StatusUnauthorized, message, code)
}

func Forbidden(c *gin.Context, message, code string) {
	Error(c, http.StatusForbidden, message, code)
}

func NotFound(c *gin.Context, message, code string) {
	Error(c, http.StatusNotFound, message, code)
}

func Conflict(c *gin.Context, message, code string) {
	Error(c, http.StatusConflict, message, code)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message, apperrors.CodeInternalError)
}

// ValidationError 校验失败返回，带字段明细
func ValidationError(c *gin.Context, message string, details []string) {
	c.JSON(http.StatusBadRequest, ErrorBody{
		Error:   message,
		Code:    apperrors.CodeValidationError,
		Details: details,
	})
}

// DuplicateField 唯一键冲突返回
func DuplicateField(c *gin.Context, field string) {
	c.JSON(http.StatusConflict, ErrorBody{
		Error: field + " already exists",
		Code:  "DUPLICATE_ERROR",
		Field: field,
	})
}

// NoteLimitReached 配额超限返回，携带计数和上限
func NoteLimitReached(c *gin.Context, quotaErr *apperrors.QuotaExceededError) {
	c.JSON(http.StatusForbidden, gin.H{
		"error":        quotaErr.Error(),
		"code":         apperrors.CodeNoteLimitReached,
		"currentCount": quotaErr.CurrentCount,
		"limit":        quotaErr.Limit,
		"subscription": quotaErr.Plan,
	})
}
