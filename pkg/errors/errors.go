package errors

import (
	"errors"
	"fmt"
)

// ========== API错误码常量定义 ==========

// 认证类错误码 (401)
const (
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeExpiredToken       = "EXPIRED_TOKEN"
	CodeInvalidUser        = "INVALID_USER"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInactiveAccount    = "INACTIVE_ACCOUNT"
)

// 授权类错误码 (403)
const (
	CodeAdminRequired      = "ADMIN_REQUIRED"
	CodeMemberRequired     = "MEMBER_REQUIRED"
	CodeTenantAccessDenied = "TENANT_ACCESS_DENIED"
	CodeNoteAccessDenied   = "NOTE_ACCESS_DENIED"
	CodeNoteLimitReached   = "NOTE_LIMIT_REACHED"
)

// 资源与校验类错误码
const (
	CodeNotFound               = "NOT_FOUND"
	CodeNoteNotFound           = "NOTE_NOT_FOUND"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInvalidColor           = "INVALID_COLOR"
	CodeMissingRequiredFields  = "MISSING_REQUIRED_FIELDS"
	CodeInvalidCurrentPassword = "INVALID_CURRENT_PASSWORD"
	CodeUserAlreadyExists      = "USER_ALREADY_EXISTS"
	CodeAlreadyProPlan         = "ALREADY_PRO_PLAN"
	CodeMissingSettings        = "MISSING_SETTINGS"
	CodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	CodeInternalError          = "INTERNAL_ERROR"
)

// ========== 哨兵错误 ==========
// 服务层向处理器传递类型化失败，处理器用 errors.Is/As 映射HTTP响应

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInactiveAccount        = errors.New("account is inactive")
	ErrInvalidUser            = errors.New("invalid or inactive user")
	ErrNotFound               = errors.New("resource not found")
	ErrAccessDenied           = errors.New("access denied")
	ErrTenantAccessDenied     = errors.New("access denied to this tenant")
	ErrInvalidColor           = errors.New("invalid color format, use hex color codes")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrUserAlreadyExists      = errors.New("user already exists in this tenant")
	ErrAlreadyProPlan         = errors.New("tenant is already on pro plan")
)

// QuotaExceededError 配额超限错误，携带当前数量和上限
type QuotaExceededError struct {
	CurrentCount int64
	Limit        int
	Plan         string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("note limit reached: current plan allows %d notes", e.Limit)
}
