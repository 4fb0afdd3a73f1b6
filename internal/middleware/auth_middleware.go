package middleware

import (
	"errors"
	"strings"

	"notehub/internal/models"
	"notehub/internal/services"
	apperrors "notehub/pkg/errors"
	"notehub/pkg/jwt"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 权限中间件
type AuthMiddleware struct {
	userService *services.UserService
	jwtManager  *jwt.JWTManager
}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{
		userService: services.NewUserService(),
		jwtManager:  jwt.GetJWTManager(), // 使用全局JWT管理器
	}
}

// extractBearerToken 从Authorization头提取token
func extractBearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return authHeader[7:], true
}

// resolveUser 验证token并解析出用户与租户
func (m *AuthMiddleware) resolveUser(tokenString string) (*models.User, *jwt.JWTClaims, error) {
	claims, err := m.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	user, err := m.userService.GetByID(claims.UserID)
	if err != nil || !user.IsActive {
		return nil, nil, apperrors.ErrInvalidUser
	}

	return user, claims, nil
}

// RequireLogin 会话认证：解析Bearer token并将用户、租户写入请求上下文
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractBearerToken(c)
		if !ok {
			response.Unauthorized(c, "Access token required", apperrors.CodeMissingToken)
			c.Abort()
			return
		}

		user, claims, err := m.resolveUser(tokenString)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				response.Unauthorized(c, "Access token expired", apperrors.CodeExpiredToken)
			case errors.Is(err, apperrors.ErrInvalidUser):
				response.Unauthorized(c, "Invalid or inactive user", apperrors.CodeInvalidUser)
			default:
				response.Unauthorized(c, "Invalid access token", apperrors.CodeInvalidToken)
			}
			c.Abort()
			return
		}

		// 将用户信息保存到上下文
		c.Set("user", user)
		c.Set("tenant", user.Tenant)
		c.Set("claims", claims)

		c.Next()
	}
}

// OptionalLogin 可选认证：能解析则注入上下文，失败不阻断请求
func (m *AuthMiddleware) OptionalLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractBearerToken(c)
		if ok {
			if user, claims, err := m.resolveUser(tokenString); err == nil {
				c.Set("user", user)
				c.Set("tenant", user.Tenant)
				c.Set("claims", claims)
			}
		}
		c.Next()
	}
}

// RequireAdmin 要求管理员角色
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			response.Unauthorized(c, "Access token required", apperrors.CodeMissingToken)
			c.Abort()
			return
		}

		if !user.(*models.User).IsAdmin() {
			response.Forbidden(c, "Admin access required", apperrors.CodeAdminRequired)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireMember 要求成员或管理员角色（为未来角色预留的防御性检查）
func (m *AuthMiddleware) RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			response.Unauthorized(c, "Access token required", apperrors.CodeMissingToken)
			c.Abort()
			return
		}

		if !user.(*models.User).Role.Valid() {
			response.Forbidden(c, "Member access required", apperrors.CodeMemberRequired)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireTenantSlug 租户数据隔离：路径中的slug必须是调用者自己的租户
func (m *AuthMiddleware) RequireTenantSlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantValue, exists := c.Get("tenant")
		if !exists {
			response.Unauthorized(c, "Access token required", apperrors.CodeMissingToken)
			c.Abort()
			return
		}
		tenant := tenantValue.(*models.Tenant)

		slug := c.Param("slug")
		if slug != "" && !strings.EqualFold(slug, tenant.Slug) {
			response.Forbidden(c, "Access denied to this tenant", apperrors.CodeTenantAccessDenied)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser 从上下文取当前用户
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get("user")
	return user.(*models.User)
}

// CurrentTenant 从上下文取当前租户
func CurrentTenant(c *gin.Context) *models.Tenant {
	tenant, _ := c.Get("tenant")
	return tenant.(*models.Tenant)
}
