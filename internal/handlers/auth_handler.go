package handlers

import (
	"errors"

	"notehub/internal/middleware"
	"notehub/internal/models"
	"notehub/internal/services"
	apperrors "notehub/pkg/errors"
	"notehub/pkg/jwt"
	"notehub/pkg/pagination"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
	noteService *services.NoteService
	jwtManager  *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, noteService *services.NoteService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		noteService: noteService,
		jwtManager:  jwt.GetJWTManager(), // 使用全局JWT管理器
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// userProjection 用户信息投影，永不包含密码哈希
func userProjection(user *models.User) gin.H {
	projection := gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"role":               user.Role,
		"profile":            user.Profile,
		"mustChangePassword": user.MustChangePassword,
	}
	if user.Tenant != nil {
		projection["tenant"] = gin.H{
			"id":           user.Tenant.ID,
			"slug":         user.Tenant.Slug,
			"name":         user.Tenant.Name,
			"subscription": user.Tenant.Subscription,
		}
	}
	return projection
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", []string{err.Error()})
		return
	}

	user, err := h.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			response.Unauthorized(c, "Invalid credentials", apperrors.CodeInvalidCredentials)
		case errors.Is(err, apperrors.ErrInactiveAccount):
			response.Unauthorized(c, "Account is inactive", apperrors.CodeInactiveAccount)
		default:
			response.ServerError(c, "Login failed")
		}
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.TenantID, user.Email, string(user.Role))
	if err != nil {
		response.ServerError(c, "Failed to generate token")
		return
	}

	response.OK(c, gin.H{
		"token": token,
		"user":  userProjection(user),
	})
}

// Profile 获取当前用户资料
func (h *AuthHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	projection := userProjection(user)
	projection["lastLoginAt"] = user.LastLoginAt
	projection["createdAt"] = user.CreatedAt

	response.OK(c, gin.H{"user": projection})
}

type UpdateProfileRequest struct {
	Profile struct {
		FirstName *string `json:"firstName" binding:"omitempty,max=100"`
		LastName  *string `json:"lastName" binding:"omitempty,max=100"`
		Avatar    *string `json:"avatar" binding:"omitempty,max=255"`
	} `json:"profile"`
}

// UpdateProfile 更新当前用户资料
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", []string{err.Error()})
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, services.UpdateProfileParams{
		FirstName: req.Profile.FirstName,
		LastName:  req.Profile.LastName,
		Avatar:    req.Profile.Avatar,
	})
	if err != nil {
		response.ServerError(c, "Failed to update profile")
		return
	}

	response.OK(c, gin.H{
		"message": "Profile updated successfully",
		"user": gin.H{
			"id":      updated.ID,
			"email":   updated.Email,
			"role":    updated.Role,
			"profile": updated.Profile,
		},
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", []string{err.Error()})
		return
	}

	if err := h.userService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, apperrors.ErrInvalidCurrentPassword) {
			response.BadRequest(c, "Current password is incorrect", apperrors.CodeInvalidCurrentPassword)
			return
		}
		response.ServerError(c, "Failed to change password")
		return
	}

	response.OK(c, gin.H{"message": "Password changed successfully"})
}

type InviteUserRequest struct {
	Email   string      `json:"email" binding:"required,email"`
	Role    models.Role `json:"role" binding:"omitempty,userrole"`
	Profile struct {
		FirstName string `json:"firstName" binding:"omitempty,max=100"`
		LastName  string `json:"lastName" binding:"omitempty,max=100"`
	} `json:"profile"`
}

// Invite 邀请用户加入当前租户（仅管理员）
func (h *AuthHandler) Invite(c *gin.Context) {
	tenant := middleware.CurrentTenant(c)

	var req InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", []string{err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	user, err := h.userService.Invite(tenant.ID, req.Email, role, models.Profile{
		FirstName: req.Profile.FirstName,
		LastName:  req.Profile.LastName,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			response.Conflict(c, "User already exists in this tenant", apperrors.CodeUserAlreadyExists)
			return
		}
		response.ServerError(c, "Failed to invite user")
		return
	}

	response.Created(c, gin.H{
		"message": "User invited successfully",
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"role":      user.Role,
			"profile":   user.Profile,
			"createdAt": user.CreatedAt,
		},
	})
}

// GetUsers 获取当前租户用户列表（仅管理员，分页，可按角色过滤）
func (h *AuthHandler) GetUsers(c *gin.Context) {
	tenant := middleware.CurrentTenant(c)

	pageParams := pagination.ParsePageParams(c)
	role := models.Role(c.Query("role"))

	users, total, err := h.userService.GetByTenantWithPage(tenant.ID, role, pageParams.Page, pageParams.Limit)
	if err != nil {
		response.ServerError(c, "Failed to get tenant users")
		return
	}

	response.OK(c, gin.H{
		"users":      users,
		"pagination": pagination.NewPageInfo(pageParams.Page, pageParams.Limit, total),
	})
}
