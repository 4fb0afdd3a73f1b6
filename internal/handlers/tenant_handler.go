package handlers

import (
	"errors"

	"notehub/internal/middleware"
	"notehub/internal/services"
	apperrors "notehub/pkg/errors"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type TenantHandler struct {
	tenantService *services.TenantService
	noteService   *services.NoteService
}

func NewTenantHandler(tenantService *services.TenantService, noteService *services.NoteService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		noteService:   noteService,
	}
}

// GetCurrent 获取当前租户信息（含配额用量）
func (h *TenantHandler) GetCurrent(c *gin.Context) {
	tenant := middleware.CurrentTenant(c)

	activeCount, err := h.noteService.CountActive(tenant.ID)
	if err != nil {
		response.ServerError(c, "Failed to get tenant information")
		return
	}

	response.OK(c, gin.H{
		"tenant": gin.H{
			"id":   tenant.ID,
			"slug": tenant.Slug,
			"name": tenant.Name,
			"subscription": gin.H{
				"plan":             tenant.Subscription.Plan,
				"noteLimit":        tenant.Subscription.NoteLimit,
				"createdAt":        tenant.Subscription.CreatedAt,
				"upgradedAt":       tenant.Subscription.UpgradedAt,
				"currentNoteCount": activeCount,
				"canCreateMore":    tenant.CanCreateNote(activeCount),
			},
			"settings":  tenant.Settings.Data(),
			"createdAt": tenant.CreatedAt,
			"updatedAt": tenant.UpdatedAt,
		},
	})
}

// GetSubscription 获取订阅状态与配额用量
func (h *TenantHandler) GetSubscription(c *gin.Context) {
	tenant := middleware.CurrentTenant(c)

	activeCount, err := h.noteService.CountActive(tenant.ID)
	if err != nil {
		response.ServerError(c, "Failed to get subscription status")
		return
	}

	status, limits := h.tenantService.Status(tenant, activeCount)
	response.OK(c, gin.H{
		"subscription": status,
		"limits":       limits,
	})
}

// Upgrade 升级订阅（仅管理员，slug须为本租户）
func (h *TenantHandler) Upgrade(c *gin.Context) {
	tenant := middleware.CurrentTenant(c)

	upgraded, err := h.tenantService.Upgrade(tenant.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyProPlan) {
			response.BadRequest(c, "Tenant is already on Pro plan", apperrors.CodeAlreadyProPlan)
			return
		}
		response.ServerError(c, "Failed to upgrade subscription")
		return
	}

	activeCount, err := h.noteService.CountActive(upgraded.ID)
	if err != nil {
		response.ServerError(c, "Failed to upgrade subscription")
		return
	}

	response.OK(c, gin.H{
		"message": "Subscription upgraded to Pro successfully",
		"tenant": gin.H{
			"id":   upgraded.ID,
			"slug": upgraded.Slug,
			"name": upgraded.Name,
			"subscription": gin.H{
				"plan":             upgraded.Subscription.Plan,
				"noteLimit":        upgraded.Subscription.NoteLimit,
				"createdAt":        upgraded.Subscription.CreatedAt,
				"upgradedAt":       upgraded.Subscription.UpgradedAt,
				"currentNoteCount": activeCount,
				"canCreateMore":    true,
			},
		},
	})
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// UpdateSettings 更新租户设置（仅管理员，字符串键值）
func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	tenant := middleware.CurrentTenant(c)

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Settings object is required", apperrors.CodeMissingSettings)
		return
	}

	updated, err := h.tenantService.UpdateSettings(tenant.ID, req.Settings)
	if err != nil {
		response.ServerError(c, "Failed to update tenant settings")
		return
	}

	response.OK(c, gin.H{
		"message":  "Tenant settings updated successfully",
		"settings": updated.Settings.Data(),
	})
}
