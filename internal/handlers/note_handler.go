package handlers

import (
	"errors"
	"strconv"
	"strings"

	"notehub/internal/middleware"
	"notehub/internal/services"
	apperrors "notehub/pkg/errors"
	"notehub/pkg/pagination"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	noteService   *services.NoteService
	tenantService *services.TenantService
}

func NewNoteHandler(noteService *services.NoteService, tenantService *services.TenantService) *NoteHandler {
	return &NoteHandler{
		noteService:   noteService,
		tenantService: tenantService,
	}
}

type CreateNoteRequest struct {
	Title    string   `json:"title" binding:"required,max=200"`
	Content  string   `json:"content" binding:"required,max=10000"`
	Tags     []string `json:"tags"`
	Color    string   `json:"color" binding:"omitempty,hexcolor"`
	IsPinned bool     `json:"isPinned"`
}

// Create 创建笔记，配额不足返回403并携带计数信息
func (h *NoteHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", []string{err.Error()})
		return
	}

	note, err := h.noteService.Create(tenant, user, services.CreateNoteParams{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Color:    req.Color,
		IsPinned: req.IsPinned,
	})
	if err != nil {
		var quotaErr *apperrors.QuotaExceededError
		switch {
		case errors.As(err, &quotaErr):
			response.NoteLimitReached(c, quotaErr)
		case errors.Is(err, apperrors.ErrInvalidColor):
			response.BadRequest(c, "Invalid color format. Use hex color codes.", apperrors.CodeInvalidColor)
		default:
			response.ServerError(c, "Failed to create note")
		}
		return
	}

	response.Created(c, gin.H{
		"message": "Note created successfully",
		"note":    note,
	})
}

// List 获取笔记列表（过滤+分页+订阅快照）
func (h *NoteHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	pageParams := pagination.ParsePageParams(c)

	params := services.ListNotesParams{
		Page:     pageParams.Page,
		Limit:    pageParams.Limit,
		Sort:     c.DefaultQuery("sort", "-created_at"),
		Archived: c.Query("archived") == "true",
	}

	if pinnedStr := c.Query("pinned"); pinnedStr != "" {
		pinned := pinnedStr == "true"
		params.Pinned = &pinned
	}

	// 作者过滤仅管理员可用，成员始终只看到自己的笔记
	if userIDStr := c.Query("userId"); userIDStr != "" && user.IsAdmin() {
		if userID, err := strconv.ParseUint(userIDStr, 10, 32); err == nil {
			authorID := uint(userID)
			params.AuthorID = &authorID
		}
	}

	if tagsStr := c.Query("tags"); tagsStr != "" {
		for _, tag := range strings.Split(tagsStr, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				params.Tags = append(params.Tags, trimmed)
			}
		}
	}

	notes, total, err := h.noteService.List(tenant, user, params)
	if err != nil {
		response.ServerError(c, "Failed to get notes")
		return
	}

	activeCount, err := h.noteService.CountActive(tenant.ID)
	if err != nil {
		response.ServerError(c, "Failed to get notes")
		return
	}

	response.OK(c, gin.H{
		"notes":        notes,
		"pagination":   pagination.NewPageInfo(pageParams.Page, pageParams.Limit, total),
		"subscription": h.tenantService.Snapshot(tenant, activeCount),
	})
}

// parseNoteID 解析路径中的笔记ID
func parseNoteID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid note id", apperrors.CodeValidationError)
		return 0, false
	}
	return uint(id), true
}

// respondNoteError 笔记操作的统一错误映射
// 跨租户的ID按不存在处理，避免确认他租户数据的存在性
func respondNoteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		response.NotFound(c, "Note not found", apperrors.CodeNoteNotFound)
	case errors.Is(err, apperrors.ErrAccessDenied):
		response.Forbidden(c, "Access denied to this note", apperrors.CodeNoteAccessDenied)
	default:
		response.ServerError(c, fallback)
	}
}

// Get 获取单条笔记
func (h *NoteHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	id, ok := parseNoteID(c)
	if !ok {
		return
	}

	note, err := h.noteService.Get(tenant.ID, id, user)
	if err != nil {
		respondNoteError(c, err, "Failed to get note")
		return
	}

	response.OK(c, gin.H{"note": note})
}

type UpdateNoteRequest struct {
	Title      *string   `json:"title" binding:"omitempty,max=200"`
	Content    *string   `json:"content" binding:"omitempty,max=10000"`
	Tags       *[]string `json:"tags"`
	Color      *string   `json:"color" binding:"omitempty,hexcolor"`
	IsPinned   *bool     `json:"isPinned"`
	IsArchived *bool     `json:"isArchived"`
}

// Update 部分更新笔记，只修改请求中出现的字段
func (h *NoteHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	id, ok := parseNoteID(c)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request body", []string{err.Error()})
		return
	}

	note, err := h.noteService.Update(tenant.ID, id, user, services.UpdateNoteParams{
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
		Color:      req.Color,
		IsPinned:   req.IsPinned,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidColor) {
			response.BadRequest(c, "Invalid color format. Use hex color codes.", apperrors.CodeInvalidColor)
			return
		}
		respondNoteError(c, err, "Failed to update note")
		return
	}

	response.OK(c, gin.H{
		"message": "Note updated successfully",
		"note":    note,
	})
}

// Delete 删除笔记
func (h *NoteHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	id, ok := parseNoteID(c)
	if !ok {
		return
	}

	if err := h.noteService.Delete(tenant.ID, id, user); err != nil {
		respondNoteError(c, err, "Failed to delete note")
		return
	}

	response.OK(c, gin.H{"message": "Note deleted successfully"})
}

// Stats 笔记统计，按作者分布仅管理员可见
func (h *NoteHandler) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	stats, err := h.noteService.Stats(tenant, user)
	if err != nil {
		response.ServerError(c, "Failed to get note statistics")
		return
	}

	activeCount, err := h.noteService.CountActive(tenant.ID)
	if err != nil {
		response.ServerError(c, "Failed to get note statistics")
		return
	}

	response.OK(c, gin.H{
		"stats":        stats,
		"subscription": h.tenantService.Snapshot(tenant, activeCount),
	})
}
