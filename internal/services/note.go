package services

import (
	"errors"
	"strings"

	"notehub/internal/database"
	"notehub/internal/models"
	apperrors "notehub/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NoteService struct {
	db *gorm.DB
}

func NewNoteService() *NoteService {
	return &NoteService{
		db: database.GetDB(),
	}
}

// 排序字段白名单，前缀 "-" 表示降序
var noteSortFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

// CountActive 统计租户的活跃（未归档）笔记数
func (s *NoteService) CountActive(tenantID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Note{}).
		Where("tenant_id = ? AND is_archived = ?", tenantID, false).
		Count(&count).Error
	return count, err
}

// CreateNoteParams 创建笔记参数
type CreateNoteParams struct {
	Title    string
	Content  string
	Tags     []string
	Color    string
	IsPinned bool
}

// Create 创建笔记
// 配额检查在创建前使用新读取的计数；tenant/author 只取自认证上下文
// 检查与写入之间不加锁，同租户并发创建可能短暂超限（既定取舍）
func (s *NoteService) Create(tenant *models.Tenant, author *models.User, params CreateNoteParams) (*models.Note, error) {
	currentCount, err := s.CountActive(tenant.ID)
	if err != nil {
		return nil, err
	}
	if !tenant.CanCreateNote(currentCount) {
		return nil, &apperrors.QuotaExceededError{
			CurrentCount: currentCount,
			Limit:        tenant.Subscription.NoteLimit,
			Plan:         tenant.Subscription.Plan,
		}
	}

	color := params.Color
	if color == "" {
		color = models.DefaultNoteColor
	}
	if !models.IsValidColor(color) {
		return nil, apperrors.ErrInvalidColor
	}

	note := &models.Note{
		Title:    strings.TrimSpace(params.Title),
		Content:  params.Content,
		TenantID: tenant.ID,
		UserID:   author.ID,
		Tags:     datatypes.NewJSONSlice(params.Tags),
		Color:    color,
		IsPinned: params.IsPinned,
	}

	if err := s.db.Create(note).Error; err != nil {
		return nil, err
	}
	note.User = author
	return note, nil
}

// getScoped 租户范围内取笔记，跨租户的ID一律按不存在处理
func (s *NoteService) getScoped(tenantID, id uint) (*models.Note, error) {
	var note models.Note
	err := s.db.Preload("User").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// Get 获取单条笔记，作者或管理员可见
func (s *NoteService) Get(tenantID, id uint, caller *models.User) (*models.Note, error) {
	note, err := s.getScoped(tenantID, id)
	if err != nil {
		return nil, err
	}
	if !note.CanAccess(caller) {
		return nil, apperrors.ErrAccessDenied
	}
	return note, nil
}

// ListNotesParams 列表过滤参数
type ListNotesParams struct {
	Page     int
	Limit    int
	Sort     string // 如 "-created_at"
	Archived bool
	Pinned   *bool
	AuthorID *uint    // 仅管理员可指定，成员强制为本人
	Tags     []string // 任一匹配
}

// List 获取租户笔记列表
// 成员只能看到自己创建的笔记；管理员可查看全部并按作者过滤
func (s *NoteService) List(tenant *models.Tenant, caller *models.User, params ListNotesParams) ([]*models.Note, int64, error) {
	query := s.db.Model(&models.Note{}).
		Where("tenant_id = ? AND is_archived = ?", tenant.ID, params.Archived)

	if !caller.IsAdmin() {
		query = query.Where("user_id = ?", caller.ID)
	} else if params.AuthorID != nil {
		query = query.Where("user_id = ?", *params.AuthorID)
	}

	if params.Pinned != nil {
		query = query.Where("is_pinned = ?", *params.Pinned)
	}

	if len(params.Tags) > 0 {
		tagCond := s.db.Where(datatypes.JSONArrayQuery("tags").Contains(params.Tags[0]))
		for _, tag := range params.Tags[1:] {
			tagCond = tagCond.Or(datatypes.JSONArrayQuery("tags").Contains(tag))
		}
		query = query.Where(tagCond)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notes []*models.Note
	offset := (params.Page - 1) * params.Limit
	err := query.Preload("User").
		Order(parseSort(params.Sort)).
		Offset(offset).Limit(params.Limit).
		Find(&notes).Error
	if err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

// parseSort 解析排序参数，白名单外回退默认值
func parseSort(sort string) string {
	if sort == "" {
		sort = "-created_at"
	}
	desc := strings.HasPrefix(sort, "-")
	field := strings.TrimPrefix(sort, "-")

	column, ok := noteSortFields[field]
	if !ok {
		column = "created_at"
		desc = true
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

// UpdateNoteParams 部分更新参数，nil字段不修改
type UpdateNoteParams struct {
	Title      *string
	Content    *string
	Tags       *[]string
	Color      *string
	IsPinned   *bool
	IsArchived *bool
}

// Update 更新笔记，作者或管理员可操作；元数据经保存钩子由内容重算
func (s *NoteService) Update(tenantID, id uint, caller *models.User, params UpdateNoteParams) (*models.Note, error) {
	note, err := s.getScoped(tenantID, id)
	if err != nil {
		return nil, err
	}
	if !note.CanAccess(caller) {
		return nil, apperrors.ErrAccessDenied
	}

	if params.Title != nil {
		note.Title = strings.TrimSpace(*params.Title)
	}
	if params.Content != nil {
		note.Content = *params.Content
	}
	if params.Tags != nil {
		note.Tags = datatypes.NewJSONSlice(*params.Tags)
	}
	if params.Color != nil {
		if !models.IsValidColor(*params.Color) {
			return nil, apperrors.ErrInvalidColor
		}
		note.Color = *params.Color
	}
	if params.IsPinned != nil {
		note.IsPinned = *params.IsPinned
	}
	if params.IsArchived != nil {
		note.IsArchived = *params.IsArchived
	}

	if err := s.db.Save(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// Delete 删除笔记，作者或管理员可操作
func (s *NoteService) Delete(tenantID, id uint, caller *models.User) error {
	note, err := s.getScoped(tenantID, id)
	if err != nil {
		return err
	}
	if !note.CanAccess(caller) {
		return apperrors.ErrAccessDenied
	}

	return s.db.Delete(note).Error
}

// NoteStats 笔记统计
type NoteStats struct {
	TotalNotes          int64            `json:"totalNotes"`
	ArchivedNotes       int64            `json:"archivedNotes"`
	PinnedNotes         int64            `json:"pinnedNotes"`
	TotalWords          int64            `json:"totalWords"`
	AverageWordsPerNote int64            `json:"averageWordsPerNote"`
	NotesByUser         []*UserNoteCount `json:"notesByUser,omitempty"`
}

// UserNoteCount 按作者统计，仅管理员可见
type UserNoteCount struct {
	UserID    uint   `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Count     int64  `json:"count"`
}

// Stats 统计租户笔记，成员只统计自己的数据，按作者分布仅管理员返回
func (s *NoteService) Stats(tenant *models.Tenant, caller *models.User) (*NoteStats, error) {
	stats := &NoteStats{}

	// 每次统计重建查询，避免链式条件相互污染
	scope := func() *gorm.DB {
		q := s.db.Model(&models.Note{}).Where("tenant_id = ?", tenant.ID)
		if !caller.IsAdmin() {
			q = q.Where("user_id = ?", caller.ID)
		}
		return q
	}

	if err := scope().Where("is_archived = ?", false).Count(&stats.TotalNotes).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("is_archived = ?", true).Count(&stats.ArchivedNotes).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("is_pinned = ? AND is_archived = ?", true, false).Count(&stats.PinnedNotes).Error; err != nil {
		return nil, err
	}

	var totalWords int64
	err := scope().
		Where("is_archived = ?", false).
		Select("COALESCE(SUM(metadata_word_count), 0)").
		Scan(&totalWords).Error
	if err != nil {
		return nil, err
	}
	stats.TotalWords = totalWords

	if stats.TotalNotes > 0 {
		stats.AverageWordsPerNote = (totalWords + stats.TotalNotes/2) / stats.TotalNotes
	}

	if caller.IsAdmin() {
		var byUser []*UserNoteCount
		err := s.db.Model(&models.Note{}).
			Select("notes.user_id AS user_id, users.email AS email, users.profile_first_name AS first_name, users.profile_last_name AS last_name, COUNT(*) AS count").
			Joins("JOIN users ON users.id = notes.user_id").
			Where("notes.tenant_id = ? AND notes.is_archived = ?", tenant.ID, false).
			Group("notes.user_id, users.email, users.profile_first_name, users.profile_last_name").
			Order("count DESC").
			Scan(&byUser).Error
		if err != nil {
			return nil, err
		}
		stats.NotesByUser = byUser
	}

	return stats, nil
}
