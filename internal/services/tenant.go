package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"notehub/internal/database"
	"notehub/internal/models"
	apperrors "notehub/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TenantService struct {
	db *gorm.DB
}

func NewTenantService() *TenantService {
	return &TenantService{
		db: database.GetDB(),
	}
}

// SubscriptionSnapshot 订阅快照，随笔记列表等响应返回
type SubscriptionSnapshot struct {
	Plan          string `json:"plan"`
	NoteLimit     int    `json:"noteLimit"`
	CurrentCount  int64  `json:"currentCount"`
	CanCreateMore bool   `json:"canCreateMore"`
}

// SubscriptionStatus 订阅状态详情
type SubscriptionStatus struct {
	Plan             string     `json:"plan"`
	NoteLimit        int        `json:"noteLimit"`
	CurrentNoteCount int64      `json:"currentNoteCount"`
	CanCreateMore    bool       `json:"canCreateMore"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpgradedAt       *time.Time `json:"upgradedAt"`
	IsUnlimited      bool       `json:"isUnlimited"`
}

// SubscriptionLimits 配额用量
type SubscriptionLimits struct {
	NotesRemaining int `json:"notesRemaining"` // -1 表示不限量
	PercentageUsed int `json:"percentageUsed"`
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.First(&tenant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// GetBySlug 根据slug获取租户（大小写归一）
func (s *TenantService) GetBySlug(slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// Create 创建租户（入驻流程/种子数据使用）
func (s *TenantService) Create(slug, name string) (*models.Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := s.ValidateCreateParams(name, slug); err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.Tenant{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return nil, gorm.ErrDuplicatedKey
	}

	tenant := &models.Tenant{
		Slug: slug,
		Name: name,
		Subscription: models.Subscription{
			Plan:      models.PlanFree,
			NoteLimit: models.DefaultNoteLimit,
		},
		Settings: datatypes.NewJSONType(map[string]string{}),
	}

	err := s.db.Create(tenant).Error
	return tenant, err
}

// Upgrade 升级订阅为Pro，重复升级返回 ErrAlreadyProPlan 且不改状态
func (s *TenantService) Upgrade(id uint) (*models.Tenant, error) {
	tenant, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if tenant.IsPro() {
		return nil, apperrors.ErrAlreadyProPlan
	}

	tenant.UpgradeSubscription()
	if err := s.db.Save(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

// UpdateSettings 更新租户设置，仅接受字符串键值；整体合并写回
func (s *TenantService) UpdateSettings(id uint, settings map[string]string) (*models.Tenant, error) {
	tenant, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	current := tenant.Settings.Data()
	if current == nil {
		current = make(map[string]string, len(settings))
	}
	for key, value := range settings {
		if strings.TrimSpace(key) == "" {
			continue
		}
		current[key] = value
	}
	tenant.Settings = datatypes.NewJSONType(current)

	if err := s.db.Save(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

// Snapshot 构建订阅快照
func (s *TenantService) Snapshot(tenant *models.Tenant, activeCount int64) *SubscriptionSnapshot {
	return &SubscriptionSnapshot{
		Plan:          tenant.Subscription.Plan,
		NoteLimit:     tenant.Subscription.NoteLimit,
		CurrentCount:  activeCount,
		CanCreateMore: tenant.CanCreateNote(activeCount),
	}
}

// Status 构建订阅状态与配额用量
func (s *TenantService) Status(tenant *models.Tenant, activeCount int64) (*SubscriptionStatus, *SubscriptionLimits) {
	status := &SubscriptionStatus{
		Plan:             tenant.Subscription.Plan,
		NoteLimit:        tenant.Subscription.NoteLimit,
		CurrentNoteCount: activeCount,
		CanCreateMore:    tenant.CanCreateNote(activeCount),
		CreatedAt:        tenant.Subscription.CreatedAt,
		UpgradedAt:       tenant.Subscription.UpgradedAt,
		IsUnlimited:      tenant.IsPro(),
	}

	limits := &SubscriptionLimits{
		NotesRemaining: models.NoteLimitUnlimited,
		PercentageUsed: 0,
	}
	if !tenant.IsPro() {
		remaining := int64(tenant.Subscription.NoteLimit) - activeCount
		if remaining < 0 {
			remaining = 0
		}
		limits.NotesRemaining = int(remaining)
		// 配额为0时避免除零
		if tenant.Subscription.NoteLimit > 0 {
			limits.PercentageUsed = int(math.Round(float64(activeCount) / float64(tenant.Subscription.NoteLimit) * 100))
		} else {
			limits.PercentageUsed = 100
		}
	}

	return status, limits
}

// ========== 验证相关方法 ==========

// ValidateName 租户名称长度校验
func (s *TenantService) ValidateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 100
}

// ValidateSlug slug只允许小写字母、数字和连字符
func (s *TenantService) ValidateSlug(slug string) bool {
	if len(slug) < 2 || len(slug) > 50 {
		return false
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}

// ValidateCreateParams 创建参数校验
func (s *TenantService) ValidateCreateParams(name, slug string) error {
	if !s.ValidateName(name) {
		return fmt.Errorf("租户名称长度必须在2-100个字符之间")
	}
	if !s.ValidateSlug(slug) {
		return fmt.Errorf("租户slug长度必须在2-50个字符之间，且只能包含小写字母、数字和连字符")
	}
	return nil
}
