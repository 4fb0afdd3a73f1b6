package services

import (
	"errors"
	"strings"
	"time"

	"notehub/internal/database"
	"notehub/internal/models"
	apperrors "notehub/pkg/errors"
	"notehub/pkg/logger"

	"gorm.io/gorm"
)

// DefaultInvitePassword 受邀用户的初始密码（演示环境策略，用户首次登录需改密）
const DefaultInvitePassword = "password"

type UserService struct {
	db *gorm.DB
}

func NewUserService() *UserService {
	return &UserService{
		db: database.GetDB(),
	}
}

// GetByID 根据ID获取用户（带租户）
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Tenant").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户（带租户）
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Tenant").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate 校验邮箱密码，返回用户（带租户）
// 查无此人与密码错误统一返回 ErrInvalidCredentials；禁用账户返回 ErrInactiveAccount
// 最后登录时间为尽力而为的副作用，失败不影响登录
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}

	if err := s.UpdateLastLogin(user.ID); err != nil {
		logger.GetLogger().Warnf("Failed to update last login for user %d: %v", user.ID, err)
	}

	return user, nil
}

// UpdateLastLogin 更新最后登录时间
func (s *UserService) UpdateLastLogin(userID uint) error {
	now := time.Now()
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", &now).Error
}

// IsActive 检查用户是否激活
func (s *UserService) IsActive(user *models.User) bool {
	return user.IsActive
}

// UpdateProfileParams 资料更新参数，nil字段不修改
type UpdateProfileParams struct {
	FirstName *string
	LastName  *string
	Avatar    *string
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(userID uint, params UpdateProfileParams) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if params.FirstName != nil {
		user.Profile.FirstName = strings.TrimSpace(*params.FirstName)
	}
	if params.LastName != nil {
		user.Profile.LastName = strings.TrimSpace(*params.LastName)
	}
	if params.Avatar != nil {
		user.Profile.Avatar = params.Avatar
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword 修改密码，需验证当前密码
func (s *UserService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}

	if !user.CheckPassword(currentPassword) {
		return apperrors.ErrInvalidCurrentPassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	user.MustChangePassword = false

	return s.db.Save(&user).Error
}

// Invite 管理员邀请用户加入租户，使用固定初始密码并强制改密
func (s *UserService) Invite(tenantID uint, email string, role models.Role, profile models.Profile) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrUserAlreadyExists
	}

	if !role.Valid() {
		role = models.RoleMember
	}

	user := &models.User{
		Email:              email,
		Role:               role,
		TenantID:           tenantID,
		Profile:            profile,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := user.SetPassword(DefaultInvitePassword); err != nil {
		return nil, err
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetByTenantWithPage 获取租户用户列表（分页，可按角色过滤）
func (s *UserService) GetByTenantWithPage(tenantID uint, role models.Role, page, limit int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.Model(&models.User{}).Where("tenant_id = ?", tenantID)
	if role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
