package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role 用户角色，闭合枚举
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid 校验角色取值
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// Profile 用户资料（嵌入User）
type Profile struct {
	FirstName string  `json:"firstName" gorm:"size:100"`
	LastName  string  `json:"lastName" gorm:"size:100"`
	Avatar    *string `json:"avatar" gorm:"size:255"`
}

// User 用户模型
// email 全局唯一（与来源系统一致；模型意图是租户内唯一）
type User struct {
	BaseModel
	Email              string     `json:"email" gorm:"unique;not null;size:100;index"`
	PasswordHash       string     `json:"-" gorm:"not null;size:255"`
	Role               Role       `json:"role" gorm:"default:'member';size:20"`
	TenantID           uint       `json:"tenantId" gorm:"not null;index"`
	Profile            Profile    `json:"profile" gorm:"embedded;embeddedPrefix:profile_"`
	IsActive           bool       `json:"isActive" gorm:"default:true"`
	MustChangePassword bool       `json:"mustChangePassword" gorm:"default:false"`
	LastLoginAt        *time.Time `json:"lastLoginAt"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// SetPassword 设置密码 - 数据操作方法
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码 - 数据操作方法
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsAdmin 是否为租户管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
