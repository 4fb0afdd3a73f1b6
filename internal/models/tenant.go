package models

import (
	"time"

	"gorm.io/datatypes"
)

// 订阅计划常量
const (
	PlanFree = "free"
	PlanPro  = "pro"

	// NoteLimitUnlimited 无限配额哨兵值
	NoteLimitUnlimited = -1
	// DefaultNoteLimit 免费计划默认配额
	DefaultNoteLimit = 3
)

// Subscription 租户订阅信息（嵌入Tenant）
type Subscription struct {
	Plan       string     `json:"plan" gorm:"default:'free';size:20"`
	NoteLimit  int        `json:"noteLimit" gorm:"default:3"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpgradedAt *time.Time `json:"upgradedAt"`
}

// Tenant 租户模型 - 贫血模型，只包含数据结构
// settings 为受限的字符串键值映射，不接受非字符串值
type Tenant struct {
	BaseModel
	Slug         string                                `json:"slug" gorm:"unique;not null;size:50;index"`
	Name         string                                `json:"name" gorm:"not null;size:100"`
	Subscription Subscription                          `json:"subscription" gorm:"embedded;embeddedPrefix:subscription_"`
	Settings     datatypes.JSONType[map[string]string] `json:"settings"`
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// IsPro 是否为Pro计划
func (t *Tenant) IsPro() bool {
	return t.Subscription.Plan == PlanPro
}

// CanCreateNote 根据当前活跃笔记数判断是否允许创建
// Pro计划不限量；免费计划要求计数低于配额
func (t *Tenant) CanCreateNote(currentCount int64) bool {
	if t.IsPro() {
		return true
	}
	return currentCount < int64(t.Subscription.NoteLimit)
}

// UpgradeSubscription 升级为Pro计划（单向，不定义降级）
func (t *Tenant) UpgradeSubscription() {
	now := time.Now()
	t.Subscription.Plan = PlanPro
	t.Subscription.NoteLimit = NoteLimitUnlimited
	t.Subscription.UpgradedAt = &now
}
