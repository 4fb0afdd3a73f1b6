package models

import (
	"math"
	"regexp"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 笔记字段限制
const (
	DefaultNoteColor = "#DFD0B8"
	MaxTitleLength   = 200
	MaxContentLength = 10000

	// ReadingSpeedWPM 阅读速度（词/分钟），用于估算阅读时长
	ReadingSpeedWPM = 200
)

var colorPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})$`)

// IsValidColor 校验十六进制颜色值
func IsValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

// NoteMetadata 笔记派生元数据，只由内容计算产生，不可独立设置
type NoteMetadata struct {
	WordCount   int `json:"wordCount" gorm:"default:0"`
	ReadingTime int `json:"readingTime" gorm:"default:0"` // 分钟
}

// Note 笔记模型
// tenant_id 创建后不可变更；归档笔记不计入配额
type Note struct {
	BaseModel
	Title      string                     `json:"title" gorm:"not null;size:200"`
	Content    string                     `json:"content" gorm:"not null;type:text"`
	TenantID   uint                       `json:"tenantId" gorm:"not null;index:idx_notes_tenant;index:idx_notes_tenant_archived"`
	UserID     uint                       `json:"userId" gorm:"not null;index"`
	Tags       datatypes.JSONSlice[string] `json:"tags"`
	IsPinned   bool                       `json:"isPinned" gorm:"default:false"`
	Color      string                     `json:"color" gorm:"default:'#DFD0B8';size:10"`
	IsArchived bool                       `json:"isArchived" gorm:"default:false;index:idx_notes_tenant_archived"`
	Metadata   NoteMetadata               `json:"metadata" gorm:"embedded;embeddedPrefix:metadata_"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName 表名
func (n *Note) TableName() string {
	return "notes"
}

// BeforeSave 每次写入重新计算元数据并规范化标签
func (n *Note) BeforeSave(tx *gorm.DB) error {
	n.Tags = NormalizeTags(n.Tags)

	words := CountWords(n.Content)
	n.Metadata.WordCount = words
	n.Metadata.ReadingTime = ReadingTime(words)
	return nil
}

// CanAccess 访问检查：同租户且（管理员或作者本人）
func (n *Note) CanAccess(user *User) bool {
	return n.TenantID == user.TenantID && (user.IsAdmin() || n.UserID == user.ID)
}

// CountWords 统计空白分隔的非空词元数量
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// ReadingTime 按阅读速度向上取整的阅读分钟数
func ReadingTime(wordCount int) int {
	if wordCount == 0 {
		return 0
	}
	return int(math.Ceil(float64(wordCount) / float64(ReadingSpeedWPM)))
}

// NormalizeTags 标签转小写、去空白、去重
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
