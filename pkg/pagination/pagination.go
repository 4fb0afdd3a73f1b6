package pagination

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageParams 分页参数
type PageParams struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// PageInfo 分页信息
type PageInfo struct {
	Page  int   `json:"page"`  // 当前页
	Limit int   `json:"limit"` // 每页大小
	Total int64 `json:"total"` // 总记录数
	Pages int   `json:"pages"` // 总页数
}

// 分页配置
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ParsePageParams 从请求中解析分页参数
func ParsePageParams(c *gin.Context) *PageParams {
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "10")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = DefaultPage
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return &PageParams{
		Page:  page,
		Limit: limit,
	}
}

// NewPageInfo 计算分页信息
func NewPageInfo(page, limit int, total int64) *PageInfo {
	pages := int(math.Ceil(float64(total) / float64(limit)))

	return &PageInfo{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

// GetOffset 计算offset
func (p *PageParams) GetOffset() int {
	return (p.Page - 1) * p.Limit
}

// GetLimit 计算limit
func (p *PageParams) GetLimit() int {
	return p.Limit
}
