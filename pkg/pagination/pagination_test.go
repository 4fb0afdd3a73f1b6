package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string) *PageParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/notes"+query, nil)
	return ParsePageParams(c)
}

func TestParsePageParams(t *testing.T) {
	p := paramsFor("")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	p = paramsFor("?page=3&limit=25")
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.Limit)

	// 非法值回退默认
	p = paramsFor("?page=0&limit=-5")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	p = paramsFor("?page=abc&limit=xyz")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	// 上限封顶
	p = paramsFor("?limit=1000")
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	assert.Equal(t, 2, info.Page)
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, int64(25), info.Total)
	assert.Equal(t, 3, info.Pages)

	info = NewPageInfo(1, 10, 0)
	assert.Equal(t, 0, info.Pages)
}

func TestGetOffset(t *testing.T) {
	p := &PageParams{Page: 3, Limit: 20}
	assert.Equal(t, 40, p.GetOffset())
}
