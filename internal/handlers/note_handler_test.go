package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"notehub/internal/database"
	"notehub/internal/models"
	"notehub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type handlerFixture struct {
	db     *gorm.DB
	tenant *models.Tenant
	admin  *models.User
	member *models.User
	router *gin.Engine
}

// setupHandlerTest 建立内存库并注册携带固定用户上下文的路由
func setupHandlerTest(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Tenant{}, &models.User{}, &models.Note{}))

	database.SetDB(db)
	t.Cleanup(func() {
		database.SetDB(nil)
		sqlDB.Close()
	})

	tenant := &models.Tenant{
		Slug: "acme",
		Name: "Acme Corporation",
		Subscription: models.Subscription{
			Plan:      models.PlanFree,
			NoteLimit: models.DefaultNoteLimit,
		},
		Settings: datatypes.NewJSONType(map[string]string{}),
	}
	require.NoError(t, db.Create(tenant).Error)

	admin := &models.User{Email: "admin@acme.test", Role: models.RoleAdmin, TenantID: tenant.ID, IsActive: true}
	require.NoError(t, admin.SetPassword("password"))
	require.NoError(t, db.Create(admin).Error)

	member := &models.User{Email: "user@acme.test", Role: models.RoleMember, TenantID: tenant.ID, IsActive: true}
	require.NoError(t, member.SetPassword("password"))
	require.NoError(t, db.Create(member).Error)

	return &handlerFixture{db: db, tenant: tenant, admin: admin, member: member}
}

// routerAs 以指定用户身份注册笔记路由（跳过真实认证中间件）
func (f *handlerFixture) routerAs(user *models.User) *gin.Engine {
	noteService := services.NewNoteService()
	tenantService := services.NewTenantService()
	handler := NewNoteHandler(noteService, tenantService)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		// 每次请求重新读租户，反映订阅变化
		var tenant models.Tenant
		f.db.First(&tenant, f.tenant.ID)
		c.Set("user", user)
		c.Set("tenant", &tenant)
	})
	r.POST("/api/notes", handler.Create)
	r.GET("/api/notes", handler.List)
	r.GET("/api/notes/:id", handler.Get)
	r.PUT("/api/notes/:id", handler.Update)
	r.DELETE("/api/notes/:id", handler.Delete)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestNoteHandlerCreate(t *testing.T) {
	f := setupHandlerTest(t)
	r := f.routerAs(f.member)

	w := doJSON(r, http.MethodPost, "/api/notes", `{"title":"First","content":"one two three"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Note models.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "First", body.Note.Title)
	assert.Equal(t, models.DefaultNoteColor, body.Note.Color)
	assert.Equal(t, 3, body.Note.Metadata.WordCount)
}

func TestNoteHandlerCreateValidation(t *testing.T) {
	f := setupHandlerTest(t)
	r := f.routerAs(f.member)

	// 缺少必填字段
	w := doJSON(r, http.MethodPost, "/api/notes", `{"content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	// 非法颜色由绑定校验拦截
	w = doJSON(r, http.MethodPost, "/api/notes", `{"title":"t","content":"x","color":"red"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoteHandlerCreateQuotaResponse(t *testing.T) {
	f := setupHandlerTest(t)
	r := f.routerAs(f.member)

	for i := 0; i < models.DefaultNoteLimit; i++ {
		w := doJSON(r, http.MethodPost, "/api/notes", `{"title":"n","content":"x"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/notes", `{"title":"over","content":"x"}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOTE_LIMIT_REACHED", body["code"])
	assert.Equal(t, float64(3), body["currentCount"])
	assert.Equal(t, float64(3), body["limit"])
	assert.Equal(t, "free", body["subscription"])
}

func TestNoteHandlerGetNotFoundAndAccess(t *testing.T) {
	f := setupHandlerTest(t)

	// 管理员创建一条笔记
	adminRouter := f.routerAs(f.admin)
	w := doJSON(adminRouter, http.MethodPost, "/api/notes", `{"title":"admin note","content":"x"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Note models.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// 成员访问他人笔记被拒
	memberRouter := f.routerAs(f.member)
	w = doJSON(memberRouter, http.MethodGet, "/api/notes/"+itoa(created.Note.ID), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOTE_ACCESS_DENIED")

	// 不存在的ID返回404
	w = doJSON(memberRouter, http.MethodGet, "/api/notes/99999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOTE_NOT_FOUND")

	// 非数字ID返回400
	w = doJSON(memberRouter, http.MethodGet, "/api/notes/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoteHandlerListWithSubscription(t *testing.T) {
	f := setupHandlerTest(t)
	r := f.routerAs(f.member)

	w := doJSON(r, http.MethodPost, "/api/notes", `{"title":"n","content":"x"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Notes      []models.Note `json:"notes"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
		Subscription struct {
			Plan          string `json:"plan"`
			CurrentCount  int64  `json:"currentCount"`
			CanCreateMore bool   `json:"canCreateMore"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Notes, 1)
	assert.Equal(t, int64(1), body.Pagination.Total)
	assert.Equal(t, "free", body.Subscription.Plan)
	assert.Equal(t, int64(1), body.Subscription.CurrentCount)
	assert.True(t, body.Subscription.CanCreateMore)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
