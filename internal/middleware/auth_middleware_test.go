package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notehub/internal/database"
	"notehub/internal/models"
	"notehub/pkg/jwt"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *models.User) {
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

	user := &models.User{
		Email:    "user@acme.test",
		Role:     models.RoleMember,
		TenantID: tenant.ID,
		IsActive: true,
	}
	require.NoError(t, user.SetPassword("password"))
	require.NoError(t, db.Create(user).Error)

	return db, user
}

func protectedRouter(auth *AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.GET("/protected", auth.RequireLogin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": CurrentUser(c).Email, "tenant": CurrentTenant(c).Slug})
	})
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestRequireLoginMissingToken(t *testing.T) {
	setupAuthTest(t)
	r := protectedRouter(NewAuthMiddleware())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, w))

	// 非Bearer格式同样视为缺失
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, w))
}

func TestRequireLoginInvalidToken(t *testing.T) {
	setupAuthTest(t)
	r := protectedRouter(NewAuthMiddleware())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))
}

func TestRequireLoginValidToken(t *testing.T) {
	_, user := setupAuthTest(t)
	r := protectedRouter(NewAuthMiddleware())

	token, err := jwt.GetJWTManager().GenerateToken(user.ID, user.TenantID, user.Email, string(user.Role))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user@acme.test")
	assert.Contains(t, w.Body.String(), "acme")
}

func TestRequireLoginInactiveUser(t *testing.T) {
	db, user := setupAuthTest(t)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	r := protectedRouter(NewAuthMiddleware())

	token, err := jwt.GetJWTManager().GenerateToken(user.ID, user.TenantID, user.Email, string(user.Role))
	require.NoError(t, err)

	// 令牌本身有效，但账户已禁用
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_USER", errorCode(t, w))
}

func TestRequireAdmin(t *testing.T) {
	db, member := setupAuthTest(t)
	auth := NewAuthMiddleware()

	admin := &models.User{
		Email:    "admin@acme.test",
		Role:     models.RoleAdmin,
		TenantID: member.TenantID,
		IsActive: true,
	}
	require.NoError(t, admin.SetPassword("password"))
	require.NoError(t, db.Create(admin).Error)

	r := gin.New()
	r.GET("/admin-only", auth.RequireLogin(), auth.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	memberToken, err := jwt.GetJWTManager().GenerateToken(member.ID, member.TenantID, member.Email, string(member.Role))
	require.NoError(t, err)
	adminToken, err := jwt.GetJWTManager().GenerateToken(admin.ID, admin.TenantID, admin.Email, string(admin.Role))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ADMIN_REQUIRED", errorCode(t, w))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireTenantSlug(t *testing.T) {
	_, user := setupAuthTest(t)
	auth := NewAuthMiddleware()

	r := gin.New()
	r.POST("/tenants/:slug/upgrade", auth.RequireLogin(), auth.RequireTenantSlug(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	token, err := jwt.GetJWTManager().GenerateToken(user.ID, user.TenantID, user.Email, string(user.Role))
	require.NoError(t, err)

	// 本租户slug放行，大小写不敏感
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tenants/ACME/upgrade", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// 他租户slug拒绝
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/tenants/globex/upgrade", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "TENANT_ACCESS_DENIED", errorCode(t, w))
}
