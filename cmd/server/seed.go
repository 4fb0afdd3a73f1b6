package main

import (
	"fmt"

	"notehub/internal/database"
	"notehub/internal/models"
	"notehub/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// seedData 初始化演示数据，已存在则跳过
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	acme, err := seedTenant(db, "acme", "Acme Corporation")
	if err != nil {
		return fmt.Errorf("创建Acme租户失败: %v", err)
	}
	globex, err := seedTenant(db, "globex", "Globex Corporation")
	if err != nil {
		return fmt.Errorf("创建Globex租户失败: %v", err)
	}

	acmeAdmin, err := seedUser(db, acme, "admin@acme.test", models.RoleAdmin, "Admin", "User")
	if err != nil {
		return fmt.Errorf("创建Acme管理员失败: %v", err)
	}
	acmeUser, err := seedUser(db, acme, "user@acme.test", models.RoleMember, "Regular", "User")
	if err != nil {
		return fmt.Errorf("创建Acme成员失败: %v", err)
	}
	globexAdmin, err := seedUser(db, globex, "admin@globex.test", models.RoleAdmin, "Global", "Admin")
	if err != nil {
		return fmt.Errorf("创建Globex管理员失败: %v", err)
	}
	globexUser, err := seedUser(db, globex, "user@globex.test", models.RoleMember, "Global", "Member")
	if err != nil {
		return fmt.Errorf("创建Globex成员失败: %v", err)
	}

	if err := seedNotes(db, acme, []models.Note{
		{
			Title:   "Welcome to Acme Notes",
			Content: "This is your first note in the Acme tenant. You can create, edit, and delete notes here.",
			UserID:  acmeUser.ID,
			Tags:    datatypes.JSONSlice[string]{"welcome", "tutorial"},
			Color:   "#DFD0B8",
		},
		{
			Title:    "Meeting Notes - Project Alpha",
			Content:  "Discussed project timeline and milestones. Next meeting scheduled for next week.",
			UserID:   acmeAdmin.ID,
			Tags:     datatypes.JSONSlice[string]{"meeting", "project"},
			Color:    "#948979",
			IsPinned: true,
		},
	}); err != nil {
		return fmt.Errorf("创建Acme示例笔记失败: %v", err)
	}

	if err := seedNotes(db, globex, []models.Note{
		{
			Title:   "Globex Onboarding",
			Content: "Welcome to Globex Corporation notes system. Here you can manage all your important notes.",
			UserID:  globexUser.ID,
			Tags:    datatypes.JSONSlice[string]{"onboarding", "welcome"},
			Color:   "#DFD0B8",
		},
		{
			Title:    "Quarterly Review Notes",
			Content:  "Q4 performance metrics and goals for next quarter. Revenue targets exceeded by 15%.",
			UserID:   globexAdmin.ID,
			Tags:     datatypes.JSONSlice[string]{"quarterly", "review"},
			Color:    "#393E46",
			IsPinned: true,
		},
	}); err != nil {
		return fmt.Errorf("创建Globex示例笔记失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// seedTenant 创建演示租户（免费套餐）
func seedTenant(db *gorm.DB, slug, name string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := db.Where("slug = ?", slug).First(&tenant).Error
	if err == nil {
		logger.GetLogger().Infof("租户 %s 已存在，跳过创建", slug)
		return &tenant, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	tenant = models.Tenant{
		Slug: slug,
		Name: name,
		Subscription: models.Subscription{
			Plan:      models.PlanFree,
			NoteLimit: models.DefaultNoteLimit,
		},
		Settings: datatypes.NewJSONType(map[string]string{}),
	}
	if err := db.Create(&tenant).Error; err != nil {
		return nil, err
	}

	logger.GetLogger().Infof("租户 %s 创建成功", slug)
	return &tenant, nil
}

// seedUser 创建演示用户，密码统一为 password
func seedUser(db *gorm.DB, tenant *models.Tenant, email string, role models.Role, firstName, lastName string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		logger.GetLogger().Infof("用户 %s 已存在，跳过创建", email)
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user = models.User{
		Email:    email,
		Role:     role,
		TenantID: tenant.ID,
		IsActive: true,
		Profile: models.Profile{
			FirstName: firstName,
			LastName:  lastName,
		},
	}
	if err := user.SetPassword("password"); err != nil {
		return nil, err
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	logger.GetLogger().Infof("用户 %s 创建成功", email)
	return &user, nil
}

// seedNotes 创建示例笔记，租户已有笔记时跳过
func seedNotes(db *gorm.DB, tenant *models.Tenant, notes []models.Note) error {
	var count int64
	if err := db.Model(&models.Note{}).Where("tenant_id = ?", tenant.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.GetLogger().Infof("租户 %s 已有笔记，跳过示例数据", tenant.Slug)
		return nil
	}

	for i := range notes {
		notes[i].TenantID = tenant.ID
		if err := db.Create(&notes[i]).Error; err != nil {
			return err
		}
	}

	logger.GetLogger().Infof("租户 %s 示例笔记创建成功", tenant.Slug)
	return nil
}
