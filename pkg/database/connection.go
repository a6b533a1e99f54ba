package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/banodoco/Reigh-sub002/internal/config"
	"github.com/banodoco/Reigh-sub002/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var DB *gorm.DB

// InitDB 初始化数据库连接
//
// 部署环境使用 postgres(认领依赖其行锁与 SKIP LOCKED 语义)，
// 本地开发可用 sqlite。
func InitDB(cfg *config.Config) {
	var err error

	// 配置日志选项 - Silent 模式下不显示任何日志
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch cfg.Database.Driver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.Database.DSN), gormConfig)
	default:
		DB, err = gorm.Open(sqlite.Open(cfg.Database.DSN), gormConfig)
	}
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	// 自动迁移数据库表结构
	migrateDB(DB)

	// 初始化任务类型目录与默认管理员账户
	seedTaskTypes(DB)
	createDefaultAdmin(DB)
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}

// 自动迁移数据库表结构
func migrateDB(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.TaskType{},
		&models.Task{},
		&models.Generation{},
		&models.Shot{},
		&models.ShotGeneration{},
		&models.CreditEntry{},
		&models.OutboxEvent{},
	)
	if err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
}

// seedTaskTypes 初始化任务类型目录
//
// 目录读多写少，已存在的类型不覆盖(线上可能手动调过费率或开关)。
func seedTaskTypes(db *gorm.DB) {
	taskTypes := []models.TaskType{
		{Name: "image_generation", RunType: models.RunTypeGPU, IsActive: true, BillingType: models.BillingPerSecond, UnitCost: 0.02},
		{Name: "video_upscale", RunType: models.RunTypeGPU, IsActive: true, BillingType: models.BillingPerSecond, UnitCost: 0.05},
		{Name: "prompt_enhance", RunType: models.RunTypeAPI, IsActive: true, BillingType: models.BillingPerUnit, UnitCost: 0.5},
		{Name: "travel_orchestrator", RunType: models.RunTypeAPI, IsActive: true, IsOrchestrator: true, BillingType: models.BillingPerSecond, UnitCost: 0.01},
		{Name: "travel_segment", RunType: models.RunTypeGPU, IsActive: true, BillingType: models.BillingPerSecond, UnitCost: 0.04},
		{Name: "join_clips_orchestrator", RunType: models.RunTypeAPI, IsActive: true, IsOrchestrator: true, BillingType: models.BillingPerSecond, UnitCost: 0.01},
		{Name: "join_clips_segment", RunType: models.RunTypeGPU, IsActive: true, BillingType: models.BillingPerSecond, UnitCost: 0.04},
		{Name: "local_render", RunType: models.RunTypeLocal, IsActive: true, BillingType: models.BillingPerUnit, UnitCost: 0},
	}

	for _, taskType := range taskTypes {
		var count int64
		db.Model(&models.TaskType{}).Where("name = ?", taskType.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&taskType).Error; err != nil {
				log.Printf("初始化任务类型 %s 失败: %v", taskType.Name, err)
			}
		}
	}
}

// createDefaultAdmin 创建默认管理员账户
func createDefaultAdmin(db *gorm.DB) {
	// 检查是否已存在管理员账户
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)

	// 如果没有管理员账户，则创建默认管理员
	if count == 0 {
		// 默认密码加密
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("生成默认密码失败: %v", err)
		}

		admin := models.User{
			Username: "admin",
			Email:    "admin@example.com",
			Password: string(hashedPassword),
			Role:     models.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("创建默认管理员失败: %v", err)
		}
		log.Println("已创建默认管理员账户: admin / admin123")
	}
}
