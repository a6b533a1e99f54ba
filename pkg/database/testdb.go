package database

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/banodoco/Reigh-sub002/internal/models"
)

var testDBSeq atomic.Int64

// NewTestDB 打开一个独立的内存数据库并完成建表，供测试使用
//
// 连接池限制为单连接：sqlite 写事务靠库级锁串行化，单连接避免
// 并发测试里 goroutine 抢连接时报 "database is locked"。
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
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
		t.Fatalf("测试数据库迁移失败: %v", err)
	}

	return db
}
