package repository

import (
	"fmt"

	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
)

// 本文件集中定义认领与容量统计共用的查询谓词。
// 认领路径与只读统计必须使用同一组条件，否则面板显示的容量
// 会与调度器的实际判定漂移。任何条件修改都要同时作用于两侧。

// inFlightCountTemplate 用户当前执行中的任务数(不含编排类任务)。
// 这是该口径的唯一定义：认领路径的相关子查询与按用户统计的
// 独立查询都由它实例化，%s 为用户ID的比较对象。
const inFlightCountTemplate = `(SELECT COUNT(*) FROM tasks t2
	JOIN projects p2 ON p2.id = t2.project_id
	JOIN task_types tt2 ON tt2.name = t2.task_type
	WHERE p2.user_id = %s AND t2.status = ? AND tt2.is_orchestrator = ?)`

var (
	// 关联到外层 users 行，用于认领候选查询
	inFlightSubquery = fmt.Sprintf(inFlightCountTemplate, "users.id")
	// 按给定用户ID计数，用于容量统计与认领后的上限重验
	inFlightForUser = fmt.Sprintf(inFlightCountTemplate, "?")
)

// InFlightCount 用户执行中任务数(不含编排类)，与并发上限判定同一口径
func InFlightCount(db *gorm.DB, userID uint) (int, error) {
	var count int64
	err := db.Raw("SELECT "+inFlightForUser,
		userID, models.TaskStatusInProgress, false).Scan(&count).Error
	return int(count), err
}

// ReadyTaskScope 任务就绪条件：排队中、类型开放、前置任务已完成、执行通道匹配
func ReadyTaskScope(runType models.RunType) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.
			Joins("JOIN task_types ON task_types.name = tasks.task_type").
			Where("tasks.status = ?", models.TaskStatusQueued).
			Where("task_types.is_active = ?", true).
			Where("tasks.dependant_on_id IS NULL OR EXISTS (SELECT 1 FROM tasks dep WHERE dep.id = tasks.dependant_on_id AND dep.status = ?)",
				models.TaskStatusComplete)
		if runType != "" {
			db = db.Where("task_types.run_type = ?", runType)
		}
		return db
	}
}

// OwnerJoinScope 连接任务的归属链：任务→项目→用户
func OwnerJoinScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN projects ON projects.id = tasks.project_id").
			Joins("JOIN users ON users.id = projects.user_id")
	}
}

// ChannelScope 用户执行通道偏好：local 看 allow_local，gpu/api 看 allow_cloud
func ChannelScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"(task_types.run_type = ? AND users.allow_local = ?) OR (task_types.run_type <> ? AND users.allow_cloud = ?)",
			models.RunTypeLocal, true, models.RunTypeLocal, true)
	}
}

// CreditsScope 积分余额必须为正
func CreditsScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("users.credits > 0")
	}
}

// UnderCapScope 用户执行中任务数(不含编排类)低于并发上限
func UnderCapScope(cap int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(inFlightSubquery+" < ?",
			models.TaskStatusInProgress, false, cap)
	}
}
