package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrClaimRace 候选任务在选中与更新之间被并发认领
var ErrClaimRace = errors.New("task claimed by concurrent worker")

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create 创建新任务
func (r *TaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// GetByID 根据ID获取任务
func (r *TaskRepository) GetByID(id string) (*models.Task, error) {
	var task models.Task
	err := r.db.First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetByIDForUpdate 根据ID获取任务并加行锁(仅postgres)
func (r *TaskRepository) GetByIDForUpdate(id string) (*models.Task, error) {
	var task models.Task
	q := r.db
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List 获取任务列表，支持分页和过滤
func (r *TaskRepository) List(offset, limit int, filters map[string]interface{}) ([]models.Task, int64, error) {
	var tasks []models.Task
	var total int64

	query := r.db.Model(&models.Task{})

	// 应用过滤条件
	for key, value := range filters {
		if value != nil && value != "" {
			query = query.Where(key+" = ?", value)
		}
	}

	// 获取总数
	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// 获取分页数据，按创建时间倒序
	err = query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update 更新任务
func (r *TaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// UpdateParams 只更新任务参数字段，供用户侧编辑使用
//
// 状态、worker_id 与两个计费时间戳不在此路径可达，
// 它们只能经由认领与完成处理的系统权限路径写入。
func (r *TaskRepository) UpdateParams(id, params string) error {
	return r.db.Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"params":     params,
			"updated_at": time.Now(),
		}).Error
}

// ClaimNext 原子认领一个就绪任务
//
// 在单个事务内完成资格判定、候选选取与状态更新，消除
// "先查资格再认领"之间的竞态窗口。postgres 下对候选行加
// FOR UPDATE OF tasks SKIP LOCKED，并发认领者互相跳过而非阻塞。
// 无就绪任务时返回 (nil, nil)，这是正常的空队列结果而非错误。
func (r *TaskRepository) ClaimNext(workerID string, runType models.RunType, cap int) (*models.ClaimedTask, error) {
	var claimed *models.ClaimedTask

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var row struct {
			ID        string
			TaskType  string
			RunType   models.RunType
			ProjectID string
			UserID    uint
			Params    string
		}

		// 就绪任务 × 有资格的用户，FIFO排序，取一条
		q := tx.Model(&models.Task{}).
			Select("tasks.id, tasks.task_type, task_types.run_type, tasks.project_id, users.id AS user_id, tasks.params").
			Scopes(
				ReadyTaskScope(runType),
				OwnerJoinScope(),
				ChannelScope(),
				CreditsScope(),
				UnderCapScope(cap),
			).
			Order("tasks.created_at, tasks.id").
			Limit(1)

		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: "tasks"},
				Options:  "SKIP LOCKED",
			})
		}

		if err := q.Scan(&row).Error; err != nil {
			return err
		}
		if row.ID == "" {
			// 无就绪任务
			return nil
		}

		// SKIP LOCKED 只锁住各自的候选行，同一用户的两个并发认领者
		// 会互相跳过对方的候选，而上限子查询只见已提交状态，两者都
		// 可能在 in-flight=cap-1 时通过判定。按用户加事务级咨询锁，
		// 等先行认领者提交后在锁内重验一次上限。
		if err := AdvisoryXactLock(tx, fmt.Sprintf("user-cap:%d", row.UserID)); err != nil {
			return err
		}
		inFlight, err := InFlightCount(tx, row.UserID)
		if err != nil {
			return err
		}
		if inFlight >= cap {
			return ErrClaimRace
		}

		// 状态条件再查一遍，防止选中与更新之间被他人认领。
		// 计费起始时间用 COALESCE 保护：重复认领不得覆盖首次值。
		now := time.Now()
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", row.ID, models.TaskStatusQueued).
			Updates(map[string]interface{}{
				"status":                models.TaskStatusInProgress,
				"worker_id":             workerID,
				"generation_started_at": gorm.Expr("COALESCE(generation_started_at, ?)", now),
				"updated_at":            now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrClaimRace
		}

		claimed = &models.ClaimedTask{
			TaskID:    row.ID,
			TaskType:  row.TaskType,
			RunType:   row.RunType,
			ProjectID: row.ProjectID,
			UserID:    row.UserID,
			Params:    row.Params,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ReadyCountForUser 用户就绪可认领任务数(应用通道偏好，不应用积分与上限)
func (r *TaskRepository) ReadyCountForUser(userID uint, runType models.RunType) (int, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Scopes(ReadyTaskScope(runType), OwnerJoinScope(), ChannelScope()).
		Where("users.id = ?", userID).
		Count(&count).Error
	return int(count), err
}

// InProgressCount 用户执行中任务数(不含编排类，与并发上限判定口径一致)
func (r *TaskRepository) InProgressCount(userID uint) (int, error) {
	return InFlightCount(r.db, userID)
}

// QueuedCountForUser 用户排队中任务总数(面板统计口径，不过滤就绪条件)
func (r *TaskRepository) QueuedCountForUser(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("projects.user_id = ?", userID).
		Where("tasks.status = ?", models.TaskStatusQueued).
		Count(&count).Error
	return int(count), err
}

// CompletedChildren 编排任务下所有已完成的子任务，按计费起始时间升序
func (r *TaskRepository) CompletedChildren(orchestratorID string) ([]models.Task, error) {
	var children []models.Task
	err := r.db.
		Where("orchestrator_task_id = ? AND status = ?", orchestratorID, models.TaskStatusComplete).
		Order("generation_started_at").
		Find(&children).Error
	return children, err
}

// CountByStatus 按状态统计任务数量
func (r *TaskRepository) CountByStatus() (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}
	err := r.db.Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}

// IsConflictError 判断是否为可重试的锁冲突类错误
//
// 包含 postgres 的串行化/死锁/锁不可用错误与 sqlite 的库级写锁错误，
// 调用方应在有限次数内带抖动退避重试。
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrClaimRace) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "lock not available") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
