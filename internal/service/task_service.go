package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"

	"gorm.io/gorm"
)

// TaskService 任务生命周期服务：创建、完成、失败、取消
//
// 完成/失败/取消各自是单个事务，不持有跨任务的锁。
// 所有终态转换都是幂等的：对已到终态的任务重复调用返回 (false, nil)。
type TaskService struct {
	db           *gorm.DB
	taskRepo     *repository.TaskRepository
	taskTypeRepo *repository.TaskTypeRepository
	projectRepo  *repository.ProjectRepository
	billing      *BillingService
}

func NewTaskService(db *gorm.DB, billing *BillingService) *TaskService {
	return &TaskService{
		db:           db,
		taskRepo:     repository.NewTaskRepository(db),
		taskTypeRepo: repository.NewTaskTypeRepository(db),
		projectRepo:  repository.NewProjectRepository(db),
		billing:      billing,
	}
}

// CreateTask 创建排队任务
//
// 受保护字段(状态、worker、计费时间戳、完成标记)在入口处清零，
// 无论调用方传了什么，新任务都从干净的 queued 状态开始。
func (s *TaskService) CreateTask(callerID uint, callerRole models.UserRole, task *models.Task) error {
	if _, err := s.taskTypeRepo.GetByName(task.TaskType); err != nil {
		return errors.New("任务类型不存在")
	}

	ownerID, err := s.projectRepo.OwnerID(task.ProjectID)
	if err != nil {
		return errors.New("项目不存在")
	}
	if callerRole == models.RoleUser && ownerID != callerID {
		return ErrPermissionDenied
	}

	if task.DependantOnID != nil {
		if _, err := s.taskRepo.GetByID(*task.DependantOnID); err != nil {
			return errors.New("前置任务不存在")
		}
	}

	task.Status = models.TaskStatusQueued
	task.WorkerID = nil
	task.GenerationStartedAt = nil
	task.GenerationProcessedAt = nil
	task.GenerationCreated = false
	task.OutputLocation = ""
	task.ErrorMessage = ""

	return s.taskRepo.Create(task)
}

// GetTask 获取任务详情
func (s *TaskService) GetTask(id string) (*models.Task, error) {
	return s.taskRepo.GetByID(id)
}

// ListTasks 获取任务列表
func (s *TaskService) ListTasks(current, size int, filters map[string]interface{}) ([]models.Task, int64, error) {
	offset := (current - 1) * size
	return s.taskRepo.List(offset, size, filters)
}

// UpdateParams 用户侧编辑任务参数
//
// 只有 params 一个字段可经由本路径写入；状态、worker_id 与两个计费
// 时间戳没有用户侧写入口，只能走认领与完成处理的系统权限路径。
func (s *TaskService) UpdateParams(callerID uint, callerRole models.UserRole, taskID, params string) error {
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		return err
	}

	if callerRole == models.RoleUser {
		ownerID, err := s.projectRepo.OwnerID(task.ProjectID)
		if err != nil {
			return err
		}
		if ownerID != callerID {
			return ErrPermissionDenied
		}
	}

	if task.Status.IsTerminal() {
		return errors.New("任务已结束，参数不可修改")
	}

	return s.taskRepo.UpdateParams(taskID, params)
}

// Complete 幂等完成任务
//
// 首次成功完成时：置 complete、记录产物位置、回填结束时间(仅当为空)、
// 计费对账、派生生成物记录、写发件箱事件，全部在同一事务内。
// 任务不存在、已到终态或完成处理已执行过时返回 (false, nil)。
func (s *TaskService) Complete(taskID, outputLocation string) (bool, error) {
	completed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := repository.NewTaskRepository(tx)

		task, err := taskRepo.GetByIDForUpdate(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		// 幂等防线：终态或已处理过的任务直接无操作
		if task.Status.IsTerminal() || task.GenerationCreated {
			return nil
		}

		sm := models.NewTaskStateMachine(task)
		if err := sm.ToComplete(); err != nil {
			// 非法来源状态(如仍在排队)按无操作处理，容忍重试调用
			return nil
		}
		task.OutputLocation = outputLocation

		taskType, err := repository.NewTaskTypeRepository(tx).GetByName(task.TaskType)
		if err != nil {
			return err
		}
		userID, err := repository.NewProjectRepository(tx).OwnerID(task.ProjectID)
		if err != nil {
			return err
		}

		// 计费先行：时间戳缺失时整个完成事务回滚并上抛
		if err := s.billing.Reconcile(tx, task, taskType, userID); err != nil {
			return err
		}

		seconds := task.GenerationProcessedAt.Sub(*task.GenerationStartedAt).Seconds()
		generation := &models.Generation{
			TaskID:         task.ID,
			ProjectID:      task.ProjectID,
			OutputLocation: outputLocation,
			DurationSecs:   seconds,
		}
		if err := repository.NewGenerationRepository(tx).Create(generation); err != nil {
			return err
		}

		task.GenerationCreated = true
		if err := taskRepo.Update(task); err != nil {
			return err
		}

		if err := writeOutbox(tx, models.EventTaskComplete, task); err != nil {
			return err
		}

		completed = true
		return nil
	})

	return completed, err
}

// Fail 幂等标记任务失败
func (s *TaskService) Fail(taskID, reason string) (bool, error) {
	failed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := repository.NewTaskRepository(tx)

		task, err := taskRepo.GetByIDForUpdate(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if task.Status.IsTerminal() {
			return nil
		}

		sm := models.NewTaskStateMachine(task)
		if err := sm.ToFailed(reason); err != nil {
			return nil
		}

		if err := taskRepo.Update(task); err != nil {
			return err
		}

		if err := writeOutbox(tx, models.EventTaskFailed, task); err != nil {
			return err
		}

		failed = true
		return nil
	})

	return failed, err
}

// Cancel 幂等取消任务
//
// 任意非终态均可取消。取消时若存在部分可计费工作(已有起始时间，
// 或编排任务存在已完成子任务)，合成缺失的时间戳后照常对账：
// 起始时间取最早完成子任务的起始时间，结束时间取当前时刻。
// 没有任何计费依据的取消(如仍在排队)不产生流水。
func (s *TaskService) Cancel(taskID string) (bool, error) {
	cancelled := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		taskRepo := repository.NewTaskRepository(tx)

		task, err := taskRepo.GetByIDForUpdate(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if task.Status.IsTerminal() {
			return nil
		}

		taskType, err := repository.NewTaskTypeRepository(tx).GetByName(task.TaskType)
		if err != nil {
			return err
		}

		sm := models.NewTaskStateMachine(task)
		if err := sm.ToCancelled(); err != nil {
			return nil
		}

		// 编排任务自身没有起始时间时，从已完成子任务合成。
		// 子任务集合在同一事务内整体核对，按编排键加咨询锁。
		if taskType.IsOrchestrator && task.GenerationStartedAt == nil {
			if err := repository.AdvisoryXactLock(tx, task.ID); err != nil {
				return err
			}
			children, err := taskRepo.CompletedChildren(task.ID)
			if err != nil {
				return err
			}
			if len(children) > 0 && children[0].GenerationStartedAt != nil {
				task.GenerationStartedAt = children[0].GenerationStartedAt
			}
		}

		if task.GenerationStartedAt != nil {
			if task.GenerationProcessedAt == nil {
				now := time.Now()
				task.GenerationProcessedAt = &now
			}
			userID, err := repository.NewProjectRepository(tx).OwnerID(task.ProjectID)
			if err != nil {
				return err
			}
			if err := s.billing.Reconcile(tx, task, taskType, userID); err != nil {
				return err
			}
		}

		if err := taskRepo.Update(task); err != nil {
			return err
		}

		if err := writeOutbox(tx, models.EventTaskCancelled, task); err != nil {
			return err
		}

		cancelled = true
		return nil
	})

	return cancelled, err
}

// CancelOwned 用户侧取消，先做归属检查
func (s *TaskService) CancelOwned(callerID uint, callerRole models.UserRole, taskID string) (bool, error) {
	if callerRole == models.RoleUser {
		task, err := s.taskRepo.GetByID(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		ownerID, err := s.projectRepo.OwnerID(task.ProjectID)
		if err != nil {
			return false, err
		}
		if ownerID != callerID {
			return false, ErrPermissionDenied
		}
	}
	return s.Cancel(taskID)
}

// writeOutbox 与状态转换同事务写入发件箱事件
func writeOutbox(tx *gorm.DB, eventType string, task *models.Task) error {
	payload, err := json.Marshal(map[string]interface{}{
		"task_id":         task.ID,
		"task_type":       task.TaskType,
		"project_id":      task.ProjectID,
		"status":          task.Status,
		"output_location": task.OutputLocation,
	})
	if err != nil {
		return err
	}

	return repository.NewOutboxRepository(tx).Create(&models.OutboxEvent{
		EventType: eventType,
		TaskID:    task.ID,
		Payload:   string(payload),
	})
}
