package service

import (
	"errors"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"

	"gorm.io/gorm"
)

// BillingService 计费对账
//
// 费用由 (generation_processed_at − generation_started_at) 与任务类型
// 的计费方式决定。对账可被重复调用：task_id 唯一的流水记录保证
// 同一任务绝不累计扣费。
type BillingService struct{}

func NewBillingService() *BillingService {
	return &BillingService{}
}

// ComputeCost 计算任务费用，返回 (费用, 计费秒数)
//
// 任一时间戳缺失时返回 ErrMissingTimestamps，调用方(包括取消路径)
// 负责先回填再重试。按次计费与时长无关，秒数返回0。
func (s *BillingService) ComputeCost(task *models.Task, taskType *models.TaskType) (float64, float64, error) {
	if task.GenerationStartedAt == nil || task.GenerationProcessedAt == nil {
		return 0, 0, ErrMissingTimestamps
	}

	if taskType.BillingType == models.BillingPerUnit {
		return taskType.UnitCost, 0, nil
	}

	seconds := task.GenerationProcessedAt.Sub(*task.GenerationStartedAt).Seconds()
	if seconds < 0 {
		seconds = 0
	}
	return seconds * taskType.UnitCost, seconds, nil
}

// Reconcile 在给定事务内为任务落账并扣减余额
//
// 已存在流水时直接返回 nil(重复对账为空操作)。流水与余额扣减
// 在同一事务内生效，随外层事务一起提交或回滚。
func (s *BillingService) Reconcile(tx *gorm.DB, task *models.Task, taskType *models.TaskType, userID uint) error {
	creditRepo := repository.NewCreditRepository(tx)

	_, err := creditRepo.GetByTaskID(task.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	cost, seconds, err := s.ComputeCost(task, taskType)
	if err != nil {
		return err
	}

	entry := &models.CreditEntry{
		TaskID:      task.ID,
		UserID:      userID,
		Amount:      -cost,
		BillingType: taskType.BillingType,
		Seconds:     seconds,
	}
	if err := creditRepo.Create(entry); err != nil {
		return err
	}

	return repository.NewUserRepository(tx).AddCredits(userID, -cost)
}
