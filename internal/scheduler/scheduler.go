package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/config"
	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"
	"github.com/banodoco/Reigh-sub002/pkg/backoff"
)

// ErrClaimConflict 锁冲突重试次数耗尽，调用方可稍后再试
var ErrClaimConflict = errors.New("claim conflict: retries exhausted")

// ClaimFilter 认领过滤条件
type ClaimFilter struct {
	// IncludeActive 仅用于统计口径(见 CapacityService)。
	// 认领路径忽略该字段：已在执行中的任务绝不会被重新认领或改派。
	IncludeActive bool           `json:"include_active"`
	RunType       models.RunType `json:"run_type"`
}

// SchedulerService 调度服务，面向工作节点的认领入口
type SchedulerService struct {
	taskRepo *repository.TaskRepository
	cfg      config.SchedulerConfig
	sleep    func(time.Duration) // 测试时可替换
}

func NewSchedulerService(taskRepo *repository.TaskRepository, cfg config.SchedulerConfig) *SchedulerService {
	return &SchedulerService{
		taskRepo: taskRepo,
		cfg:      cfg,
		sleep:    time.Sleep,
	}
}

// ClaimNext 认领下一个就绪任务
//
// 资格判定与状态更新在仓储层的单个事务内完成。锁冲突类错误
// 在事务之外带抖动退避重试，重试耗尽才以 ErrClaimConflict 上抛；
// 空队列返回 (nil, nil)，属于正常结果而非错误。
func (s *SchedulerService) ClaimNext(workerID string, filter ClaimFilter) (*models.ClaimedTask, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.ClaimRetries; attempt++ {
		claimed, err := s.taskRepo.ClaimNext(workerID, filter.RunType, s.cfg.UserTaskCap)
		if err == nil {
			return claimed, nil
		}
		if !repository.IsConflictError(err) {
			return nil, err
		}
		lastErr = err
		s.sleep(backoff.ExponentialJitter(s.cfg.BackoffBase(), s.cfg.BackoffMax(), attempt))
	}
	return nil, fmt.Errorf("%w: %v", ErrClaimConflict, lastErr)
}
