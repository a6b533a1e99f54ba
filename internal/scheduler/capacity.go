package scheduler

import (
	"github.com/banodoco/Reigh-sub002/internal/config"
	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"
)

// UserCapacityStats 单用户容量统计行
type UserCapacityStats struct {
	UserID     uint    `json:"user_id"`     // 用户ID
	Credits    float64 `json:"credits"`     // 积分余额
	Queued     int     `json:"queued"`      // 排队中任务数
	InProgress int     `json:"in_progress"` // 执行中任务数(不含编排类)
	AtLimit    bool    `json:"at_limit"`    // 是否已达并发上限
}

// CapacityService 只读容量统计
//
// 所有计数都经由仓储层与认领路径共用的谓词(scopes.go)，
// 保证面板显示的容量与调度器实际会认领的数量一致。
type CapacityService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
	cfg      config.SchedulerConfig
}

func NewCapacityService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, cfg config.SchedulerConfig) *CapacityService {
	return &CapacityService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// CountEligibleForUser 单用户当前可认领容量
//
// includeActive=false: max(0, min(cap − inProgress, readyQueued))，
// 即在不发生其他变更的前提下，后续还能成功认领的次数。
// includeActive=true:  min(cap, inProgress + readyQueued)，
// 即该用户占用的上限额度(面板口径)。
func (s *CapacityService) CountEligibleForUser(userID uint, includeActive bool, runType models.RunType) (int, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return 0, err
	}
	return s.eligibleCount(user, includeActive, runType)
}

// CountEligible 全局可认领容量，跨所有用户求和
func (s *CapacityService) CountEligible(includeActive bool, runType models.RunType) (int, error) {
	users, err := s.userRepo.ListAll()
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range users {
		n, err := s.eligibleCount(&users[i], includeActive, runType)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// PerUserCapacityStats 全用户容量统计，面板用
func (s *CapacityService) PerUserCapacityStats() ([]UserCapacityStats, error) {
	users, err := s.userRepo.ListAll()
	if err != nil {
		return nil, err
	}

	stats := make([]UserCapacityStats, 0, len(users))
	for i := range users {
		user := &users[i]
		queued, err := s.taskRepo.QueuedCountForUser(user.ID)
		if err != nil {
			return nil, err
		}
		inProgress, err := s.taskRepo.InProgressCount(user.ID)
		if err != nil {
			return nil, err
		}
		stats = append(stats, UserCapacityStats{
			UserID:     user.ID,
			Credits:    user.Credits,
			Queued:     queued,
			InProgress: inProgress,
			AtLimit:    inProgress >= s.cfg.UserTaskCap,
		})
	}
	return stats, nil
}

// eligibleCount 单用户容量计算
//
// 就绪数只在用户有积分时统计(与认领资格一致)；
// includeActive 模式下执行中数量始终计入，体现已占用的额度。
func (s *CapacityService) eligibleCount(user *models.User, includeActive bool, runType models.RunType) (int, error) {
	inProgress, err := s.taskRepo.InProgressCount(user.ID)
	if err != nil {
		return 0, err
	}

	ready := 0
	if user.Credits > 0 {
		ready, err = s.taskRepo.ReadyCountForUser(user.ID, runType)
		if err != nil {
			return 0, err
		}
	}

	cap := s.cfg.UserTaskCap
	if includeActive {
		n := inProgress + ready
		if n > cap {
			n = cap
		}
		return n, nil
	}

	n := cap - inProgress
	if ready < n {
		n = ready
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
