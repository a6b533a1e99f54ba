package service

import (
	"errors"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"

	"gorm.io/gorm"
)

type ShotService struct {
	db             *gorm.DB
	shotRepo       *repository.ShotRepository
	projectRepo    *repository.ProjectRepository
	generationRepo *repository.GenerationRepository
}

func NewShotService(db *gorm.DB) *ShotService {
	return &ShotService{
		db:             db,
		shotRepo:       repository.NewShotRepository(db),
		projectRepo:    repository.NewProjectRepository(db),
		generationRepo: repository.NewGenerationRepository(db),
	}
}

// CreateShot 创建镜头
func (s *ShotService) CreateShot(callerID uint, callerRole models.UserRole, shot *models.Shot) error {
	ownerID, err := s.projectRepo.OwnerID(shot.ProjectID)
	if err != nil {
		return errors.New("项目不存在")
	}
	if callerRole == models.RoleUser && ownerID != callerID {
		return ErrPermissionDenied
	}
	return s.shotRepo.Create(shot)
}

// ListShots 获取项目下的镜头列表
func (s *ShotService) ListShots(callerID uint, callerRole models.UserRole, projectID string) ([]models.Shot, error) {
	ownerID, err := s.projectRepo.OwnerID(projectID)
	if err != nil {
		return nil, errors.New("项目不存在")
	}
	if callerRole == models.RoleUser && ownerID != callerID {
		return nil, ErrPermissionDenied
	}
	return s.shotRepo.ListByProject(projectID)
}

// AddGeneration 把生成物关联到镜头末尾
//
// 同一镜头的顺序号读改写在一个事务内完成，事务开头按镜头ID
// 加咨询锁，并发追加互相串行，不会产生重复顺序号。
func (s *ShotService) AddGeneration(callerID uint, callerRole models.UserRole, shotID, generationID string) (*models.ShotGeneration, error) {
	shot, err := s.shotRepo.GetByID(shotID)
	if err != nil {
		return nil, errors.New("镜头不存在")
	}

	ownerID, err := s.projectRepo.OwnerID(shot.ProjectID)
	if err != nil {
		return nil, err
	}
	if callerRole == models.RoleUser && ownerID != callerID {
		return nil, ErrPermissionDenied
	}

	generation, err := s.generationRepo.GetByID(generationID)
	if err != nil {
		return nil, errors.New("生成物不存在")
	}
	if generation.ProjectID != shot.ProjectID {
		return nil, errors.New("生成物与镜头不属于同一项目")
	}

	var association *models.ShotGeneration
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.AdvisoryXactLock(tx, shotID); err != nil {
			return err
		}
		association, err = s.shotRepo.AppendGeneration(tx, shotID, generationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return association, nil
}

// ListGenerations 按顺序号列出镜头内的生成物关联
func (s *ShotService) ListGenerations(shotID string) ([]models.ShotGeneration, error) {
	return s.shotRepo.ListGenerations(shotID)
}
