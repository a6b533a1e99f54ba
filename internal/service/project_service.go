package service

import (
	"errors"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"
)

type ProjectService struct {
	projectRepo    *repository.ProjectRepository
	generationRepo *repository.GenerationRepository
}

func NewProjectService(projectRepo *repository.ProjectRepository, generationRepo *repository.GenerationRepository) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		generationRepo: generationRepo,
	}
}

// CreateProject 创建项目，归属到调用用户
func (s *ProjectService) CreateProject(userID uint, project *models.Project) error {
	project.UserID = userID
	return s.projectRepo.Create(project)
}

// GetProject 获取项目详情，普通用户只能访问自己的项目
func (s *ProjectService) GetProject(callerID uint, callerRole models.UserRole, id string) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(id)
	if err != nil {
		return nil, errors.New("项目不存在")
	}
	if callerRole == models.RoleUser && project.UserID != callerID {
		return nil, ErrPermissionDenied
	}
	return project, nil
}

// ListProjects 获取用户的项目列表
func (s *ProjectService) ListProjects(userID uint) ([]models.Project, error) {
	return s.projectRepo.ListByUser(userID)
}

// ListGenerations 获取项目下的生成物列表
func (s *ProjectService) ListGenerations(callerID uint, callerRole models.UserRole, projectID string) ([]models.Generation, error) {
	if _, err := s.GetProject(callerID, callerRole, projectID); err != nil {
		return nil, err
	}
	return s.generationRepo.ListByProject(projectID)
}
