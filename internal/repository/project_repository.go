package repository

import (
	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create 创建新项目
func (r *ProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// GetByID 根据ID获取项目
func (r *ProjectRepository) GetByID(id string) (*models.Project, error) {
	var project models.Project
	err := r.db.First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByUser 获取用户的项目列表
func (r *ProjectRepository) ListByUser(userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// OwnerID 解析项目的归属用户ID
func (r *ProjectRepository) OwnerID(projectID string) (uint, error) {
	var project models.Project
	err := r.db.Select("user_id").First(&project, "id = ?", projectID).Error
	if err != nil {
		return 0, err
	}
	return project.UserID, nil
}
