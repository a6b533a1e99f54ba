package repository

import (
	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
)

type GenerationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create 创建生成物记录
func (r *GenerationRepository) Create(generation *models.Generation) error {
	return r.db.Create(generation).Error
}

// GetByID 根据ID获取生成物
func (r *GenerationRepository) GetByID(id string) (*models.Generation, error) {
	var generation models.Generation
	err := r.db.First(&generation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &generation, nil
}

// ListByProject 获取项目下的生成物列表
func (r *GenerationRepository) ListByProject(projectID string) ([]models.Generation, error) {
	var generations []models.Generation
	err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&generations).Error
	return generations, err
}
