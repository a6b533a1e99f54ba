package repository

import (
	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
)

type TaskTypeRepository struct {
	db *gorm.DB
}

func NewTaskTypeRepository(db *gorm.DB) *TaskTypeRepository {
	return &TaskTypeRepository{db: db}
}

// GetByName 根据名称获取任务类型
func (r *TaskTypeRepository) GetByName(name string) (*models.TaskType, error) {
	var taskType models.TaskType
	err := r.db.First(&taskType, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &taskType, nil
}

// ListActive 列出所有开放认领的任务类型
func (r *TaskTypeRepository) ListActive() ([]models.TaskType, error) {
	var taskTypes []models.TaskType
	err := r.db.Where("is_active = ?", true).Order("name").Find(&taskTypes).Error
	return taskTypes, err
}

// SetActive 开关任务类型的认领
func (r *TaskTypeRepository) SetActive(name string, active bool) error {
	return r.db.Model(&models.TaskType{}).
		Where("name = ?", name).
		Update("is_active", active).Error
}
