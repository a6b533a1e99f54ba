package repository

import (
	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
)

type ShotRepository struct {
	db *gorm.DB
}

func NewShotRepository(db *gorm.DB) *ShotRepository {
	return &ShotRepository{db: db}
}

// Create 创建镜头
func (r *ShotRepository) Create(shot *models.Shot) error {
	return r.db.Create(shot).Error
}

// GetByID 根据ID获取镜头
func (r *ShotRepository) GetByID(id string) (*models.Shot, error) {
	var shot models.Shot
	err := r.db.First(&shot, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shot, nil
}

// ListByProject 获取项目下的镜头列表
func (r *ShotRepository) ListByProject(projectID string) ([]models.Shot, error) {
	var shots []models.Shot
	err := r.db.Where("project_id = ?", projectID).Order("created_at").Find(&shots).Error
	return shots, err
}

// AppendGeneration 把生成物追加到镜头末尾
//
// position 取当前最大值+1。同一镜头的多行在一个事务内读改写，
// 调用方需先持有该镜头的咨询锁，避免并发追加产生重复顺序号。
func (r *ShotRepository) AppendGeneration(tx *gorm.DB, shotID, generationID string) (*models.ShotGeneration, error) {
	var maxPos struct {
		Max int
	}
	err := tx.Model(&models.ShotGeneration{}).
		Select("COALESCE(MAX(position), 0) AS max").
		Where("shot_id = ?", shotID).
		Scan(&maxPos).Error
	if err != nil {
		return nil, err
	}

	association := &models.ShotGeneration{
		ShotID:       shotID,
		GenerationID: generationID,
		Position:     maxPos.Max + 1,
	}
	if err := tx.Create(association).Error; err != nil {
		return nil, err
	}
	return association, nil
}

// ListGenerations 按顺序号列出镜头内的关联
func (r *ShotRepository) ListGenerations(shotID string) ([]models.ShotGeneration, error) {
	var associations []models.ShotGeneration
	err := r.db.Where("shot_id = ?", shotID).Order("position").Find(&associations).Error
	return associations, err
}
