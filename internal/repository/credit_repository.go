package repository

import (
	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
)

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Create 写入计费流水
func (r *CreditRepository) Create(entry *models.CreditEntry) error {
	return r.db.Create(entry).Error
}

// GetByTaskID 查询任务的计费流水，不存在时返回 gorm.ErrRecordNotFound
func (r *CreditRepository) GetByTaskID(taskID string) (*models.CreditEntry, error) {
	var entry models.CreditEntry
	err := r.db.First(&entry, "task_id = ?", taskID).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByUser 获取用户的计费流水，按时间倒序
func (r *CreditRepository) ListByUser(userID uint, limit int) ([]models.CreditEntry, error) {
	var entries []models.CreditEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
