package repository

import (
	"github.com/banodoco/Reigh-sub002/internal/models"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create 写入发件箱事件，与状态转换同事务调用
func (r *OutboxRepository) Create(event *models.OutboxEvent) error {
	return r.db.Create(event).Error
}

// ListUnpublished 按写入顺序取一批未发布事件
func (r *OutboxRepository) ListUnpublished(limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.Where("published = ?", false).
		Order("id").Limit(limit).Find(&events).Error
	return events, err
}

// MarkPublished 标记事件已发布
func (r *OutboxRepository) MarkPublished(id uint) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("published", true).Error
}
