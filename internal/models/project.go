package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project 表示用户的创作项目，任务通过项目归属到用户
// swagger:model
type Project struct {
	ID        string     `json:"id" gorm:"primarykey;size:36"`        // 项目ID(UUID)
	CreatedAt time.Time  `json:"created_at"`                          // 创建时间
	UpdatedAt time.Time  `json:"updated_at"`                          // 更新时间
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`   // 删除时间
	Name      string     `json:"name" gorm:"size:200;not null"`       // 项目名称
	UserID    uint       `json:"user_id" gorm:"not null;index"`       // 所属用户ID
	MetaData  string     `json:"meta_data,omitempty" gorm:"type:text"` // 元数据(JSON格式)
}

// BeforeCreate 创建前的钩子函数
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
