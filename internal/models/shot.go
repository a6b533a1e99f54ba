package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shot 镜头，项目内生成物的分组单位
// swagger:model
type Shot struct {
	ID        string    `json:"id" gorm:"primarykey;size:36"`             // 镜头ID(UUID)
	CreatedAt time.Time `json:"created_at"`                               // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                               // 更新时间
	ProjectID string    `json:"project_id" gorm:"size:36;not null;index"` // 所属项目ID
	Name      string    `json:"name" gorm:"size:200;not null"`            // 镜头名称
}

// BeforeCreate 创建前的钩子函数
func (s *Shot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ShotGeneration 镜头与生成物的关联，position 为镜头内顺序号
// swagger:model
type ShotGeneration struct {
	ID           uint      `json:"id" gorm:"primarykey,autoIncrement"`                                 // 关联ID
	CreatedAt    time.Time `json:"created_at"`                                                         // 创建时间
	ShotID       string    `json:"shot_id" gorm:"size:36;not null;index:idx_shot_generation,unique"`   // 镜头ID
	GenerationID string    `json:"generation_id" gorm:"size:36;not null;index:idx_shot_generation,unique"` // 生成物ID
	Position     int       `json:"position" gorm:"not null"`                                           // 镜头内顺序号
}
