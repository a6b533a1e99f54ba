package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Generation 任务完成后派生的生成物记录
//
// task_id 唯一索引保证每个任务至多派生一条记录，是完成幂等的兜底约束。
// swagger:model
type Generation struct {
	ID             string    `json:"id" gorm:"primarykey;size:36"`                 // 生成物ID(UUID)
	CreatedAt      time.Time `json:"created_at"`                                   // 创建时间
	TaskID         string    `json:"task_id" gorm:"size:36;not null;uniqueIndex"`  // 来源任务ID
	ProjectID      string    `json:"project_id" gorm:"size:36;not null;index"`     // 所属项目ID
	OutputLocation string    `json:"output_location" gorm:"size:500;not null"`     // 产物存储位置
	DurationSecs   float64   `json:"duration_secs" gorm:"not null;default:0"`      // 计费时长(秒)
}

// BeforeCreate 创建前的钩子函数
func (g *Generation) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
