package models

import "time"

// CreditEntry 计费流水，每个任务至多一条
//
// task_id 唯一索引是计费幂等的数据库级保证：重复对账直接命中已有流水并跳过。
// swagger:model
type CreditEntry struct {
	ID          uint        `json:"id" gorm:"primarykey,autoIncrement"`          // 流水ID
	CreatedAt   time.Time   `json:"created_at"`                                  // 创建时间
	TaskID      string      `json:"task_id" gorm:"size:36;not null;uniqueIndex"` // 关联任务ID
	UserID      uint        `json:"user_id" gorm:"not null;index"`               // 扣费用户ID
	Amount      float64     `json:"amount" gorm:"not null"`                      // 变动金额，负数为扣费
	BillingType BillingType `json:"billing_type" gorm:"size:20;not null"`        // 计费方式
	Seconds     float64     `json:"seconds" gorm:"not null;default:0"`           // 计费时长(秒)，按次计费时为0
}
