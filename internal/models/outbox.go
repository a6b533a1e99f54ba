package models

import "time"

// 任务生命周期事件类型
const (
	EventTaskComplete  = "task.complete"
	EventTaskFailed    = "task.failed"
	EventTaskCancelled = "task.cancelled"
)

// OutboxEvent 发件箱事件
//
// 与状态转换同事务写入，提交后由中继异步发布到通知流。
// 发布失败只会让 published 保持 false 等待重试，绝不回滚状态转换本身。
// swagger:model
type OutboxEvent struct {
	ID        uint      `json:"id" gorm:"primarykey,autoIncrement"`       // 事件ID
	CreatedAt time.Time `json:"created_at"`                               // 创建时间
	EventType string    `json:"event_type" gorm:"size:50;not null"`       // 事件类型
	TaskID    string    `json:"task_id" gorm:"size:36;not null;index"`    // 关联任务ID
	Payload   string    `json:"payload" gorm:"type:text"`                 // 事件内容(JSON格式)
	Published bool      `json:"published" gorm:"not null;default:false;index"` // 是否已发布
}
