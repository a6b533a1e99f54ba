package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus 定义任务状态
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"      // 排队中(初始状态)
	TaskStatusInProgress TaskStatus = "in_progress" // 已被工作节点认领，执行中
	TaskStatusComplete   TaskStatus = "complete"    // 已完成(终态)
	TaskStatusFailed     TaskStatus = "failed"      // 失败(终态)
	TaskStatusCancelled  TaskStatus = "cancelled"   // 已取消(终态)
)

// IsTerminal 是否为终态
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusComplete || s == TaskStatusFailed || s == TaskStatusCancelled
}

// Task 表示一个可调度的生成任务
//
// 任务只增不删：终态记录永久保留，用于审计与计费历史。
// generation_started_at / generation_processed_at 仅由调度器与完成处理器
// (service角色)设置，且各自只设置一次；用户侧的写入路径不暴露这两个字段。
// swagger:model
type Task struct {
	ID                    string     `json:"id" gorm:"primarykey;size:36"`                        // 任务ID(UUID)
	CreatedAt             time.Time  `json:"created_at" gorm:"index"`                             // 创建时间(FIFO排序键)
	UpdatedAt             time.Time  `json:"updated_at"`                                          // 更新时间
	ProjectID             string     `json:"project_id" gorm:"size:36;not null;index"`            // 所属项目ID
	TaskType              string     `json:"task_type" gorm:"size:100;not null;index"`            // 任务类型名称
	Status                TaskStatus `json:"status" gorm:"size:20;not null;index"`                // 任务状态
	DependantOnID         *string    `json:"dependant_on_id,omitempty" gorm:"size:36;index"`      // 前置任务ID，前置未完成则不可认领
	OrchestratorTaskID    *string    `json:"orchestrator_task_id,omitempty" gorm:"size:36;index"` // 所属编排任务ID(分段任务)
	WorkerID              *string    `json:"worker_id,omitempty" gorm:"size:100"`                 // 认领的工作节点ID，认领时设置且仅设置一次
	Params                string     `json:"params,omitempty" gorm:"type:text"`                   // 执行参数(JSON格式)
	OutputLocation        string     `json:"output_location,omitempty" gorm:"size:500"`           // 产物存储位置
	ErrorMessage          string     `json:"error_message,omitempty" gorm:"size:1000"`            // 失败原因
	GenerationStartedAt   *time.Time `json:"generation_started_at,omitempty"`                     // 计费起始时间，只设置一次
	GenerationProcessedAt *time.Time `json:"generation_processed_at,omitempty"`                   // 计费结束时间，只设置一次
	GenerationCreated     bool       `json:"generation_created" gorm:"not null;default:false"`    // 完成处理是否已执行(幂等标记)
}

// BeforeCreate 创建前的钩子函数
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	// 如果没有指定状态，默认为排队中
	if t.Status == "" {
		t.Status = TaskStatusQueued
	}
	return nil
}

// ClaimedTask 认领结果，返回给工作节点的执行信息
type ClaimedTask struct {
	TaskID    string  `json:"task_id"`
	TaskType  string  `json:"task_type"`
	RunType   RunType `json:"run_type"`
	ProjectID string  `json:"project_id"`
	UserID    uint    `json:"user_id"`
	Params    string  `json:"params"`
}
