package models

import (
	"fmt"
	"time"
)

// TaskStateMachine 任务状态机
//
// 状态图: queued → in_progress → {complete, failed}
// 任意非终态 → cancelled；终态之间不再转换。
type TaskStateMachine struct {
	task *Task
}

// NewTaskStateMachine 创建任务状态机
func NewTaskStateMachine(task *Task) *TaskStateMachine {
	return &TaskStateMachine{task: task}
}

// 状态转换方法

// ToInProgress 转换到执行中状态（任务被工作节点认领）
func (sm *TaskStateMachine) ToInProgress(workerID string) error {
	if sm.task.Status != TaskStatusQueued {
		return fmt.Errorf("invalid state transition: %s -> in_progress", sm.task.Status)
	}
	sm.task.Status = TaskStatusInProgress
	sm.task.WorkerID = &workerID
	// 计费起始时间只设置一次，重复认领不得覆盖
	if sm.task.GenerationStartedAt == nil {
		now := time.Now()
		sm.task.GenerationStartedAt = &now
	}
	return nil
}

// ToComplete 转换到已完成状态
func (sm *TaskStateMachine) ToComplete() error {
	if sm.task.Status != TaskStatusInProgress {
		return fmt.Errorf("invalid state transition: %s -> complete", sm.task.Status)
	}
	sm.task.Status = TaskStatusComplete
	if sm.task.GenerationProcessedAt == nil {
		now := time.Now()
		sm.task.GenerationProcessedAt = &now
	}
	return nil
}

// ToFailed 转换到失败状态
func (sm *TaskStateMachine) ToFailed(reason string) error {
	if sm.task.Status != TaskStatusInProgress {
		return fmt.Errorf("invalid state transition: %s -> failed", sm.task.Status)
	}
	sm.task.Status = TaskStatusFailed
	sm.task.ErrorMessage = reason
	if sm.task.GenerationProcessedAt == nil {
		now := time.Now()
		sm.task.GenerationProcessedAt = &now
	}
	return nil
}

// ToCancelled 转换到已取消状态（用户或系统发起，任意非终态均可）
func (sm *TaskStateMachine) ToCancelled() error {
	if sm.task.Status.IsTerminal() {
		return fmt.Errorf("invalid state transition: %s -> cancelled", sm.task.Status)
	}
	sm.task.Status = TaskStatusCancelled
	return nil
}

// CanTransitionTo 检查是否可以转换到目标状态
func (sm *TaskStateMachine) CanTransitionTo(target TaskStatus) bool {
	current := sm.task.Status
	switch target {
	case TaskStatusInProgress:
		return current == TaskStatusQueued
	case TaskStatusComplete, TaskStatusFailed:
		return current == TaskStatusInProgress
	case TaskStatusCancelled:
		return !current.IsTerminal()
	default:
		return false
	}
}

// IsTerminal 任务是否已到终态
func (sm *TaskStateMachine) IsTerminal() bool {
	return sm.task.Status.IsTerminal()
}
