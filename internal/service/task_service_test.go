package service

import (
	"errors"
	"testing"
	"time"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/pkg/database"

	"gorm.io/gorm"
)

func seedTask(t *testing.T, db *gorm.DB, projectID, taskType string, status models.TaskStatus) *models.Task {
	t.Helper()
	task := &models.Task{
		ProjectID: projectID,
		TaskType:  taskType,
		Status:    status,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	return task
}

func seedInProgressTask(t *testing.T, db *gorm.DB, projectID, taskType string, startedAgo time.Duration) *models.Task {
	t.Helper()
	task := seedTask(t, db, projectID, taskType, models.TaskStatusInProgress)
	started := time.Now().Add(-startedAgo)
	worker := "worker-1"
	if err := db.Model(task).Updates(map[string]interface{}{
		"generation_started_at": started,
		"worker_id":             worker,
	}).Error; err != nil {
		t.Fatalf("预置执行中状态失败: %v", err)
	}
	task.GenerationStartedAt = &started
	task.WorkerID = &worker
	return task
}

// TestCompleteIdempotent 完成是幂等的：重复调用只产生一次副作用
func TestCompleteIdempotent(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedInProgressTask(t, db, project.ID, "image_generation", 10*time.Second)

	done, err := svc.Complete(task.ID, "s3://bucket/output.png")
	if err != nil {
		t.Fatalf("完成失败: %v", err)
	}
	if !done {
		t.Fatal("首次完成应返回 true")
	}

	// 重复完成：无操作，不报错
	done, err = svc.Complete(task.ID, "s3://bucket/other.png")
	if err != nil {
		t.Fatalf("重复完成报错: %v", err)
	}
	if done {
		t.Error("重复完成应返回 false")
	}

	var got models.Task
	if err := db.First(&got, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("查询任务失败: %v", err)
	}
	if got.Status != models.TaskStatusComplete {
		t.Errorf("期望状态 complete, 实际 %s", got.Status)
	}
	if got.OutputLocation != "s3://bucket/output.png" {
		t.Errorf("重复完成不应改写产物位置: %s", got.OutputLocation)
	}
	if !got.GenerationCreated {
		t.Error("完成后应置位 generation_created")
	}

	var genCount, entryCount, eventCount int64
	db.Model(&models.Generation{}).Where("task_id = ?", task.ID).Count(&genCount)
	db.Model(&models.CreditEntry{}).Where("task_id = ?", task.ID).Count(&entryCount)
	db.Model(&models.OutboxEvent{}).Where("task_id = ?", task.ID).Count(&eventCount)
	if genCount != 1 {
		t.Errorf("期望 1 条生成物记录, 实际 %d", genCount)
	}
	if entryCount != 1 {
		t.Errorf("期望 1 条计费流水, 实际 %d", entryCount)
	}
	if eventCount != 1 {
		t.Errorf("期望 1 条发件箱事件, 实际 %d", eventCount)
	}

	var gotUser models.User
	if err := db.First(&gotUser, user.ID).Error; err != nil {
		t.Fatalf("查询用户失败: %v", err)
	}
	if gotUser.Credits >= 100 {
		t.Errorf("完成后应扣费, 余额仍为 %v", gotUser.Credits)
	}
}

// TestCompleteMissingStartTimestamp 计费时间戳缺失时完成事务整体回滚
func TestCompleteMissingStartTimestamp(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedTask(t, db, project.ID, "image_generation", models.TaskStatusInProgress)

	done, err := svc.Complete(task.ID, "s3://bucket/output.png")
	if !errors.Is(err, ErrMissingTimestamps) {
		t.Fatalf("期望 ErrMissingTimestamps, 实际 %v", err)
	}
	if done {
		t.Error("计费失败的完成不应返回 true")
	}

	var got models.Task
	if err := db.First(&got, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("查询任务失败: %v", err)
	}
	if got.Status != models.TaskStatusInProgress {
		t.Errorf("回滚后状态应保持 in_progress, 实际 %s", got.Status)
	}

	var genCount int64
	db.Model(&models.Generation{}).Where("task_id = ?", task.ID).Count(&genCount)
	if genCount != 0 {
		t.Error("回滚后不应存在生成物记录")
	}
}

// TestCompleteRequiresInProgress 排队中的任务不能直接完成，按无操作处理
func TestCompleteRequiresInProgress(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued)

	done, err := svc.Complete(task.ID, "s3://bucket/output.png")
	if err != nil || done {
		t.Fatalf("排队任务的完成应为无操作: done=%v, err=%v", done, err)
	}

	var got models.Task
	db.First(&got, "id = ?", task.ID)
	if got.Status != models.TaskStatusQueued {
		t.Errorf("状态不应改变, 实际 %s", got.Status)
	}
}

// TestCompleteUnknownTask 不存在的任务按无操作处理
func TestCompleteUnknownTask(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	done, err := svc.Complete("no-such-task", "s3://bucket/output.png")
	if err != nil || done {
		t.Fatalf("不存在任务的完成应为无操作: done=%v, err=%v", done, err)
	}
}

// TestFailIdempotent 失败标记幂等，记录失败原因并写发件箱事件
func TestFailIdempotent(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedInProgressTask(t, db, project.ID, "image_generation", 5*time.Second)

	failed, err := svc.Fail(task.ID, "CUDA out of memory")
	if err != nil || !failed {
		t.Fatalf("失败标记出错: failed=%v, err=%v", failed, err)
	}
	failed, err = svc.Fail(task.ID, "另一个原因")
	if err != nil || failed {
		t.Fatalf("重复失败标记应为无操作: failed=%v, err=%v", failed, err)
	}

	var got models.Task
	db.First(&got, "id = ?", task.ID)
	if got.Status != models.TaskStatusFailed {
		t.Errorf("期望状态 failed, 实际 %s", got.Status)
	}
	if got.ErrorMessage != "CUDA out of memory" {
		t.Errorf("失败原因被改写: %s", got.ErrorMessage)
	}
	if got.GenerationProcessedAt == nil {
		t.Error("失败时应回填计费结束时间")
	}

	var event models.OutboxEvent
	if err := db.First(&event, "task_id = ?", task.ID).Error; err != nil {
		t.Fatalf("查询发件箱事件失败: %v", err)
	}
	if event.EventType != models.EventTaskFailed {
		t.Errorf("期望事件 %s, 实际 %s", models.EventTaskFailed, event.EventType)
	}
}

// TestCancelQueuedNoBilling 排队中取消没有计费依据，不产生流水
func TestCancelQueuedNoBilling(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued)

	cancelled, err := svc.Cancel(task.ID)
	if err != nil || !cancelled {
		t.Fatalf("取消失败: cancelled=%v, err=%v", cancelled, err)
	}

	var got models.Task
	db.First(&got, "id = ?", task.ID)
	if got.Status != models.TaskStatusCancelled {
		t.Errorf("期望状态 cancelled, 实际 %s", got.Status)
	}

	var entryCount int64
	db.Model(&models.CreditEntry{}).Where("task_id = ?", task.ID).Count(&entryCount)
	if entryCount != 0 {
		t.Error("排队中取消不应产生计费流水")
	}

	var gotUser models.User
	db.First(&gotUser, user.ID)
	if gotUser.Credits != 100 {
		t.Errorf("排队中取消不应扣费, 余额 %v", gotUser.Credits)
	}

	// 重复取消为无操作
	cancelled, err = svc.Cancel(task.ID)
	if err != nil || cancelled {
		t.Fatalf("重复取消应为无操作: cancelled=%v, err=%v", cancelled, err)
	}
}

// TestCancelInProgressBillsPartialWork 执行中取消按已执行时长计费
func TestCancelInProgressBillsPartialWork(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedInProgressTask(t, db, project.ID, "image_generation", 10*time.Second)

	cancelled, err := svc.Cancel(task.ID)
	if err != nil || !cancelled {
		t.Fatalf("取消失败: cancelled=%v, err=%v", cancelled, err)
	}

	var got models.Task
	db.First(&got, "id = ?", task.ID)
	if got.Status != models.TaskStatusCancelled {
		t.Errorf("期望状态 cancelled, 实际 %s", got.Status)
	}
	if got.GenerationProcessedAt == nil {
		t.Error("执行中取消应合成计费结束时间")
	}

	var entry models.CreditEntry
	if err := db.First(&entry, "task_id = ?", task.ID).Error; err != nil {
		t.Fatalf("执行中取消应产生计费流水: %v", err)
	}
	if entry.Amount >= 0 {
		t.Errorf("流水金额应为负数, 实际 %v", entry.Amount)
	}
}

// TestCancelOrchestratorSynthesizesTimestamps 取消编排任务时从已完成子任务合成起始时间
func TestCancelOrchestratorSynthesizesTimestamps(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "video_travel_orchestrator", models.BillingPerSecond, 0.2, true)
	seedTaskType(t, db, "video_travel_segment", models.BillingPerSecond, 0.5, false)

	// 编排任务自身没有计费起始时间
	orch := seedTask(t, db, project.ID, "video_travel_orchestrator", models.TaskStatusInProgress)

	earliest := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	later := earliest.Add(5 * time.Minute)
	for _, started := range []time.Time{later, earliest} {
		child := seedTask(t, db, project.ID, "video_travel_segment", models.TaskStatusComplete)
		processed := started.Add(time.Minute)
		if err := db.Model(child).Updates(map[string]interface{}{
			"orchestrator_task_id":    orch.ID,
			"generation_started_at":   started,
			"generation_processed_at": processed,
		}).Error; err != nil {
			t.Fatalf("预置子任务失败: %v", err)
		}
	}

	cancelled, err := svc.Cancel(orch.ID)
	if err != nil || !cancelled {
		t.Fatalf("取消编排任务失败: cancelled=%v, err=%v", cancelled, err)
	}

	var got models.Task
	db.First(&got, "id = ?", orch.ID)
	if got.Status != models.TaskStatusCancelled {
		t.Errorf("期望状态 cancelled, 实际 %s", got.Status)
	}
	if got.GenerationStartedAt == nil || !got.GenerationStartedAt.Equal(earliest) {
		t.Errorf("起始时间应取最早完成子任务的起始时间 %v, 实际 %v", earliest, got.GenerationStartedAt)
	}
	if got.GenerationProcessedAt == nil {
		t.Error("取消时应合成计费结束时间")
	}

	var entry models.CreditEntry
	if err := db.First(&entry, "task_id = ?", orch.ID).Error; err != nil {
		t.Fatalf("合成时间戳后应完成计费对账: %v", err)
	}
	if entry.Amount >= 0 {
		t.Errorf("流水金额应为负数, 实际 %v", entry.Amount)
	}
}

// TestCancelOrchestratorWithoutChildren 没有已完成子任务的编排取消不计费
func TestCancelOrchestratorWithoutChildren(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "video_travel_orchestrator", models.BillingPerSecond, 0.2, true)
	orch := seedTask(t, db, project.ID, "video_travel_orchestrator", models.TaskStatusInProgress)

	cancelled, err := svc.Cancel(orch.ID)
	if err != nil || !cancelled {
		t.Fatalf("取消失败: cancelled=%v, err=%v", cancelled, err)
	}

	var entryCount int64
	db.Model(&models.CreditEntry{}).Where("task_id = ?", orch.ID).Count(&entryCount)
	if entryCount != 0 {
		t.Error("无计费依据的取消不应产生流水")
	}
}

// TestCreateTaskClearsProtectedFields 创建入口清零受保护字段
func TestCreateTaskClearsProtectedFields(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	user := seedUser(t, db, "alice", 100)
	project := seedProject(t, db, user.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)

	now := time.Now()
	worker := "rogue-worker"
	task := &models.Task{
		ProjectID:             project.ID,
		TaskType:              "image_generation",
		Status:                models.TaskStatusComplete,
		WorkerID:              &worker,
		GenerationStartedAt:   &now,
		GenerationProcessedAt: &now,
		GenerationCreated:     true,
		OutputLocation:        "s3://forged",
	}
	if err := svc.CreateTask(user.ID, models.RoleUser, task); err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}

	var got models.Task
	db.First(&got, "id = ?", task.ID)
	if got.Status != models.TaskStatusQueued {
		t.Errorf("新任务状态应为 queued, 实际 %s", got.Status)
	}
	if got.WorkerID != nil || got.GenerationStartedAt != nil || got.GenerationProcessedAt != nil {
		t.Error("受保护字段未被清零")
	}
	if got.GenerationCreated || got.OutputLocation != "" {
		t.Error("完成标记与产物位置未被清零")
	}
}

// TestCreateTaskOwnership 普通用户只能在自己的项目下创建任务
func TestCreateTaskOwnership(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	alice := seedUser(t, db, "alice", 100)
	bob := seedUser(t, db, "bob", 100)
	aliceProject := seedProject(t, db, alice.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)

	task := &models.Task{ProjectID: aliceProject.ID, TaskType: "image_generation"}
	if err := svc.CreateTask(bob.ID, models.RoleUser, task); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("期望 ErrPermissionDenied, 实际 %v", err)
	}

	// 管理员不受归属限制
	task = &models.Task{ProjectID: aliceProject.ID, TaskType: "image_generation"}
	if err := svc.CreateTask(bob.ID, models.RoleAdmin, task); err != nil {
		t.Errorf("管理员创建失败: %v", err)
	}
}

// TestUpdateParamsOwnership 参数编辑的归属与终态校验
func TestUpdateParamsOwnership(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	alice := seedUser(t, db, "alice", 100)
	bob := seedUser(t, db, "bob", 100)
	project := seedProject(t, db, alice.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued)

	if err := svc.UpdateParams(bob.ID, models.RoleUser, task.ID, `{"steps":30}`); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("期望 ErrPermissionDenied, 实际 %v", err)
	}
	if err := svc.UpdateParams(alice.ID, models.RoleUser, task.ID, `{"steps":30}`); err != nil {
		t.Errorf("归属用户编辑参数失败: %v", err)
	}

	var got models.Task
	db.First(&got, "id = ?", task.ID)
	if got.Params != `{"steps":30}` {
		t.Errorf("参数未更新: %s", got.Params)
	}

	// 终态任务参数不可修改
	db.Model(&got).Update("status", models.TaskStatusComplete)
	if err := svc.UpdateParams(alice.ID, models.RoleUser, task.ID, `{}`); err == nil {
		t.Error("终态任务的参数编辑应失败")
	}
}

// TestCancelOwned 用户侧取消的归属检查
func TestCancelOwned(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewTaskService(db, NewBillingService())

	alice := seedUser(t, db, "alice", 100)
	bob := seedUser(t, db, "bob", 100)
	project := seedProject(t, db, alice.ID)
	seedTaskType(t, db, "image_generation", models.BillingPerSecond, 0.5, false)
	task := seedTask(t, db, project.ID, "image_generation", models.TaskStatusQueued)

	if _, err := svc.CancelOwned(bob.ID, models.RoleUser, task.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("期望 ErrPermissionDenied, 实际 %v", err)
	}
	cancelled, err := svc.CancelOwned(alice.ID, models.RoleUser, task.ID)
	if err != nil || !cancelled {
		t.Fatalf("归属用户取消失败: cancelled=%v, err=%v", cancelled, err)
	}
}
