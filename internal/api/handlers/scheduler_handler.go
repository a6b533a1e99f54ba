package handlers

import (
	"errors"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/scheduler"
	"github.com/banodoco/Reigh-sub002/internal/service"
	"github.com/banodoco/Reigh-sub002/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SchedulerHandler 工作节点专用接口：认领、完成、失败
type SchedulerHandler struct {
	schedulerService *scheduler.SchedulerService
	taskService      *service.TaskService
}

func NewSchedulerHandler(schedulerService *scheduler.SchedulerService, taskService *service.TaskService) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		taskService:      taskService,
	}
}

// ClaimRequest 认领请求
type ClaimRequest struct {
	WorkerID      string         `json:"worker_id" binding:"required"`
	IncludeActive bool           `json:"include_active"`
	RunType       models.RunType `json:"run_type"`
}

// ClaimNext godoc
// @Summary 认领下一个就绪任务
// @Description 原子认领一个就绪任务并返回执行信息；空队列返回 data=null
// @Tags 调度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param claim body ClaimRequest true "认领条件"
// @Success 200 {object} utils.Response{data=models.ClaimedTask}
// @Failure 409 {object} utils.Response
// @Router /worker/claim [post]
func (h *SchedulerHandler) ClaimNext(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的认领请求")
		return
	}

	claimed, err := h.schedulerService.ClaimNext(req.WorkerID, scheduler.ClaimFilter{
		IncludeActive: req.IncludeActive,
		RunType:       req.RunType,
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrClaimConflict) {
			utils.Error(c, utils.CONFLICT, "认领冲突，请稍后重试")
			return
		}
		utils.Error(c, utils.ERROR, "认领失败")
		return
	}

	// claimed 为 nil 表示当前没有就绪任务，属于正常空结果
	utils.Success(c, claimed)
}

// CompleteRequest 完成请求
type CompleteRequest struct {
	OutputLocation string `json:"output_location" binding:"required"`
}

// CompleteTask godoc
// @Summary 完成任务
// @Description 幂等完成任务并触发计费与生成物派生；重复调用返回 completed=false
// @Tags 调度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Param complete body CompleteRequest true "完成信息"
// @Success 200 {object} utils.Response
// @Router /worker/tasks/{id}/complete [post]
func (h *SchedulerHandler) CompleteTask(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的完成请求")
		return
	}

	completed, err := h.taskService.Complete(c.Param("id"), req.OutputLocation)
	if err != nil {
		if errors.Is(err, service.ErrMissingTimestamps) {
			utils.Error(c, utils.ERROR, "计费时间戳缺失，需回填后重试")
			return
		}
		utils.Error(c, utils.ERROR, "完成任务失败")
		return
	}

	utils.Success(c, gin.H{"completed": completed})
}

// FailRequest 失败上报请求
type FailRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FailTask godoc
// @Summary 上报任务失败
// @Description 幂等标记任务失败
// @Tags 调度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Param fail body FailRequest true "失败原因"
// @Success 200 {object} utils.Response
// @Router /worker/tasks/{id}/fail [post]
func (h *SchedulerHandler) FailTask(c *gin.Context) {
	var req FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的失败上报")
		return
	}

	failed, err := h.taskService.Fail(c.Param("id"), req.Reason)
	if err != nil {
		utils.Error(c, utils.ERROR, "标记任务失败出错")
		return
	}

	utils.Success(c, gin.H{"failed": failed})
}

// CancelTask godoc
// @Summary 系统侧取消任务
// @Description 以系统权限取消任意任务，存在已完成子任务时合成计费时间戳
// @Tags 调度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} utils.Response
// @Router /worker/tasks/{id}/cancel [post]
func (h *SchedulerHandler) CancelTask(c *gin.Context) {
	cancelled, err := h.taskService.Cancel(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ERROR, "取消任务失败")
		return
	}

	utils.Success(c, gin.H{"cancelled": cancelled})
}
