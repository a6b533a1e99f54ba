package handlers

import (
	"errors"
	"strconv"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/service"
	"github.com/banodoco/Reigh-sub002/pkg/utils"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTaskRequest 任务创建请求
//
// 请求体刻意不包含状态、worker 与计费时间戳字段，
// 这些字段只能经由系统权限路径写入。
type CreateTaskRequest struct {
	ProjectID          string  `json:"project_id" binding:"required"`
	TaskType           string  `json:"task_type" binding:"required"`
	Params             string  `json:"params"`
	DependantOnID      *string `json:"dependant_on_id"`
	OrchestratorTaskID *string `json:"orchestrator_task_id"`
}

// CreateTask godoc
// @Summary 创建任务
// @Description 在项目下创建一个排队任务
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param task body CreateTaskRequest true "任务信息"
// @Success 200 {object} utils.Response{data=models.Task}
// @Failure 400 {object} utils.Response
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的任务数据")
		return
	}

	callerID, callerRole := callerIdentity(c)

	task := models.Task{
		ProjectID:          req.ProjectID,
		TaskType:           req.TaskType,
		Params:             req.Params,
		DependantOnID:      req.DependantOnID,
		OrchestratorTaskID: req.OrchestratorTaskID,
	}

	if err := h.taskService.CreateTask(callerID, callerRole, &task); err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, err.Error())
		return
	}

	utils.SuccessWithMessage(c, task, "任务创建成功")
}

// GetTask godoc
// @Summary 获取任务详情
// @Description 根据ID获取任务详细信息
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} utils.Response{data=models.Task}
// @Failure 404 {object} utils.Response
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "任务不存在")
		return
	}

	utils.Success(c, task)
}

// ListTasks godoc
// @Summary 获取任务列表
// @Description 获取任务列表，支持分页和筛选
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param current query int false "页码(默认1)"
// @Param size query int false "每页数量(默认10)"
// @Param status query string false "状态筛选"
// @Param task_type query string false "类型筛选"
// @Param project_id query string false "项目筛选"
// @Success 200 {object} utils.Response{data=utils.PageResult{records=[]models.Task}}
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if taskType := c.Query("task_type"); taskType != "" {
		filters["task_type"] = taskType
	}
	if projectID := c.Query("project_id"); projectID != "" {
		filters["project_id"] = projectID
	}

	tasks, total, err := h.taskService.ListTasks(current, size, filters)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取任务列表失败")
		return
	}

	utils.SuccessWithPage(c, tasks, current, size, total)
}

// UpdateParams godoc
// @Summary 更新任务参数
// @Description 更新任务的执行参数，仅限任务归属用户；计费时间戳不可经由该接口触达
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} utils.Response
// @Failure 403,404 {object} utils.Response
// @Router /tasks/{id}/params [patch]
func (h *TaskHandler) UpdateParams(c *gin.Context) {
	var req struct {
		Params string `json:"params" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的参数数据")
		return
	}

	callerID, callerRole := callerIdentity(c)
	err := h.taskService.UpdateParams(callerID, callerRole, c.Param("id"), req.Params)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, err.Error())
		return
	}

	utils.SuccessWithMessage(c, nil, "参数更新成功")
}

// CancelTask godoc
// @Summary 取消任务
// @Description 取消自己的任务；存在部分可计费工作时照常对账
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /tasks/{id}/cancel [post]
func (h *TaskHandler) CancelTask(c *gin.Context) {
	callerID, callerRole := callerIdentity(c)

	cancelled, err := h.taskService.CancelOwned(callerID, callerRole, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, "取消任务失败")
		return
	}

	utils.Success(c, gin.H{"cancelled": cancelled})
}
