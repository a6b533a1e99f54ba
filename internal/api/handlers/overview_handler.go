package handlers

import (
	"github.com/banodoco/Reigh-sub002/internal/repository"
	"github.com/banodoco/Reigh-sub002/internal/scheduler"
	"github.com/banodoco/Reigh-sub002/internal/service"
	"github.com/banodoco/Reigh-sub002/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OverviewHandler 处理系统概览相关的请求
type OverviewHandler struct {
	taskRepo        *repository.TaskRepository
	capacityService *scheduler.CapacityService
	monitorService  *service.MonitorService
}

// NewOverviewHandler 创建一个新的系统概览处理器
func NewOverviewHandler(taskRepo *repository.TaskRepository, capacityService *scheduler.CapacityService, monitorService *service.MonitorService) *OverviewHandler {
	return &OverviewHandler{
		taskRepo:        taskRepo,
		capacityService: capacityService,
		monitorService:  monitorService,
	}
}

// GetOverview godoc
// @Summary      获取系统概览
// @Description  返回任务队列各状态的数量统计与系统资源指标
// @Tags         系统监控
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  utils.Response
// @Failure      500  {object}  utils.Response
// @Router       /overview [get]
func (h *OverviewHandler) GetOverview(c *gin.Context) {
	counts, err := h.taskRepo.CountByStatus()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取任务统计失败: "+err.Error())
		return
	}

	metrics, err := h.monitorService.GetSystemMetrics()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取系统指标失败: "+err.Error())
		return
	}

	utils.Success(c, gin.H{
		"task_counts": counts,
		"system":      metrics,
	})
}

// GetCapacityStats godoc
// @Summary      获取各用户容量统计
// @Description  按用户返回排队、进行中任务数与余额状态，仅管理员可用
// @Tags         系统监控
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  utils.Response
// @Failure      500  {object}  utils.Response
// @Router       /admin/capacity/stats [get]
func (h *OverviewHandler) GetCapacityStats(c *gin.Context) {
	stats, err := h.capacityService.PerUserCapacityStats()
	if err != nil {
		utils.Error(c, utils.ERROR, "获取容量统计失败: "+err.Error())
		return
	}

	utils.Success(c, stats)
}
