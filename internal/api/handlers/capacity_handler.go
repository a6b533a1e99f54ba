package handlers

import (
	"strconv"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/scheduler"
	"github.com/banodoco/Reigh-sub002/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CapacityHandler 只读容量统计接口
type CapacityHandler struct {
	capacityService *scheduler.CapacityService
}

func NewCapacityHandler(capacityService *scheduler.CapacityService) *CapacityHandler {
	return &CapacityHandler{
		capacityService: capacityService,
	}
}

func capacityQuery(c *gin.Context) (bool, models.RunType) {
	includeActive := c.DefaultQuery("include_active", "false") == "true"
	runType := models.RunType(c.Query("run_type"))
	return includeActive, runType
}

// CountEligible godoc
// @Summary 全局可认领容量
// @Description 跨所有用户统计当前可认领的任务数，与认领路径同一判定口径
// @Tags 容量统计
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param include_active query bool false "是否计入执行中任务"
// @Param run_type query string false "执行通道筛选"
// @Success 200 {object} utils.Response
// @Router /worker/capacity [get]
func (h *CapacityHandler) CountEligible(c *gin.Context) {
	includeActive, runType := capacityQuery(c)

	count, err := h.capacityService.CountEligible(includeActive, runType)
	if err != nil {
		utils.Error(c, utils.ERROR, "容量统计失败")
		return
	}

	utils.Success(c, gin.H{"count": count})
}

// CountEligibleForUser godoc
// @Summary 指定用户可认领容量
// @Tags 容量统计
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Param include_active query bool false "是否计入执行中任务"
// @Param run_type query string false "执行通道筛选"
// @Success 200 {object} utils.Response
// @Router /worker/capacity/users/{id} [get]
func (h *CapacityHandler) CountEligibleForUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的用户ID")
		return
	}

	includeActive, runType := capacityQuery(c)
	count, err := h.capacityService.CountEligibleForUser(uint(id), includeActive, runType)
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "用户不存在")
		return
	}

	utils.Success(c, gin.H{"count": count})
}

// MyCapacity godoc
// @Summary 当前用户可认领容量
// @Tags 容量统计
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param include_active query bool false "是否计入执行中任务"
// @Param run_type query string false "执行通道筛选"
// @Success 200 {object} utils.Response
// @Router /capacity/me [get]
func (h *CapacityHandler) MyCapacity(c *gin.Context) {
	callerID, _ := callerIdentity(c)

	includeActive, runType := capacityQuery(c)
	count, err := h.capacityService.CountEligibleForUser(callerID, includeActive, runType)
	if err != nil {
		utils.Error(c, utils.ERROR, "容量统计失败")
		return
	}

	utils.Success(c, gin.H{"count": count})
}

// PerUserStats godoc
// @Summary 全用户容量统计
// @Description 面板用的逐用户统计：积分、排队数、执行中数、是否达上限
// @Tags 容量统计
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=[]scheduler.UserCapacityStats}
// @Router /worker/capacity/stats [get]
func (h *CapacityHandler) PerUserStats(c *gin.Context) {
	stats, err := h.capacityService.PerUserCapacityStats()
	if err != nil {
		utils.Error(c, utils.ERROR, "容量统计失败")
		return
	}

	utils.Success(c, stats)
}
