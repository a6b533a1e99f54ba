package handlers

import (
	"errors"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/service"
	"github.com/banodoco/Reigh-sub002/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ShotHandler struct {
	shotService *service.ShotService
}

func NewShotHandler(shotService *service.ShotService) *ShotHandler {
	return &ShotHandler{
		shotService: shotService,
	}
}

// CreateShot godoc
// @Summary 创建镜头
// @Tags 镜头管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param shot body models.Shot true "镜头信息"
// @Success 200 {object} utils.Response{data=models.Shot}
// @Router /shots [post]
func (h *ShotHandler) CreateShot(c *gin.Context) {
	var shot models.Shot
	if err := c.ShouldBindJSON(&shot); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的镜头数据")
		return
	}

	callerID, callerRole := callerIdentity(c)
	if err := h.shotService.CreateShot(callerID, callerRole, &shot); err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, err.Error())
		return
	}

	utils.SuccessWithMessage(c, shot, "镜头创建成功")
}

// ListShots godoc
// @Summary 获取项目下的镜头列表
// @Tags 镜头管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param project_id query string true "项目ID"
// @Success 200 {object} utils.Response{data=[]models.Shot}
// @Router /shots [get]
func (h *ShotHandler) ListShots(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		utils.Error(c, utils.VALIDATION_ERROR, "缺少项目ID")
		return
	}

	callerID, callerRole := callerIdentity(c)
	shots, err := h.shotService.ListShots(callerID, callerRole, projectID)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.NOT_FOUND, "项目不存在")
		return
	}

	utils.Success(c, shots)
}

// AddGeneration godoc
// @Summary 把生成物关联到镜头
// @Description 生成物追加到镜头末尾，顺序号在镜头咨询锁保护下分配
// @Tags 镜头管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "镜头ID"
// @Success 200 {object} utils.Response{data=models.ShotGeneration}
// @Router /shots/{id}/generations [post]
func (h *ShotHandler) AddGeneration(c *gin.Context) {
	var req struct {
		GenerationID string `json:"generation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的关联数据")
		return
	}

	callerID, callerRole := callerIdentity(c)
	association, err := h.shotService.AddGeneration(callerID, callerRole, c.Param("id"), req.GenerationID)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.ERROR, err.Error())
		return
	}

	utils.SuccessWithMessage(c, association, "生成物关联成功")
}

// ListGenerations godoc
// @Summary 按顺序列出镜头内的生成物
// @Tags 镜头管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "镜头ID"
// @Success 200 {object} utils.Response{data=[]models.ShotGeneration}
// @Router /shots/{id}/generations [get]
func (h *ShotHandler) ListGenerations(c *gin.Context) {
	associations, err := h.shotService.ListGenerations(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ERROR, "获取镜头生成物失败")
		return
	}

	utils.Success(c, associations)
}
