package handlers

import (
	"errors"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/service"
	"github.com/banodoco/Reigh-sub002/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject godoc
// @Summary 创建项目
// @Tags 项目管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param project body models.Project true "项目信息"
// @Success 200 {object} utils.Response{data=models.Project}
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var project models.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的项目数据")
		return
	}

	callerID, _ := callerIdentity(c)
	if err := h.projectService.CreateProject(callerID, &project); err != nil {
		utils.Error(c, utils.ERROR, "创建项目失败")
		return
	}

	utils.SuccessWithMessage(c, project, "项目创建成功")
}

// GetProject godoc
// @Summary 获取项目详情
// @Tags 项目管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "项目ID"
// @Success 200 {object} utils.Response{data=models.Project}
// @Failure 403,404 {object} utils.Response
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	callerID, callerRole := callerIdentity(c)

	project, err := h.projectService.GetProject(callerID, callerRole, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.NOT_FOUND, "项目不存在")
		return
	}

	utils.Success(c, project)
}

// ListProjects godoc
// @Summary 获取当前用户的项目列表
// @Tags 项目管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=[]models.Project}
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	callerID, _ := callerIdentity(c)

	projects, err := h.projectService.ListProjects(callerID)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取项目列表失败")
		return
	}

	utils.Success(c, projects)
}

// ListGenerations godoc
// @Summary 获取项目下的生成物列表
// @Tags 项目管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "项目ID"
// @Success 200 {object} utils.Response{data=[]models.Generation}
// @Router /projects/{id}/generations [get]
func (h *ProjectHandler) ListGenerations(c *gin.Context) {
	callerID, callerRole := callerIdentity(c)

	generations, err := h.projectService.ListGenerations(callerID, callerRole, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			utils.Error(c, utils.FORBIDDEN, err.Error())
			return
		}
		utils.Error(c, utils.NOT_FOUND, "项目不存在")
		return
	}

	utils.Success(c, generations)
}
