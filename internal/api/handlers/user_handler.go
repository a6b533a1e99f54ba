package handlers

import (
	"strconv"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/service"
	"github.com/banodoco/Reigh-sub002/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetUser godoc
// @Summary 获取用户详情
// @Description 根据ID获取用户信息，普通用户只能查询自己
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Success 200 {object} utils.Response{data=models.User}
// @Failure 404 {object} utils.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的用户ID")
		return
	}

	callerID, callerRole := callerIdentity(c)
	if callerRole == models.RoleUser && callerID != uint(id) {
		utils.Error(c, utils.FORBIDDEN, "无权查看其他用户")
		return
	}

	user, err := h.userService.GetUserByID(uint(id))
	if err != nil {
		utils.Error(c, utils.NOT_FOUND, "用户不存在")
		return
	}

	utils.Success(c, user)
}

// ListUsers godoc
// @Summary 获取用户列表
// @Description 获取所有用户列表，支持分页（仅管理员）
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param current query int false "页码(默认1)"
// @Param size query int false "每页数量(默认10)"
// @Success 200 {object} utils.Response{data=utils.PageResult{records=[]models.User}}
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	current, _ := strconv.Atoi(c.DefaultQuery("current", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	filters := make(map[string]interface{})
	if role := c.Query("role"); role != "" {
		filters["role"] = role
	}

	users, total, err := h.userService.ListUsers(current, size, filters)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取用户列表失败")
		return
	}

	utils.SuccessWithPage(c, users, current, size, total)
}

// CreateUser godoc
// @Summary 创建用户
// @Description 创建新用户（仅管理员）
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user body models.User true "用户信息"
// @Success 200 {object} utils.Response{data=models.User}
// @Failure 400 {object} utils.Response
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		Username   string          `json:"username" binding:"required"`
		Email      string          `json:"email" binding:"required"`
		Password   string          `json:"password" binding:"required"`
		Role       models.UserRole `json:"role"`
		Credits    float64         `json:"credits"`
		AllowCloud *bool           `json:"allow_cloud"`
		AllowLocal *bool           `json:"allow_local"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的用户数据")
		return
	}

	user := models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Credits:    req.Credits,
		AllowCloud: true,
	}
	if req.AllowCloud != nil {
		user.AllowCloud = *req.AllowCloud
	}
	if req.AllowLocal != nil {
		user.AllowLocal = *req.AllowLocal
	}

	if err := h.userService.CreateUser(&user); err != nil {
		utils.Error(c, utils.ERROR, err.Error())
		return
	}

	utils.SuccessWithMessage(c, user, "用户创建成功")
}

// GrantCredits godoc
// @Summary 发放积分
// @Description 给用户发放积分（仅管理员），积分没有用户侧写入口
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Router /admin/users/{id}/credits [post]
func (h *UserHandler) GrantCredits(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的用户ID")
		return
	}

	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的发放金额")
		return
	}

	if err := h.userService.GrantCredits(uint(id), req.Amount); err != nil {
		utils.Error(c, utils.ERROR, err.Error())
		return
	}

	utils.SuccessWithMessage(c, nil, "积分发放成功")
}

// MyCreditEntries godoc
// @Summary 获取计费流水
// @Description 获取当前用户的计费流水，按时间倒序
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回条数(默认50)"
// @Success 200 {object} utils.Response{data=[]models.CreditEntry}
// @Router /credits/me [get]
func (h *UserHandler) MyCreditEntries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	callerID, _ := callerIdentity(c)
	entries, err := h.userService.ListCreditEntries(callerID, limit)
	if err != nil {
		utils.Error(c, utils.ERROR, "获取计费流水失败")
		return
	}

	utils.Success(c, entries)
}

// UpdatePreferences godoc
// @Summary 更新执行通道偏好
// @Description 更新当前用户的云端/本地执行开关
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Router /users/me/preferences [patch]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req struct {
		AllowCloud bool `json:"allow_cloud"`
		AllowLocal bool `json:"allow_local"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.VALIDATION_ERROR, "无效的偏好设置")
		return
	}

	callerID, _ := callerIdentity(c)
	if err := h.userService.UpdateExecutionPrefs(callerID, req.AllowCloud, req.AllowLocal); err != nil {
		utils.Error(c, utils.ERROR, err.Error())
		return
	}

	utils.SuccessWithMessage(c, nil, "偏好更新成功")
}
