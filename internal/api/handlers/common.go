package handlers

import (
	"github.com/banodoco/Reigh-sub002/internal/models"

	"github.com/gin-gonic/gin"
)

// callerIdentity 从认证中间件写入的上下文中取出调用方身份
func callerIdentity(c *gin.Context) (uint, models.UserRole) {
	userID, _ := c.Get("userID")
	role, _ := c.Get("role")

	id, _ := userID.(uint)
	roleStr, _ := role.(string)
	return id, models.UserRole(roleStr)
}
