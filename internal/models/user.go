package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole 定义用户角色类型
type UserRole string

const (
	RoleAdmin   UserRole = "admin"   // 管理员
	RoleService UserRole = "service" // 系统/工作节点服务账号
	RoleUser    UserRole = "user"    // 普通用户
)

// User 表示平台用户，同时是配额与计费主体
// swagger:model
type User struct {
	ID         uint       `json:"id" gorm:"primarykey,autoIncrement"`            // 用户ID
	CreatedAt  time.Time  `json:"created_at"`                                    // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                                    // 更新时间
	DeletedAt  *time.Time `json:"deleted_at,omitempty" gorm:"index"`             // 删除时间
	Username   string     `json:"username" gorm:"size:100;not null;uniqueIndex"` // 用户名
	Email      string     `json:"email" gorm:"size:100;not null;uniqueIndex"`    // 电子邮件
	Password   string     `json:"-" gorm:"size:100;not null"`                    // 密码哈希（JSON序列化时不返回）
	Role       UserRole   `json:"role" gorm:"size:20;default:user"`              // 用户角色
	Credits    float64    `json:"credits" gorm:"not null;default:0"`             // 积分余额，>0 才允许认领任务
	AllowCloud bool       `json:"allow_cloud" gorm:"not null;default:true"`      // 是否允许云端执行(gpu/api)
	AllowLocal bool       `json:"allow_local" gorm:"not null;default:false"`     // 是否允许本地执行
}

// BeforeCreate 在创建用户前的钩子函数
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// 如果角色为空，设置为默认普通用户
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// AllowsRunType 判断用户是否开启了对应执行通道
func (u *User) AllowsRunType(runType RunType) bool {
	if runType == RunTypeLocal {
		return u.AllowLocal
	}
	return u.AllowCloud
}
