package service

import (
	"errors"

	"github.com/banodoco/Reigh-sub002/internal/models"
	"github.com/banodoco/Reigh-sub002/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo   *repository.UserRepository
	creditRepo *repository.CreditRepository
}

func NewUserService(userRepo *repository.UserRepository, creditRepo *repository.CreditRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		creditRepo: creditRepo,
	}
}

func (s *UserService) CreateUser(user *models.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	// 对密码进行加密
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)

	return s.userRepo.CreateUser(user)
}

// ValidateUser 验证用户登录
func (s *UserService) ValidateUser(username, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, errors.New("用户名不存在")
	}

	// 验证密码
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, errors.New("用户名或密码错误")
	}

	return user, nil
}

// GetUserByID 根据用户ID获取用户信息
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	return s.userRepo.FindByID(id)
}

// ListUsers 获取用户列表（仅管理员可用）
func (s *UserService) ListUsers(current, size int, filters map[string]interface{}) ([]models.User, int64, error) {
	offset := (current - 1) * size
	return s.userRepo.List(offset, size, filters)
}

// GrantCredits 管理员发放积分
//
// 积分余额没有用户侧写入口，发放与计费扣减是仅有的两条变动路径。
func (s *UserService) GrantCredits(userID uint, amount float64) error {
	if amount <= 0 {
		return errors.New("发放金额必须为正数")
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return errors.New("用户不存在")
	}
	return s.userRepo.AddCredits(userID, amount)
}

// UpdateExecutionPrefs 更新用户的执行通道偏好
func (s *UserService) UpdateExecutionPrefs(userID uint, allowCloud, allowLocal bool) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return errors.New("用户不存在")
	}
	user.AllowCloud = allowCloud
	user.AllowLocal = allowLocal
	return s.userRepo.Save(user)
}

// ListCreditEntries 获取用户的计费流水，按时间倒序
func (s *UserService) ListCreditEntries(userID uint, limit int) ([]models.CreditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.creditRepo.ListByUser(userID, limit)
}

// IsAdmin 检查用户是否为管理员
func (s *UserService) IsAdmin(userID uint) (bool, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return false, err
	}
	return user.Role == models.RoleAdmin, nil
}
