package services

import (
	"context"

	"estanteria_go/models"
	"estanteria_go/repository"
	"estanteria_go/utils"

	"go.uber.org/zap"
)

// UserService 用户资料服务
type UserService struct {
	users repository.UserRepository
	log   *zap.Logger
}

// NewUserService 创建用户服务实例
func NewUserService(users repository.UserRepository, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, log: log}
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Username string `form:"username" validate:"required"`
	Fullname string `form:"fullname" validate:"required"`
	Email    string `form:"email" validate:"required"`
	Age      string `form:"age" validate:"required"`
	Phone    string `form:"phone" validate:"required"`
	Address  string `form:"address" validate:"required"`
}

// UpdateProfileMessages 更新资料时字段为空的提示
var UpdateProfileMessages = utils.FieldMessages{
	"username": "El nombre de usuario no puede estar vacío.",
	"fullname": "El nombre completo no puede estar vacío.",
	"email":    "El correo electrónico no puede estar vacío.",
	"age":      "La edad no puede estar vacía.",
	"phone":    "El teléfono no puede estar vacío.",
	"address":  "La dirección no puede estar vacía.",
}

// MsgProfileUpdated 资料更新成功
const MsgProfileUpdated = "Tus datos han sido actualizados."

// UpdateProfile 更新当前用户资料，用户名和邮箱不能与其他账号重复
func (us *UserService) UpdateProfile(ctx context.Context, user *models.User, req *UpdateProfileRequest) (*models.User, error) {
	exists, err := us.users.ExistsByEmailOrUsername(ctx, req.Email, req.Username, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	fields := map[string]interface{}{
		"username": req.Username,
		"fullname": req.Fullname,
		"email":    req.Email,
		"age":      req.Age,
		"phone":    req.Phone,
		"address":  req.Address,
	}
	if err := us.users.Update(ctx, user.ID, fields); err != nil {
		us.log.Error("update profile failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	updated := *user
	updated.Username = req.Username
	updated.Fullname = req.Fullname
	updated.Email = req.Email
	updated.Age = req.Age
	updated.Phone = req.Phone
	updated.Address = req.Address
	return &updated, nil
}

// ListUsers 全部用户（管理员）
func (us *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := us.users.FindAll(ctx)
	if err != nil {
		us.log.Error("list users failed", zap.Error(err))
		return nil, err
	}
	return users, nil
}
