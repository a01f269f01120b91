package models

import (
	"time"
)

// 用户角色
const (
	RoleOrdinary      = "ordinary"
	RoleAdministrator = "administrator"
)

// User 用户模型
type User struct {
	ID        uint      `gorm:"primaryKey;comment:用户ID" json:"id"`
	Username  string    `gorm:"type:varchar(50);uniqueIndex;not null;comment:用户名" json:"username"`
	Email     string    `gorm:"type:varchar(100);uniqueIndex;not null;comment:邮箱" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null;comment:密码" json:"-"` // 不返回给前端
	Fullname  string    `gorm:"type:varchar(150)" json:"fullname,omitempty"`
	Age       string    `gorm:"type:varchar(10)" json:"age,omitempty"`
	Phone     string    `gorm:"type:varchar(20);comment:手机号" json:"phone,omitempty"`
	Address   string    `gorm:"type:varchar(255)" json:"address,omitempty"`
	Role      string    `gorm:"type:varchar(20);default:'ordinary';comment:ordinary,administrator" json:"role"`
	CreatedAt time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"comment:更新时间" json:"updated_at"`

	// 关联关系
	Books []Book `gorm:"foreignKey:UsuarioID" json:"books,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdministrator
}
