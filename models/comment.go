package models

import (
	"time"
)

// Comment 评论模型
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Contenido string    `gorm:"type:text;not null" json:"contenido"`
	UsuarioID uint      `gorm:"index;not null" json:"usuario_id"`
	Username  string    `gorm:"type:varchar(50)" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}
