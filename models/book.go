package models

import (
	"time"

	"gorm.io/gorm"
)

// 书籍状态
const (
	BookStatusForSale = "for sale"
	BookStatusSold    = "sold"
)

// Book 书籍模型（出售中的书）
type Book struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Nombre        string    `gorm:"type:varchar(200);not null;index" json:"nombre"`
	Autor         string    `gorm:"type:varchar(100);index" json:"autor"`
	Precio        string    `gorm:"type:varchar(50);not null" json:"precio"`
	Descripcion   string    `gorm:"type:text" json:"descripcion"`
	ISBN          string    `gorm:"column:isbn;type:varchar(50)" json:"isbn"`
	Fecha         time.Time `json:"fecha"`
	Imagen        string    `gorm:"type:varchar(255)" json:"imagen,omitempty"`
	Estado        string    `gorm:"type:varchar(20);default:'for sale';comment:for sale,sold" json:"estado"`
	UsuarioID     uint      `gorm:"index;not null" json:"usuario_id"`
	Vendedor      string    `gorm:"type:varchar(100)" json:"vendedor,omitempty"`
	EmailVendedor string    `gorm:"type:varchar(100)" json:"email_vendedor,omitempty"`
	URL           string    `gorm:"column:url;type:varchar(255);uniqueIndex;not null" json:"url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联关系
	Usuario *User `gorm:"foreignKey:UsuarioID" json:"usuario,omitempty"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// BeforeCreate 创建前钩子：生成唯一的 URL
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.URL == "" {
		b.URL = generateSlug(b.Nombre)
	}
	return nil
}

// IsOwnedBy 判断书籍是否属于该用户
func (b *Book) IsOwnedBy(userID uint) bool {
	return b.UsuarioID == userID
}
