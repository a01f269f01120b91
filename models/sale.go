package models

import (
	"time"
)

// 发货状态
const (
	ShipmentPending = "pending"
)

// Sale 销售记录
type Sale struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookName   string    `gorm:"type:varchar(200);not null" json:"book_name"`
	BookAuthor string    `gorm:"type:varchar(100)" json:"book_author"`
	ISBN       string    `gorm:"column:isbn;type:varchar(50)" json:"isbn"`
	Price      string    `gorm:"type:varchar(50)" json:"price"`
	SellerID   uint      `gorm:"index;not null" json:"seller_id"`
	SellerName string    `gorm:"type:varchar(100)" json:"seller_name"`
	BuyerID    uint      `gorm:"index;not null" json:"buyer_id"`
	BuyerName  string    `gorm:"type:varchar(100)" json:"buyer_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Shipment 发货记录
type Shipment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SaleID    uint      `gorm:"index;not null" json:"sale_id"`
	BookName  string    `gorm:"type:varchar(200)" json:"book_name"`
	BuyerID   uint      `gorm:"index" json:"buyer_id"`
	BuyerName string    `gorm:"type:varchar(100)" json:"buyer_name"`
	Address   string    `gorm:"type:varchar(255)" json:"address"`
	Status    string    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (Sale) TableName() string {
	return "sales"
}

func (Shipment) TableName() string {
	return "shipments"
}

// NewSaleFromBook 根据书籍生成销售记录
func NewSaleFromBook(book *Book, buyer *User) *Sale {
	sellerName := book.Vendedor
	if sellerName == "" && book.Usuario != nil {
		sellerName = book.Usuario.Username
	}
	return &Sale{
		BookName:   book.Nombre,
		BookAuthor: book.Autor,
		ISBN:       book.ISBN,
		Price:      book.Precio,
		SellerID:   book.UsuarioID,
		SellerName: sellerName,
		BuyerID:    buyer.ID,
		BuyerName:  buyer.Username,
	}
}
