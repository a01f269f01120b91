// Package repository 封装对数据库的访问（gorm）
package repository

import (
	"context"
	"errors"

	"estanteria_go/models"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// BookRepository 书籍存储
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindAll(ctx context.Context) ([]models.Book, error)
	FindAllByOwner(ctx context.Context, ownerID uint) ([]models.Book, error)
	FindAllExceptOwner(ctx context.Context, ownerID uint) ([]models.Book, error)
	FindBySlug(ctx context.Context, slug string) (*models.Book, error)
	FindByID(ctx context.Context, id uint) (*models.Book, error)
	// Update 按 id 更新指定字段，返回受影响的行数
	Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error)
	// DeleteBySlug 按 url 删除，返回受影响的行数
	DeleteBySlug(ctx context.Context, slug string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// UserRepository 用户存储
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string, exceptID uint) (bool, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	FindAll(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// CommentRepository 评论存储
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindAll(ctx context.Context) ([]models.Comment, error)
}

// SaleRepository 销售与发货存储
type SaleRepository interface {
	// Purchase 在一个事务里记录销售、发货并删除书籍，返回删除的行数
	Purchase(ctx context.Context, book *models.Book, buyer *models.User) (int64, error)
	FindAll(ctx context.Context) ([]models.Sale, error)
	FindBySeller(ctx context.Context, sellerID uint) ([]models.Sale, error)
	FindByBuyer(ctx context.Context, buyerID uint) ([]models.Sale, error)
	FindShipments(ctx context.Context) ([]models.Shipment, error)
	DeleteShipment(ctx context.Context, id uint) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountPendingShipments(ctx context.Context) (int64, error)
}

// translate 把 gorm 的 not found 转换为 ErrNotFound
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
