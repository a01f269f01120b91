package repository

import (
	"context"
	"fmt"

	"estanteria_go/models"

	"gorm.io/gorm"
)

type gormBookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建基于gorm的书籍存储
func NewBookRepository(db *gorm.DB) BookRepository {
	return &gormBookRepository{db: db}
}

func (r *gormBookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *gormBookRepository) FindAll(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.WithContext(ctx).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	return books, nil
}

func (r *gormBookRepository) FindAllByOwner(ctx context.Context, ownerID uint) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.WithContext(ctx).Where("usuario_id = ?", ownerID).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("find books of owner %d: %w", ownerID, err)
	}
	return books, nil
}

func (r *gormBookRepository) FindAllExceptOwner(ctx context.Context, ownerID uint) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.WithContext(ctx).Where("usuario_id <> ?", ownerID).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("find books except owner %d: %w", ownerID, err)
	}
	return books, nil
}

func (r *gormBookRepository) FindBySlug(ctx context.Context, slug string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("url = ?", slug).First(&book).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *gormBookRepository) FindByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *gormBookRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("update book %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormBookRepository) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	res := r.db.WithContext(ctx).Where("url = ?", slug).Delete(&models.Book{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete book %q: %w", slug, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormBookRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}
