package repository

import (
	"context"
	"fmt"

	"estanteria_go/models"

	"gorm.io/gorm"
)

type gormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建基于gorm的评论存储
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &gormCommentRepository{db: db}
}

func (r *gormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *gormCommentRepository) FindAll(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	return comments, nil
}
