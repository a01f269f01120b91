package services

import (
	"context"
	"time"

	"estanteria_go/models"
	"estanteria_go/repository"
	"estanteria_go/utils"

	"go.uber.org/zap"
)

// CommentService 评论服务
type CommentService struct {
	comments repository.CommentRepository
	log      *zap.Logger
	now      func() time.Time
}

// NewCommentService 创建评论服务实例
func NewCommentService(comments repository.CommentRepository, log *zap.Logger) *CommentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentService{comments: comments, log: log, now: time.Now}
}

// CreateCommentRequest 发表评论请求
type CreateCommentRequest struct {
	Contenido string `form:"contenido" validate:"required"`
}

// CreateCommentMessages 评论为空的提示
var CreateCommentMessages = utils.FieldMessages{
	"contenido": "El comentario no puede estar vacío.",
}

// CommentListing 评论及其相对时间
type CommentListing struct {
	models.Comment
	Hace string
}

// Create 发表评论
func (cs *CommentService) Create(ctx context.Context, author *models.User, req *CreateCommentRequest) (*models.Comment, error) {
	comment := &models.Comment{
		Contenido: req.Contenido,
		UsuarioID: author.ID,
		Username:  author.Username,
	}
	if err := cs.comments.Create(ctx, comment); err != nil {
		cs.log.Error("create comment failed", zap.Uint("user_id", author.ID), zap.Error(err))
		return nil, err
	}
	return comment, nil
}

// List 全部评论，最新的在前
func (cs *CommentService) List(ctx context.Context) ([]CommentListing, error) {
	comments, err := cs.comments.FindAll(ctx)
	if err != nil {
		cs.log.Error("list comments failed", zap.Error(err))
		return nil, err
	}
	now := cs.now()
	out := make([]CommentListing, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentListing{Comment: c, Hace: utils.TimeAgo(c.CreatedAt, now)})
	}
	return out, nil
}
