// Package storage 保存书籍封面图片（本地磁盘或 MinIO）
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"estanteria_go/config"

	"github.com/google/uuid"
)

// ImageStore 封面存储
type ImageStore interface {
	// Save 保存上传的图片，返回可直接用于页面的引用
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	// Delete 删除图片，引用不存在时不返回错误
	Delete(ctx context.Context, ref string) error
}

// ErrInvalidFile 上传的文件格式或大小不符合要求
var ErrInvalidFile = errors.New("invalid image file")

// 允许的图片格式
var allowedFormats = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// New 根据配置创建封面存储
func New(cfg *config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.UploadPath, cfg.MaxFileSize), nil
	case "minio":
		return NewMinioStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// checkFile 验证文件大小和格式，返回小写扩展名
func checkFile(file *multipart.FileHeader, maxSize int64) (string, error) {
	if maxSize > 0 && file.Size > maxSize {
		return "", fmt.Errorf("%w: size exceeds maximum allowed size of %d bytes", ErrInvalidFile, maxSize)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	for _, allowed := range allowedFormats {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: format %q is not allowed", ErrInvalidFile, ext)
}

// objectName 生成唯一文件名：portadas/2026/10/<uuid>.jpg
func objectName(ext string, now time.Time) string {
	return fmt.Sprintf("portadas/%d/%02d/%s%s", now.Year(), now.Month(), uuid.New().String(), ext)
}
