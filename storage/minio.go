package storage

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"estanteria_go/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore 把封面保存到 MinIO/S3 兼容存储
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	maxSize int64
}

// NewMinioStore 连接 MinIO 并确保 bucket 存在
func NewMinioStore(cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	scheme := "http"
	if cfg.MinioUseSSL {
		scheme = "https"
	}
	return &MinioStore{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: fmt.Sprintf("%s://%s/%s/", scheme, cfg.MinioEndpoint, cfg.MinioBucket),
		maxSize: cfg.MaxFileSize,
	}, nil
}

func (m *MinioStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ext, err := checkFile(file, m.maxSize)
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now()
	name := objectName(ext, now)
	_, err = m.client.PutObject(ctx, m.bucket, name, src, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-filename": file.Filename,
			"uploaded-at":       now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return m.baseURL + name, nil
}

func (m *MinioStore) Delete(ctx context.Context, ref string) error {
	name := strings.TrimPrefix(ref, m.baseURL)
	if name == "" || name == ref {
		return nil
	}
	if err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
