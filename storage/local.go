package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore 把封面保存到本地目录，通过 /uploads 对外提供
type LocalStore struct {
	root    string
	maxSize int64
}

// NewLocalStore 创建本地存储
func NewLocalStore(root string, maxSize int64) *LocalStore {
	return &LocalStore{root: root, maxSize: maxSize}
}

// Root 存储根目录
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ext, err := checkFile(file, s.maxSize)
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	name := objectName(ext, time.Now())
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return "/uploads/" + name, nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	name := strings.TrimPrefix(ref, "/uploads/")
	if name == "" || strings.Contains(name, "..") {
		return nil
	}
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
