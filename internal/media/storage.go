package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("uploaded file is not an image")
	ErrTooLarge = errors.New("uploaded file is too large")
)

// Storage 帖子配图存储，返回相对 media 根目录的路径
type Storage interface {
	SavePostImage(r io.Reader) (string, error)
	// Remove 删除 SavePostImage 返回的文件，文件不存在不算错误
	Remove(rel string) error
}

// LocalStorage 写本地目录：<root>/posts/<uuid><ext>
type LocalStorage struct {
	root     string
	maxBytes int64
}

func NewLocalStorage(root string, maxBytes int64) *LocalStorage {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &LocalStorage{root: root, maxBytes: maxBytes}
}

func (s *LocalStorage) SavePostImage(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}

	rel := path.Join("posts", uuid.New().String()+mt.Extension())
	dst := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return rel, nil
}

func (s *LocalStorage) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if clean != rel || !strings.HasPrefix(clean, "posts/") {
		return fmt.Errorf("invalid media path %q", rel)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}
