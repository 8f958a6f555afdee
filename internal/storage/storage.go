// Package storage keeps uploaded post images on an afero filesystem.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// MaxImageSize 上传图片大小上限
const MaxImageSize = 5 << 20

var (
	ErrNotImage      = errors.New("uploaded file is not an image")
	ErrImageTooLarge = errors.New("uploaded image is too large")
)

// ImageStore 保存图片并返回可取回的引用（相对 media 根目录）
type ImageStore interface {
	Save(ctx context.Context, dir string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// FSStore 基于 afero.Fs 的实现，生产使用 OsFs，测试使用 MemMapFs
type FSStore struct {
	fs afero.Fs
}

func NewFSStore(fs afero.Fs) *FSStore { return &FSStore{fs: fs} }

// NewLocalStore 以 root 为根目录的本地磁盘存储
func NewLocalStore(root string) *FSStore {
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// Fs 暴露底层文件系统，用于静态文件服务
func (s *FSStore) Fs() afero.Fs { return s.fs }

func (s *FSStore) Save(ctx context.Context, dir string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	ref := path.Join(dir, uuid.NewString()+mt.Extension())
	if err := afero.WriteReader(s.fs, ref, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}
	return ref, nil
}

func (s *FSStore) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	err := s.fs.Remove(ref)
	if err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return err
	}
	return nil
}
