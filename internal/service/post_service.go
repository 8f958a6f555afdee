package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const imageDir = "posts"

var tracer = otel.Tracer("github.com/d60-Lab/yatube/internal/service")

// PostInput 创建/编辑表单提交的内容
type PostInput struct {
	Text    string
	GroupID *uint
	// Image 为 nil 表示未上传新图片；编辑时保留原图
	Image io.Reader
}

// PostService 帖子写操作
type PostService interface {
	Create(ctx context.Context, authorID uint, in PostInput) (*model.Post, error)
	// GetForEdit 非作者返回 ErrNotAuthor
	GetForEdit(ctx context.Context, editorID, postID uint) (*model.Post, error)
	Update(ctx context.Context, editorID, postID uint, in PostInput) (*model.Post, error)
	Delete(ctx context.Context, editorID, postID uint) (*model.Post, error)
	Groups(ctx context.Context) ([]*model.Group, error)
}

type postService struct {
	db        *gorm.DB
	groupRepo repository.GroupRepository
	images    storage.ImageStore
}

func NewPostService(db *gorm.DB, groupRepo repository.GroupRepository, images storage.ImageStore) PostService {
	return &postService{db: db, groupRepo: groupRepo, images: images}
}

// Create 在一个事务内落地图片与帖子；插入失败时删除已保存的图片
func (s *postService) Create(ctx context.Context, authorID uint, in PostInput) (*model.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Create")
	defer span.End()

	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyText
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}
	ref, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Text:     strings.TrimSpace(in.Text),
		AuthorID: authorID,
		GroupID:  in.GroupID,
		Image:    ref,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewPostRepository(tx).Create(ctx, post)
	})
	if err != nil {
		s.discardImage(ctx, ref)
		return nil, fmt.Errorf("create post: %w", err)
	}
	span.SetAttributes(attribute.Int("post.id", int(post.ID)))
	logger.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("author_id", authorID))
	return post, nil
}

func (s *postService) GetForEdit(ctx context.Context, editorID, postID uint) (*model.Post, error) {
	post, err := repository.NewPostRepository(s.db).GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	if post.AuthorID != editorID {
		return post, ErrNotAuthor
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, editorID, postID uint, in PostInput) (*model.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Update")
	defer span.End()

	post, err := s.GetForEdit(ctx, editorID, postID)
	if err != nil {
		return post, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return post, ErrEmptyText
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return post, err
	}
	ref, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return post, err
	}

	old := post.Image
	post.Text = strings.TrimSpace(in.Text)
	post.GroupID = in.GroupID
	if ref != "" {
		post.Image = ref
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewPostRepository(tx).UpdateContent(ctx, post)
	})
	if err != nil {
		s.discardImage(ctx, ref)
		return nil, fmt.Errorf("update post %d: %w", postID, err)
	}
	if ref != "" && old != "" {
		s.discardImage(ctx, old)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, editorID, postID uint) (*model.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Delete", trace.WithAttributes(attribute.Int("post.id", int(postID))))
	defer span.End()

	post, err := s.GetForEdit(ctx, editorID, postID)
	if err != nil {
		return post, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewPostRepository(tx).Delete(ctx, post.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("delete post %d: %w", postID, err)
	}
	s.discardImage(ctx, post.Image)
	logger.Info("post deleted", zap.Uint("post_id", post.ID), zap.Uint("author_id", editorID))
	return post, nil
}

func (s *postService) Groups(ctx context.Context) ([]*model.Group, error) {
	return s.groupRepo.List(ctx)
}

func (s *postService) checkGroup(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.groupRepo.GetByID(ctx, *id); err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return ErrUnknownGroup
		}
		return err
	}
	return nil
}

func (s *postService) saveImage(ctx context.Context, r io.Reader) (string, error) {
	if r == nil || s.images == nil {
		return "", nil
	}
	return s.images.Save(ctx, imageDir, r)
}

func (s *postService) discardImage(ctx context.Context, ref string) {
	if ref == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		logger.Warn("remove image failed", zap.String("ref", ref), zap.Error(err))
	}
}
