package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// CommentService 评论写操作
type CommentService interface {
	Add(ctx context.Context, authorID, postID uint, text string) (*model.Comment, error)
}

type commentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) CommentService { return &commentService{db: db} }

func (s *commentService) Add(ctx context.Context, authorID, postID uint, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	var comment *model.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewPostRepository(tx).GetByID(ctx, postID); err != nil {
			return notFound(err)
		}
		comment = &model.Comment{PostID: postID, AuthorID: authorID, Text: text}
		return repository.NewCommentRepository(tx).Create(ctx, comment)
	})
	if err != nil {
		return nil, fmt.Errorf("add comment to post %d: %w", postID, err)
	}
	return comment, nil
}
