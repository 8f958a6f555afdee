package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// RelationshipService 关注关系
type RelationshipService interface {
	// Follow 关注 username；已关注时为空操作，关注自己返回 ErrFollowSelf 且不写入
	Follow(ctx context.Context, followerID uint, username string) (*model.User, error)
	// Unfollow 取消关注；关系不存在时为空操作
	Unfollow(ctx context.Context, followerID uint, username string) (*model.User, error)
}

type relationshipService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
}

func NewRelationshipService(db *gorm.DB, userRepo repository.UserRepository) RelationshipService {
	return &relationshipService{db: db, userRepo: userRepo}
}

func (s *relationshipService) Follow(ctx context.Context, followerID uint, username string) (*model.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	if followerID == author.ID {
		return author, ErrFollowSelf
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewFollowRepository(tx).Create(ctx, followerID, author.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("follow %s: %w", username, err)
	}
	return author, nil
}

func (s *relationshipService) Unfollow(ctx context.Context, followerID uint, username string) (*model.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewFollowRepository(tx).Delete(ctx, followerID, author.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("unfollow %s: %w", username, err)
	}
	return author, nil
}
