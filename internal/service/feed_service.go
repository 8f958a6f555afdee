package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/paginator"
)

// PostPage 一页帖子
type PostPage = paginator.Page[*model.Post]

// GroupFeed 分组页
type GroupFeed struct {
	Group *model.Group
	Posts PostPage
}

// ProfileFeed 作者主页
type ProfileFeed struct {
	Author         *model.User
	Posts          PostPage
	PostCount      int64
	FollowerCount  int64
	FollowingCount int64
	// Following 当前登录用户是否已关注该作者；匿名访问时恒为 false
	Following bool
	// IsSelf 登录用户正在看自己的主页
	IsSelf bool
}

// PostDetail 帖子详情
type PostDetail struct {
	Post      *model.Post
	Comments  []*model.Comment
	PostCount int64 // 作者的帖子总数
}

// FeedService 按浏览上下文组装帖子列表
type FeedService interface {
	Index(ctx context.Context, page string) (PostPage, error)
	Group(ctx context.Context, slug, page string) (*GroupFeed, error)
	Profile(ctx context.Context, username string, viewer *model.User, page string) (*ProfileFeed, error)
	Post(ctx context.Context, id uint) (*PostDetail, error)
	// Follow 登录用户关注的作者的帖子
	Follow(ctx context.Context, viewerID uint, page string) (PostPage, error)
}

type feedService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	perPage     int
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	followRepo repository.FollowRepository,
	perPage int,
) FeedService {
	if perPage <= 0 {
		perPage = paginator.DefaultPerPage
	}
	return &feedService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		followRepo:  followRepo,
		perPage:     perPage,
	}
}

func (s *feedService) Index(ctx context.Context, page string) (PostPage, error) {
	return s.page(ctx, repository.PostFilter{}, page)
}

func (s *feedService) Group(ctx context.Context, slug, page string) (*GroupFeed, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	posts, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Posts: posts}, nil
}

func (s *feedService) Profile(ctx context.Context, username string, viewer *model.User, page string) (*ProfileFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	posts, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}
	feed := &ProfileFeed{Author: author, Posts: posts, PostCount: posts.Count}

	if feed.FollowerCount, err = s.followRepo.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if feed.FollowingCount, err = s.followRepo.CountFollowings(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewer != nil {
		feed.IsSelf = viewer.ID == author.ID
		if !feed.IsSelf {
			if feed.Following, err = s.followRepo.Exists(ctx, viewer.ID, author.ID); err != nil {
				return nil, err
			}
		}
	}
	return feed, nil
}

func (s *feedService) Post(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, PostCount: count}, nil
}

func (s *feedService) Follow(ctx context.Context, viewerID uint, page string) (PostPage, error) {
	return s.page(ctx, repository.PostFilter{FollowerID: viewerID}, page)
}

func (s *feedService) page(ctx context.Context, f repository.PostFilter, raw string) (PostPage, error) {
	count, err := s.postRepo.Count(ctx, f)
	if err != nil {
		return PostPage{}, fmt.Errorf("count posts: %w", err)
	}
	meta := paginator.New(count, s.perPage).GetPage(raw)
	items := []*model.Post{}
	if meta.Limit > 0 {
		if items, err = s.postRepo.List(ctx, f, meta.Offset, meta.Limit); err != nil {
			return PostPage{}, fmt.Errorf("list posts: %w", err)
		}
	}
	return PostPage{Items: items, Meta: meta}, nil
}
