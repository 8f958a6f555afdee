package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

type options struct {
	Users    int
	Posts    int
	Password string
}

type summary struct {
	Users        int
	PostsCreated int
	Group        string
}

// seed 为本地开发填充用户、分组、帖子与关注关系，可重复执行
func main() {
	cfg := must(config.Load())
	_ = logger.Init(cfg.Log.Level, "console")
	defer logger.Sync()
	db := must(database.InitDB(cfg))

	opts := options{
		Users:    envInt("USERS", 5),
		Posts:    envInt("POSTS", 13),
		Password: os.Getenv("SEED_PASSWORD"),
	}
	if opts.Password == "" {
		opts.Password = "password123"
	}

	res, err := seed(context.Background(), db, cfg.Auth, opts)
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	logger.Info("seed done",
		zap.Int("users", res.Users),
		zap.Int("posts_created", res.PostsCreated),
		zap.String("group", res.Group),
	)
}

// seed 已存在的用户与分组直接复用；user0 已有帖子时不再新增
func seed(ctx context.Context, db *gorm.DB, auth config.AuthConfig, opts options) (summary, error) {
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	authSvc := service.NewAuthService(userRepo, auth.JWTSecret, auth.TokenTTL)
	postSvc := service.NewPostService(db, groupRepo, nil)
	relSvc := service.NewRelationshipService(db, userRepo)

	// user0 是被所有人关注的作者
	users := make([]*model.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		name := fmt.Sprintf("user%d", i)
		u, err := authSvc.SignUp(ctx, service.SignUpInput{
			Username: name,
			Email:    name + "@example.com",
			Password: opts.Password,
		})
		if errors.Is(err, service.ErrUsernameTaken) {
			u, err = userRepo.GetByUsername(ctx, name)
		}
		if err != nil {
			return summary{}, fmt.Errorf("user %s: %w", name, err)
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return summary{}, errors.New("no users to seed")
	}

	group, err := groupRepo.GetBySlug(ctx, "test-slug")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		group = &model.Group{Title: "Тестовая группа", Slug: "test-slug", Description: "Тестовое описание"}
		err = groupRepo.Create(ctx, group)
	}
	if err != nil {
		return summary{}, fmt.Errorf("group: %w", err)
	}

	res := summary{Users: len(users), Group: group.Slug}
	existing, err := postRepo.Count(ctx, repository.PostFilter{AuthorID: users[0].ID})
	if err != nil {
		return summary{}, fmt.Errorf("count posts: %w", err)
	}
	if existing == 0 {
		for i := 0; i < opts.Posts; i++ {
			in := service.PostInput{Text: fmt.Sprintf("Тестовый пост %d", i)}
			if i%2 == 0 {
				in.GroupID = &group.ID
			}
			if _, err := postSvc.Create(ctx, users[0].ID, in); err != nil {
				return summary{}, fmt.Errorf("post %d: %w", i, err)
			}
			res.PostsCreated++
		}
	}

	for _, u := range users[1:] {
		if _, err := relSvc.Follow(ctx, u.ID, users[0].Username); err != nil {
			return summary{}, fmt.Errorf("follow %s: %w", u.Username, err)
		}
	}
	return res, nil
}
