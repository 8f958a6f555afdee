package api

import (
	"fmt"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/internal/view"
	"github.com/d60-Lab/yatube/pkg/cache"
)

// Deps 组装路由所需的外部资源
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	// Cache 为 nil 时首页不缓存
	Cache  cache.Store
	Images *storage.FSStore
}

// NewRouter 创建仓储、服务与处理器并注册全部路由
func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	renderer, err := view.NewRenderer(cfg.Media.URL)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(d.DB)
	groupRepo := repository.NewGroupRepository(d.DB)
	feedService := service.NewFeedService(
		repository.NewPostRepository(d.DB),
		groupRepo,
		userRepo,
		repository.NewCommentRepository(d.DB),
		repository.NewFollowRepository(d.DB),
		cfg.Pagination.PerPage,
	)
	var images storage.ImageStore
	if d.Images != nil {
		images = d.Images
	}
	postService := service.NewPostService(d.DB, groupRepo, images)
	commentService := service.NewCommentService(d.DB)
	relService := service.NewRelationshipService(d.DB, userRepo)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	h := handler.NewHandler(feedService, postService, commentService, relService, authService, cfg.Auth)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Sentry(), middleware.Logger(), middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.Auth(authService, cfg.Auth.CookieName))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	}

	if d.Images != nil {
		r.StaticFS(cfg.Media.URL, afero.NewHttpFs(d.Images.Fs()))
	}

	r.GET("/", middleware.CachePage(d.Cache, cfg.Cache.TTL), h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:id/", h.PostDetail)

	r.GET("/about/author/", h.AboutAuthor)
	r.GET("/about/tech/", h.AboutTech)

	auth := r.Group("/auth")
	{
		auth.GET("/login/", h.Login)
		auth.POST("/login/", h.Login)
		auth.GET("/signup/", h.Signup)
		auth.POST("/signup/", h.Signup)
		auth.GET("/logout/", h.Logout)
	}

	private := r.Group("/", middleware.LoginRequired(cfg.Auth.LoginURL))
	{
		private.GET("/create/", h.PostCreate)
		private.POST("/create/", h.PostCreate)
		private.GET("/posts/:id/edit/", h.PostEdit)
		private.POST("/posts/:id/edit/", h.PostEdit)
		private.POST("/posts/:id/delete/", h.PostDelete)
		private.POST("/posts/:id/comment/", h.AddComment)
		private.GET("/follow/", h.FollowIndex)
		private.GET("/profile/:username/follow/", h.ProfileFollow)
		private.GET("/profile/:username/unfollow/", h.ProfileUnfollow)
	}

	r.NoRoute(h.NotFound)
	return r, nil
}
