package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Auth 解析会话 cookie，把当前用户放入上下文；无效令牌按匿名处理
func Auth(authService service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidToken) {
				logger.Warn("authenticate failed", zap.Error(err))
			}
			c.Next()
			return
		}
		c.Set(response.UserKey, user)
		c.Next()
	}
}

// CurrentUser 返回当前登录用户，匿名时为 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(response.UserKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// LoginRequired 匿名访问跳转登录页，并通过 next 带回原地址
func LoginRequired(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginRedirect(loginURL, c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// LoginRedirect 构造 loginURL?next=target，保留 target 中的 "/"
func LoginRedirect(loginURL, target string) string {
	next := strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
	return loginURL + "?next=" + next
}
