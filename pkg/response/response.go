// Package response renders HTML pages and error pages for gin handlers.
package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// UserKey gin 上下文中当前登录用户的键
const UserKey = "user"

// ErrorPage 错误页模板数据
type ErrorPage struct {
	Viewer any
	Title  string
	Status int
	Path   string
}

// HTML 渲染页面模板
func HTML(c *gin.Context, status int, name string, data any) {
	c.HTML(status, name, data)
}

// Redirect 302 跳转
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// NotFound 404 页面
func NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", ErrorPage{
		Viewer: viewer(c),
		Title:  "Page not found",
		Status: http.StatusNotFound,
		Path:   c.Request.URL.Path,
	})
}

// TooManyRequests 429 页面
func TooManyRequests(c *gin.Context) {
	c.AbortWithStatus(http.StatusTooManyRequests)
}

// InternalError 记录错误并渲染 500 页面
func InternalError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	if hub := sentry.GetHubFromContext(c.Request.Context()); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, "500.html", ErrorPage{
		Viewer: viewer(c),
		Title:  "Server error",
		Status: http.StatusInternalServerError,
		Path:   c.Request.URL.Path,
	})
}

func viewer(c *gin.Context) any {
	if u, ok := c.Get(UserKey); ok {
		return u
	}
	return nil
}
