package view

import (
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

// Layout 所有页面共享的数据
type Layout struct {
	Viewer *model.User
	Title  string
	// Path 当前请求路径，用于高亮导航
	Path string
}

// FeedPage 首页与关注页
type FeedPage struct {
	Layout
	Posts service.PostPage
}

type GroupPage struct {
	Layout
	Group *model.Group
	Posts service.PostPage
}

type ProfilePage struct {
	Layout
	*service.ProfileFeed
}

type PostDetailPage struct {
	Layout
	*service.PostDetail
	CommentForm CommentForm
}

// PostForm 创建/编辑表单
type PostForm struct {
	Layout
	IsEdit  bool
	PostID  uint
	Text    string
	GroupID uint
	Image   string
	Groups  []*model.Group
	Errors  FieldErrors
}

type CommentForm struct {
	Text   string
	Errors FieldErrors
}

type AuthForm struct {
	Layout
	Username  string
	Email     string
	FirstName string
	LastName  string
	Next      string
	Errors    FieldErrors
}

// FieldErrors 字段名 -> 错误信息；键 "__all__" 表示整表单错误
type FieldErrors map[string]string

func (e FieldErrors) Any() bool { return len(e) > 0 }
