package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/view"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Index 全站最新帖子
func (h *Handler) Index(c *gin.Context) {
	posts, err := h.feedService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.HTML(c, http.StatusOK, "index.html", view.FeedPage{
		Layout: h.layout(c, "Latest updates"),
		Posts:  posts,
	})
}

// GroupPosts 分组帖子
func (h *Handler) GroupPosts(c *gin.Context) {
	feed, err := h.feedService.Group(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.HTML(c, http.StatusOK, "group_list.html", view.GroupPage{
		Layout: h.layout(c, feed.Group.Title),
		Group:  feed.Group,
		Posts:  feed.Posts,
	})
}

// Profile 作者主页
func (h *Handler) Profile(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	feed, err := h.feedService.Profile(c.Request.Context(), c.Param("username"), viewer, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.HTML(c, http.StatusOK, "profile.html", view.ProfilePage{
		Layout:      h.layout(c, "Profile of "+feed.Author.DisplayName()),
		ProfileFeed: feed,
	})
}

// PostDetail 帖子详情与评论
func (h *Handler) PostDetail(c *gin.Context) {
	h.renderDetail(c, http.StatusOK, view.CommentForm{})
}

func (h *Handler) renderDetail(c *gin.Context, status int, form view.CommentForm) {
	id, ok := idParam(c, "id")
	if !ok {
		response.NotFound(c)
		return
	}
	detail, err := h.feedService.Post(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.HTML(c, status, "post_detail.html", view.PostDetailPage{
		Layout:      h.layout(c, "Post "+detail.Post.String()),
		PostDetail:  detail,
		CommentForm: form,
	})
}

// FollowIndex 关注作者的帖子（需登录）
func (h *Handler) FollowIndex(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	posts, err := h.feedService.Follow(c.Request.Context(), viewer.ID, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.HTML(c, http.StatusOK, "follow.html", view.FeedPage{
		Layout: h.layout(c, "Following"),
		Posts:  posts,
	})
}
