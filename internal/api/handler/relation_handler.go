package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/response"
)

// ProfileFollow 关注作者；重复关注与关注自己都静默忽略
func (h *Handler) ProfileFollow(c *gin.Context) {
	user := middleware.CurrentUser(c)
	username := c.Param("username")

	_, err := h.relService.Follow(c.Request.Context(), user.ID, username)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrFollowSelf):
		logger.Debug("ignored self follow", zap.Uint("user_id", user.ID))
	default:
		h.fail(c, err)
		return
	}
	response.Redirect(c, profileURL(username))
}

// ProfileUnfollow 取消关注；关系不存在时为空操作
func (h *Handler) ProfileUnfollow(c *gin.Context) {
	user := middleware.CurrentUser(c)
	username := c.Param("username")

	if _, err := h.relService.Unfollow(c.Request.Context(), user.ID, username); err != nil {
		h.fail(c, err)
		return
	}
	response.Redirect(c, profileURL(username))
}
