package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/view"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/response"
)

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type signupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"notblank,max=150,username"`
	Email     string `form:"email" binding:"omitempty,email"`
	Password1 string `form:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

// Login GET 显示登录页，POST 校验后写入会话 cookie
func (h *Handler) Login(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		response.HTML(c, http.StatusOK, "login.html", view.AuthForm{Layout: h.layout(c, "Log in"), Next: c.Query("next")})
		return
	}

	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderLogin(c, form, bindErrors(err))
		return
	}
	user, err := h.authService.Login(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.renderLogin(c, form, view.FieldErrors{"__all__": "Please enter a correct username and password."})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.startSession(c, user); err != nil {
		h.fail(c, err)
		return
	}
	response.Redirect(c, safeNext(form.Next))
}

func (h *Handler) renderLogin(c *gin.Context, form loginForm, errs view.FieldErrors) {
	response.HTML(c, http.StatusOK, "login.html", view.AuthForm{
		Layout:   h.layout(c, "Log in"),
		Username: form.Username,
		Next:     form.Next,
		Errors:   errs,
	})
}

// Signup 注册成功后直接登录
func (h *Handler) Signup(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		response.HTML(c, http.StatusOK, "signup.html", view.AuthForm{Layout: h.layout(c, "Sign up")})
		return
	}

	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderSignup(c, form, bindErrors(err))
		return
	}
	user, err := h.authService.SignUp(c.Request.Context(), service.SignUpInput{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  form.Password1,
	})
	if errors.Is(err, service.ErrUsernameTaken) {
		h.renderSignup(c, form, view.FieldErrors{"username": "A user with that username already exists."})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	logger.Info("user signed up", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	if err := h.startSession(c, user); err != nil {
		h.fail(c, err)
		return
	}
	response.Redirect(c, "/")
}

func (h *Handler) renderSignup(c *gin.Context, form signupForm, errs view.FieldErrors) {
	response.HTML(c, http.StatusOK, "signup.html", view.AuthForm{
		Layout:    h.layout(c, "Sign up"),
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Errors:    errs,
	})
}

// Logout 清除会话 cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName, "", -1, "/", "", h.auth.Secure, true)
	response.HTML(c, http.StatusOK, "logged_out.html", view.Layout{Title: "Logged out"})
}

func (h *Handler) startSession(c *gin.Context, user *model.User) error {
	token, err := h.authService.IssueToken(user)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName, token, int(h.auth.TokenTTL.Seconds()), "/", "", h.auth.Secure, true)
	return nil
}

// safeNext 只允许站内路径，避免开放重定向
func safeNext(next string) string {
	for i := 0; i < len(next); i++ {
		// 浏览器会丢弃 URL 中的制表符与换行
		if next[i] < 0x20 || next[i] == 0x7f {
			return "/"
		}
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
