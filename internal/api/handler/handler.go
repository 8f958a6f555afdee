package handler

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/view"
	"github.com/d60-Lab/yatube/pkg/response"
)

// Handler 所有页面处理器
type Handler struct {
	feedService    service.FeedService
	postService    service.PostService
	commentService service.CommentService
	relService     service.RelationshipService
	authService    service.AuthService
	auth           config.AuthConfig
}

func NewHandler(
	feedService service.FeedService,
	postService service.PostService,
	commentService service.CommentService,
	relService service.RelationshipService,
	authService service.AuthService,
	auth config.AuthConfig,
) *Handler {
	return &Handler{
		feedService:    feedService,
		postService:    postService,
		commentService: commentService,
		relService:     relService,
		authService:    authService,
		auth:           auth,
	}
}

// RegisterValidators 注册表单校验规则，并让错误使用 form 标签名
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return err
	}
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !validUsernameRune(r) {
				return false
			}
		}
		return true
	})
}

// validUsernameRune 字母、数字（含 Unicode）以及 @ . + - _
func validUsernameRune(r rune) bool {
	switch r {
	case '.', '@', '+', '-', '_':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (h *Handler) layout(c *gin.Context, title string) view.Layout {
	return view.Layout{Viewer: middleware.CurrentUser(c), Title: title, Path: c.Request.URL.Path}
}

// fail 把服务层错误映射为页面
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(c)
		return
	}
	response.InternalError(c, err)
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

// bindErrors 把绑定/校验错误转成字段错误
func bindErrors(err error) view.FieldErrors {
	res := view.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res["__all__"] = "Invalid form submission."
		return res
	}
	for _, fe := range verrs {
		if _, ok := res[fe.Field()]; ok {
			continue
		}
		res[fe.Field()] = message(fe)
	}
	return res
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		return "Ensure this value has at least " + fe.Param() + " characters."
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username: letters, digits and @/./+/-/_ only."
	default:
		return "Invalid value."
	}
}

// NotFound 未匹配路由
func (h *Handler) NotFound(c *gin.Context) {
	response.NotFound(c)
}

// AboutAuthor 静态页
func (h *Handler) AboutAuthor(c *gin.Context) {
	response.HTML(c, http.StatusOK, "about_author.html", h.layout(c, "About the author"))
}

// AboutTech 静态页
func (h *Handler) AboutTech(c *gin.Context) {
	response.HTML(c, http.StatusOK, "about_tech.html", h.layout(c, "Technologies"))
}
