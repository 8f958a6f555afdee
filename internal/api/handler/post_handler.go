package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/internal/view"
	"github.com/d60-Lab/yatube/pkg/response"
)

type postForm struct {
	Text  string `form:"text" binding:"notblank"`
	Group string `form:"group"`
}

type commentForm struct {
	Text string `form:"text" binding:"notblank"`
}

// PostCreate GET 显示表单，POST 创建帖子后跳转作者主页
func (h *Handler) PostCreate(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if c.Request.Method == http.MethodGet {
		h.renderPostForm(c, view.PostForm{})
		return
	}

	form, in, errs, closeImage := h.readPostForm(c)
	defer closeImage()
	if errs.Any() {
		h.renderPostForm(c, view.PostForm{Text: form.Text, GroupID: groupValue(in.GroupID), Errors: errs})
		return
	}

	if _, err := h.postService.Create(c.Request.Context(), user.ID, in); err != nil {
		if errs := postErrors(err); errs != nil {
			h.renderPostForm(c, view.PostForm{Text: form.Text, GroupID: groupValue(in.GroupID), Errors: errs})
			return
		}
		h.fail(c, err)
		return
	}
	response.Redirect(c, profileURL(user.Username))
}

// PostEdit 仅作者可编辑；其他用户跳转到详情页
func (h *Handler) PostEdit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := idParam(c, "id")
	if !ok {
		response.NotFound(c)
		return
	}
	post, err := h.postService.GetForEdit(c.Request.Context(), user.ID, id)
	if errors.Is(err, service.ErrNotAuthor) {
		response.Redirect(c, postURL(id))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Request.Method == http.MethodGet {
		h.renderPostForm(c, view.PostForm{
			IsEdit:  true,
			PostID:  post.ID,
			Text:    post.Text,
			GroupID: groupValue(post.GroupID),
			Image:   post.Image,
		})
		return
	}

	form, in, errs, closeImage := h.readPostForm(c)
	defer closeImage()
	if errs.Any() {
		h.renderPostForm(c, view.PostForm{IsEdit: true, PostID: id, Text: form.Text, GroupID: groupValue(in.GroupID), Image: post.Image, Errors: errs})
		return
	}
	if _, err := h.postService.Update(c.Request.Context(), user.ID, id, in); err != nil {
		if errors.Is(err, service.ErrNotAuthor) {
			response.Redirect(c, postURL(id))
			return
		}
		if errs := postErrors(err); errs != nil {
			h.renderPostForm(c, view.PostForm{IsEdit: true, PostID: id, Text: form.Text, GroupID: groupValue(in.GroupID), Image: post.Image, Errors: errs})
			return
		}
		h.fail(c, err)
		return
	}
	response.Redirect(c, postURL(id))
}

// PostDelete 仅作者可删除
func (h *Handler) PostDelete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := idParam(c, "id")
	if !ok {
		response.NotFound(c)
		return
	}
	if _, err := h.postService.Delete(c.Request.Context(), user.ID, id); err != nil {
		if errors.Is(err, service.ErrNotAuthor) {
			response.Redirect(c, postURL(id))
			return
		}
		h.fail(c, err)
		return
	}
	response.Redirect(c, profileURL(user.Username))
}

// AddComment 登录用户评论；空评论重新渲染详情页
func (h *Handler) AddComment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, ok := idParam(c, "id")
	if !ok {
		response.NotFound(c)
		return
	}
	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderDetail(c, http.StatusOK, view.CommentForm{Text: form.Text, Errors: bindErrors(err)})
		return
	}
	if _, err := h.commentService.Add(c.Request.Context(), user.ID, id, form.Text); err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			h.renderDetail(c, http.StatusOK, view.CommentForm{Errors: view.FieldErrors{"text": "This field is required."}})
			return
		}
		h.fail(c, err)
		return
	}
	response.Redirect(c, postURL(id))
}

// readPostForm 绑定表单并打开上传的图片；调用方负责 closeImage
func (h *Handler) readPostForm(c *gin.Context) (postForm, service.PostInput, view.FieldErrors, func()) {
	var form postForm
	errs := view.FieldErrors{}
	if err := c.ShouldBind(&form); err != nil {
		errs = bindErrors(err)
	}

	in := service.PostInput{Text: form.Text}
	if g := strings.TrimSpace(form.Group); g != "" {
		id, err := strconv.ParseUint(g, 10, 64)
		if err != nil || id == 0 {
			errs["group"] = "Select a valid choice."
		} else {
			gid := uint(id)
			in.GroupID = &gid
		}
	}

	closeImage := func() {}
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			errs["image"] = "Upload a valid image."
		} else {
			in.Image = f
			closeImage = func() { _ = f.Close() }
		}
	}
	return form, in, errs, closeImage
}

func (h *Handler) renderPostForm(c *gin.Context, form view.PostForm) {
	groups, err := h.postService.Groups(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	title := "New post"
	if form.IsEdit {
		title = "Edit post"
	}
	form.Layout = h.layout(c, title)
	form.Groups = groups
	response.HTML(c, http.StatusOK, "create_post.html", form)
}

// postErrors 服务层的校验错误转为字段错误；其他错误返回 nil
func postErrors(err error) view.FieldErrors {
	switch {
	case errors.Is(err, service.ErrEmptyText):
		return view.FieldErrors{"text": "This field is required."}
	case errors.Is(err, service.ErrUnknownGroup):
		return view.FieldErrors{"group": "Select a valid choice."}
	case errors.Is(err, storage.ErrNotImage):
		return view.FieldErrors{"image": "Upload a valid image. The file you uploaded was either not an image or a corrupted image."}
	case errors.Is(err, storage.ErrImageTooLarge):
		return view.FieldErrors{"image": "The image is too large."}
	}
	return nil
}

func groupValue(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
