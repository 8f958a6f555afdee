package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/cache"
	"github.com/d60-Lab/yatube/pkg/database"
)

const postCard = `class="post-card"`

// 1x2 像素 GIF
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type fixture struct {
	t      *testing.T
	cfg    *config.Config
	db     *gorm.DB
	pages  *cache.RedisStore
	fs     afero.Fs
	auth   service.AuthService
	router *gin.Engine
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.RateLimit.Enabled = false

	db := database.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	pages := cache.NewRedisStore(client, cfg.Cache.Prefix)
	// 与 NewLocalStore 一致，"posts/x" 与 "/posts/x" 指向同一文件
	fs := afero.NewBasePathFs(afero.NewMemMapFs(), "/")

	router, err := NewRouter(Deps{
		Config: cfg,
		DB:     db,
		Cache:  pages,
		Images: storage.NewFSStore(fs),
	})
	require.NoError(t, err)

	return &fixture{
		t:      t,
		cfg:    cfg,
		db:     db,
		pages:  pages,
		fs:     fs,
		auth:   service.NewAuthService(repository.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		router: router,
		clock:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) user(username string) *model.User {
	f.t.Helper()
	u := &model.User{Username: username, Password: "x"}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) group(title, slug string) *model.Group {
	f.t.Helper()
	g := &model.Group{Title: title, Slug: slug, Description: "Тестовое описание"}
	require.NoError(f.t, f.db.Create(g).Error)
	return g
}

// post 每次调用时间递增一秒，保证排序稳定
func (f *fixture) post(author *model.User, group *model.Group, text string) *model.Post {
	f.t.Helper()
	f.clock = f.clock.Add(time.Second)
	p := &model.Post{Text: text, AuthorID: author.ID, CreatedAt: f.clock}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(f.t, f.db.Omit("Author", "Group").Create(p).Error)
	return p
}

func (f *fixture) posts(n int, author *model.User, group *model.Group) {
	for i := 0; i < n; i++ {
		f.post(author, group, fmt.Sprintf("Тестовый пост %d", i))
	}
}

func (f *fixture) do(req *http.Request, as *model.User) *httptest.ResponseRecorder {
	f.t.Helper()
	if as != nil {
		token, err := f.auth.IssueToken(as)
		require.NoError(f.t, err)
		req.AddCookie(&http.Cookie{Name: f.cfg.Auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string, as *model.User) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil), as)
}

func (f *fixture) postForm(path string, form url.Values, as *model.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req, as)
}

func (f *fixture) count(m any, query string, args ...any) int64 {
	f.t.Helper()
	var n int64
	q := f.db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(f.t, q.Count(&n).Error)
	return n
}

func TestPublicPages(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	group := f.group("Тестовая группа", "test-slug")
	p := f.post(author, group, "Тестовый пост")

	for _, path := range []string{
		"/",
		"/group/test-slug/",
		"/profile/auth/",
		fmt.Sprintf("/posts/%d/", p.ID),
		"/about/author/",
		"/about/tech/",
		"/auth/login/",
		"/auth/signup/",
	} {
		t.Run(path, func(t *testing.T) {
			w := f.get(path, nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		})
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{
		"/group/missing/",
		"/profile/nobody/",
		"/posts/999/",
		"/posts/abc/",
		"/unexisting_page/",
	} {
		t.Run(path, func(t *testing.T) {
			w := f.get(path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Contains(t, w.Body.String(), "Page not found")
		})
	}
}

func TestLoginRequiredRedirects(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	p := f.post(author, nil, "Тестовый пост")

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/create/"},
		{http.MethodPost, "/create/"},
		{http.MethodGet, "/follow/"},
		{http.MethodGet, fmt.Sprintf("/posts/%d/edit/", p.ID)},
		{http.MethodPost, fmt.Sprintf("/posts/%d/comment/", p.ID)},
		{http.MethodGet, "/profile/auth/follow/"},
		{http.MethodGet, "/profile/auth/unfollow/"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tc.method == http.MethodPost {
				w = f.postForm(tc.path, url.Values{"text": {"Тестовый текст"}}, nil)
			} else {
				w = f.get(tc.path, nil)
			}
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/auth/login/?next="+tc.path, w.Header().Get("Location"))
		})
	}

	assert.EqualValues(t, 1, f.count(&model.Post{}, ""))
	assert.EqualValues(t, 0, f.count(&model.Comment{}, ""))
}

func TestGroupPageShowsOnlyGroupPosts(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	group := f.group("Тестовая группа", "test-slug")
	other := f.group("Другая группа", "other-slug")
	f.post(author, group, "Тестовый пост в группе")

	w := f.get("/group/test-slug/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Тестовый пост в группе")
	assert.Contains(t, w.Body.String(), "Тестовая группа")
	assert.Equal(t, 1, strings.Count(w.Body.String(), postCard))

	w = f.get("/group/other-slug/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Тестовый пост в группе")
	assert.Contains(t, w.Body.String(), other.Title)

	w = f.get("/", nil)
	assert.Contains(t, w.Body.String(), "Тестовый пост в группе")
	w = f.get("/profile/auth/", nil)
	assert.Contains(t, w.Body.String(), "Тестовый пост в группе")
}

func TestPagination(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	group := f.group("Тестовая группа", "test-slug")
	f.posts(13, author, group)

	for _, path := range []string{"/", "/group/test-slug/", "/profile/auth/"} {
		t.Run(path, func(t *testing.T) {
			w := f.get(path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 10, strings.Count(w.Body.String(), postCard))

			w = f.get(path+"?page=2", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 3, strings.Count(w.Body.String(), postCard))

			// 超出范围返回最后一页
			w = f.get(path+"?page=99", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 3, strings.Count(w.Body.String(), postCard))
		})
	}
}

func TestFollowFeedPagination(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	reader := f.user("reader")
	f.posts(13, author, nil)
	require.NoError(t, f.db.Create(&model.Follow{FollowerID: reader.ID, FolloweeID: author.ID}).Error)

	w := f.get("/follow/", reader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, strings.Count(w.Body.String(), postCard))

	w = f.get("/follow/?page=2", reader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, strings.Count(w.Body.String(), postCard))
}

func TestIndexCache(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	p := f.post(author, nil, "Пост для кеша")

	first := f.get("/", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Contains(t, first.Body.String(), "Пост для кеша")

	require.NoError(t, f.db.Delete(&model.Post{}, p.ID).Error)

	cached := f.get("/", nil)
	require.Equal(t, http.StatusOK, cached.Code)
	assert.Equal(t, "HIT", cached.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.Bytes(), cached.Body.Bytes())

	require.NoError(t, f.pages.Clear(context.Background()))

	fresh := f.get("/", nil)
	require.Equal(t, http.StatusOK, fresh.Code)
	assert.Equal(t, "MISS", fresh.Header().Get("X-Cache"))
	assert.NotEqual(t, first.Body.Bytes(), fresh.Body.Bytes())
	assert.NotContains(t, fresh.Body.String(), "Пост для кеша")
}

func TestIndexCacheHidesNewPostUntilCleared(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	f.post(author, nil, "Первый пост")

	first := f.get("/", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	f.post(author, nil, "Свежий пост")

	cached := f.get("/", nil)
	require.Equal(t, http.StatusOK, cached.Code)
	assert.Equal(t, "HIT", cached.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.Bytes(), cached.Body.Bytes())
	assert.NotContains(t, cached.Body.String(), "Свежий пост")

	require.NoError(t, f.pages.Clear(context.Background()))

	fresh := f.get("/", nil)
	require.Equal(t, http.StatusOK, fresh.Code)
	assert.Equal(t, "MISS", fresh.Header().Get("X-Cache"))
	assert.Contains(t, fresh.Body.String(), "Свежий пост")
	assert.Equal(t, 2, strings.Count(fresh.Body.String(), postCard))
}

func TestIndexCacheIsPerViewer(t *testing.T) {
	f := newFixture(t)
	reader := f.user("reader")

	anon := f.get("/", nil)
	require.Equal(t, http.StatusOK, anon.Code)
	assert.NotContains(t, anon.Body.String(), "Signed in as")

	signedIn := f.get("/", reader)
	require.Equal(t, http.StatusOK, signedIn.Code)
	assert.Equal(t, "MISS", signedIn.Header().Get("X-Cache"))
	assert.Contains(t, signedIn.Body.String(), "Signed in as")
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	group := f.group("Тестовая группа", "test-slug")

	w := f.get("/create/", author)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="text"`)
	assert.Contains(t, w.Body.String(), `name="group"`)
	assert.Contains(t, w.Body.String(), `name="image"`)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "Тестовый текст"))
	require.NoError(t, mw.WriteField("group", fmt.Sprint(group.ID)))
	fw, err := mw.CreateFormFile("image", "small.gif")
	require.NoError(t, err)
	_, err = fw.Write(smallGIF)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = f.do(req, author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))

	var created model.Post
	require.NoError(t, f.db.Where("author_id = ?", author.ID).First(&created).Error)
	assert.Equal(t, "Тестовый текст", created.Text)
	require.NotNil(t, created.GroupID)
	assert.Equal(t, group.ID, *created.GroupID)
	assert.True(t, strings.HasPrefix(created.Image, "posts/"))

	ok, err := afero.Exists(f.fs, created.Image)
	require.NoError(t, err)
	assert.True(t, ok)

	w = f.get("/media/"+created.Image, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, smallGIF, w.Body.Bytes())

	w = f.get(fmt.Sprintf("/posts/%d/", created.ID), nil)
	assert.Contains(t, w.Body.String(), "/media/"+created.Image)
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")

	w := f.postForm("/create/", url.Values{"text": {"   "}}, author)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")

	w = f.postForm("/create/", url.Values{"text": {"Текст"}, "group": {"999"}}, author)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Select a valid choice.")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "Текст"))
	fw, err := mw.CreateFormFile("image", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plain text, not an image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = f.do(req, author)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a valid image.")

	assert.EqualValues(t, 0, f.count(&model.Post{}, ""))
}

func TestEditPost(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	group := f.group("Тестовая группа", "test-slug")
	p := f.post(author, nil, "Старый текст")
	editPath := fmt.Sprintf("/posts/%d/edit/", p.ID)
	detailPath := fmt.Sprintf("/posts/%d/", p.ID)

	w := f.get(editPath, author)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Старый текст")

	w = f.postForm(editPath, url.Values{"text": {"Новый текст"}, "group": {fmt.Sprint(group.ID)}}, author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailPath, w.Header().Get("Location"))

	var got model.Post
	require.NoError(t, f.db.First(&got, p.ID).Error)
	assert.Equal(t, "Новый текст", got.Text)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, group.ID, *got.GroupID)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestEditPostByNonAuthorRedirects(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	stranger := f.user("stranger")
	p := f.post(author, nil, "Текст автора")
	editPath := fmt.Sprintf("/posts/%d/edit/", p.ID)
	detailPath := fmt.Sprintf("/posts/%d/", p.ID)

	w := f.get(editPath, stranger)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailPath, w.Header().Get("Location"))

	w = f.postForm(editPath, url.Values{"text": {"Чужая правка"}}, stranger)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailPath, w.Header().Get("Location"))

	var got model.Post
	require.NoError(t, f.db.First(&got, p.ID).Error)
	assert.Equal(t, "Текст автора", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, author.ID, got.AuthorID)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	stranger := f.user("stranger")
	p := f.post(author, nil, "Текст")
	require.NoError(t, f.db.Omit("Author", "Post").Create(&model.Comment{PostID: p.ID, AuthorID: stranger.ID, Text: "Комментарий"}).Error)
	deletePath := fmt.Sprintf("/posts/%d/delete/", p.ID)

	w := f.postForm(deletePath, url.Values{}, stranger)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", p.ID), w.Header().Get("Location"))
	assert.EqualValues(t, 1, f.count(&model.Post{}, ""))

	w = f.postForm(deletePath, url.Values{}, author)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.EqualValues(t, 0, f.count(&model.Post{}, ""))
	assert.EqualValues(t, 0, f.count(&model.Comment{}, ""))
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	reader := f.user("reader")
	p := f.post(author, nil, "Текст")
	commentPath := fmt.Sprintf("/posts/%d/comment/", p.ID)
	detailPath := fmt.Sprintf("/posts/%d/", p.ID)

	w := f.get(detailPath, nil)
	assert.NotContains(t, w.Body.String(), commentPath)
	w = f.get(detailPath, reader)
	assert.Contains(t, w.Body.String(), commentPath)

	w = f.postForm(commentPath, url.Values{"text": {"Тестовый комментарий"}}, reader)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailPath, w.Header().Get("Location"))

	w = f.get(detailPath, nil)
	assert.Contains(t, w.Body.String(), "Тестовый комментарий")

	w = f.postForm(commentPath, url.Values{"text": {" "}}, reader)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")

	w = f.postForm("/posts/999/comment/", url.Values{"text": {"Куда?"}}, reader)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.EqualValues(t, 1, f.count(&model.Comment{}, ""))
}

func TestFollowAndUnfollow(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")
	follower := f.user("follower")
	stranger := f.user("stranger")
	f.post(author, nil, "Пост для подписчиков")

	w := f.get("/profile/auth/follow/", follower)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.EqualValues(t, 1, f.count(&model.Follow{}, "follower_id = ? AND followee_id = ?", follower.ID, author.ID))

	// 重复关注不新增记录
	w = f.get("/profile/auth/follow/", follower)
	require.Equal(t, http.StatusFound, w.Code)
	assert.EqualValues(t, 1, f.count(&model.Follow{}, ""))

	w = f.get("/follow/", follower)
	assert.Contains(t, w.Body.String(), "Пост для подписчиков")
	w = f.get("/follow/", stranger)
	assert.NotContains(t, w.Body.String(), "Пост для подписчиков")

	w = f.get("/profile/auth/", follower)
	assert.Contains(t, w.Body.String(), "/profile/auth/unfollow/")

	w = f.get("/profile/auth/unfollow/", follower)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.EqualValues(t, 0, f.count(&model.Follow{}, ""))

	w = f.get("/follow/", follower)
	assert.NotContains(t, w.Body.String(), "Пост для подписчиков")

	// 未关注时取消关注是空操作
	w = f.get("/profile/auth/unfollow/", follower)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSelfFollowIsIgnored(t *testing.T) {
	f := newFixture(t)
	author := f.user("auth")

	w := f.get("/profile/auth/follow/", author)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.EqualValues(t, 0, f.count(&model.Follow{}, ""))

	w = f.get("/profile/auth/", author)
	assert.NotContains(t, w.Body.String(), "/profile/auth/follow/")
}

func TestFollowUnknownUser(t *testing.T) {
	f := newFixture(t)
	reader := f.user("reader")

	w := f.get("/profile/nobody/follow/", reader)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignupLoginLogout(t *testing.T) {
	f := newFixture(t)

	w := f.postForm("/auth/signup/", url.Values{
		"first_name": {"Лев"},
		"last_name":  {"Толстой"},
		"username":   {"leo"},
		"email":      {"leo@example.com"},
		"password1":  {"war-and-peace"},
		"password2":  {"war-and-peace"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.True(t, hasCookie(w, f.cfg.Auth.CookieName))
	assert.EqualValues(t, 1, f.count(&model.User{}, "username = ?", "leo"))

	w = f.postForm("/auth/signup/", url.Values{
		"username":  {"leo"},
		"password1": {"war-and-peace"},
		"password2": {"war-and-peace"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	w = f.postForm("/auth/signup/", url.Values{
		"username":  {"tolstoy"},
		"password1": {"war-and-peace"},
		"password2": {"anna-karenina"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "didn&#39;t match")

	w = f.postForm("/auth/login/", url.Values{"username": {"leo"}, "password": {"wrong-password"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a correct username and password.")
	assert.False(t, hasCookie(w, f.cfg.Auth.CookieName))

	w = f.postForm("/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"war-and-peace"},
		"next":     {"/follow/"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/follow/", w.Header().Get("Location"))
	require.True(t, hasCookie(w, f.cfg.Auth.CookieName))

	req := httptest.NewRequest(http.MethodGet, "/follow/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = f.do(req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.get("/auth/logout/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == f.cfg.Auth.CookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestSignupAcceptsUnicodeUsername(t *testing.T) {
	f := newFixture(t)

	w := f.postForm("/auth/signup/", url.Values{
		"username":  {"Лев_Толстой"},
		"password1": {"war-and-peace"},
		"password2": {"war-and-peace"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.EqualValues(t, 1, f.count(&model.User{}, "username = ?", "Лев_Толстой"))

	w = f.postForm("/auth/signup/", url.Values{
		"username":  {"лев толстой"},
		"password1": {"war-and-peace"},
		"password2": {"war-and-peace"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Enter a valid username")
}

func TestLoginRejectsExternalNext(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.SignUp(context.Background(), service.SignUpInput{Username: "leo", Password: "war-and-peace"})
	require.NoError(t, err)

	w := f.postForm("/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"war-and-peace"},
		"next":     {"//evil.example.com/"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	for _, next := range []string{"/\t/evil.example.com/", "/\n/evil.example.com/", "/\r/evil.example.com/"} {
		w = f.postForm("/auth/login/", url.Values{
			"username": {"leo"},
			"password": {"war-and-peace"},
			"next":     {next},
		}, nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"), "next=%q", next)
	}
}

func TestInvalidSessionIsAnonymous(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(&http.Cookie{Name: f.cfg.Auth.CookieName, Value: "not-a-token"})
	w := f.do(req, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/create/", w.Header().Get("Location"))
}

func hasCookie(w *httptest.ResponseRecorder, name string) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}
