// Package view renders pages from embedded templates. Each page is parsed
// together with the shared layouts and includes into its own template set.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var templateFS embed.FS

// Renderer 实现 gin 的 render.HTMLRender
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer 解析所有页面；mediaURL 用于拼接图片地址
func NewRenderer(mediaURL string) (*Renderer, error) {
	funcs := Funcs(mediaURL)

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	shared := []string{"templates/layouts/*.html", "templates/includes/*.html"}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := path.Base(page)
		patterns := append(append([]string{}, shared...), page)
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, patterns...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = t
	}
	return &Renderer{templates: templates}, nil
}

// MustRenderer 解析失败时 panic
func MustRenderer(mediaURL string) *Renderer {
	r, err := NewRenderer(mediaURL)
	if err != nil {
		panic(err)
	}
	return r
}

// Instance 执行 base 布局
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.templates[name]
	if !ok {
		t = template.Must(template.New(name).Parse(fmt.Sprintf("template %s is missing", name)))
		return render.HTML{Template: t, Name: name, Data: data}
	}
	return render.HTML{Template: t, Name: "base", Data: data}
}

// Funcs 模板函数
func Funcs(mediaURL string) template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2 January 2006") },
		"media": func(ref string) string {
			return strings.TrimSuffix(mediaURL, "/") + "/" + strings.TrimPrefix(ref, "/")
		},
		"linebreaks": func(s string) template.HTML {
			escaped := template.HTMLEscapeString(s)
			return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
		},
	}
}
