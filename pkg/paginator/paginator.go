// Package paginator computes page windows over an ordered collection of a
// known size. The collection itself usually lives in the database; callers
// fetch Meta.Offset/Meta.Limit rows and wrap them in a Page.
package paginator

import (
	"strconv"
	"strings"
)

// DefaultPerPage 默认每页条数
const DefaultPerPage = 10

// Paginator 针对 Count 条记录、每页 PerPage 条
type Paginator struct {
	Count   int64
	PerPage int
}

// Meta 描述某一页在集合中的位置
type Meta struct {
	Number      int
	NumPages    int
	Count       int64
	PerPage     int
	HasNext     bool
	HasPrevious bool
	Offset      int
	Limit       int
}

// Page 一页数据
type Page[T any] struct {
	Items []T
	Meta
}

func New(count int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages 至少为 1：空集合也有一个空页
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	return int((p.Count + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Page 返回第 number 页，越界时钳制到首页或末页
func (p Paginator) Page(number int) Meta {
	last := p.NumPages()
	if number < 1 {
		number = 1
	}
	if number > last {
		number = last
	}

	offset := (number - 1) * p.PerPage
	limit := p.PerPage
	if rest := p.Count - int64(offset); rest < int64(limit) {
		limit = int(max(rest, 0))
	}
	return Meta{
		Number:      number,
		NumPages:    last,
		Count:       p.Count,
		PerPage:     p.PerPage,
		HasNext:     number < last,
		HasPrevious: number > 1,
		Offset:      offset,
		Limit:       limit,
	}
}

// GetPage 解析查询参数中的页码；缺失或非法时返回第一页
func (p Paginator) GetPage(raw string) Meta {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = 1
	}
	return p.Page(n)
}

func (m Meta) NextNumber() int     { return m.Number + 1 }
func (m Meta) PreviousNumber() int { return m.Number - 1 }

// PageRange 1..NumPages，用于模板渲染页码链接
func (m Meta) PageRange() []int {
	res := make([]int, m.NumPages)
	for i := range res {
		res[i] = i + 1
	}
	return res
}

