package model

import (
	"time"
	"unicode/utf8"
)

// Post 用户发布的内容
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_post_created;not null"`
	UpdatedAt time.Time
	AuthorID  uint   `gorm:"index:idx_post_author;not null"`
	Author    User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint  `gorm:"index:idx_post_group"`
	Group     *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Image     string `gorm:"type:varchar(255)"` // posts/<name>，空表示无图
}

func (Post) TableName() string { return "posts" }

// String 列表与日志中使用的前 15 个字符
func (p Post) String() string {
	if utf8.RuneCountInString(p.Text) <= 15 {
		return p.Text
	}
	return string([]rune(p.Text)[:15])
}
