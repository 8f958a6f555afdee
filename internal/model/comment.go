package model

import "time"

// Comment 评论，创建后不可修改
type Comment struct {
	ID        uint      `gorm:"primaryKey"`
	PostID    uint      `gorm:"index:idx_comment_post;not null"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID  uint      `gorm:"index;not null"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Comment) TableName() string { return "comments" }
