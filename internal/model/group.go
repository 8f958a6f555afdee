package model

// Group 主题分组，slug 用于 URL，创建后不再修改
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"type:varchar(200);not null"`
	Slug        string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string `gorm:"type:text"`
}

func (Group) TableName() string { return "post_groups" }

func (g Group) String() string { return g.Title }
