package model

// Group 帖子分组（社区）。只有 description 可修改
type Group struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(190);uniqueIndex:ux_group_slug;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
}

func (Group) TableName() string { return "groups" }
