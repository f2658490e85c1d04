package model

import "time"

// Post 帖子。CreatedAt 只在创建时写入；分组被删除后 GroupID 置空
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	AuthorID  string    `json:"author_id" gorm:"type:varchar(36);index:idx_post_author;not null"`
	Author    User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *string   `json:"group_id,omitempty" gorm:"type:varchar(36);index:idx_post_group"`
	Group     *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Image     string    `json:"image,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_post_created"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

// PostOrder 列表统一排序：新帖在前，同一时刻按 id 倒序保证稳定
const PostOrder = "created_at DESC, id DESC"
