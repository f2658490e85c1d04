package model

import "time"

// Comment 评论，创建后不可修改
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"post_id" gorm:"type:varchar(36);index:idx_comment_post;not null"`
	Post      *Post     `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID  string    `json:"author_id" gorm:"type:varchar(36);not null"`
	Author    User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }
