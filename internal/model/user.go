package model

import "time"

// User 作者/用户。凭证由认证模块维护，业务侧只引用 ID 与 Username
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"type:varchar(150);uniqueIndex:ux_user_username;not null"`
	Email        string    `json:"email,omitempty" gorm:"type:varchar(254)"`
	FirstName    string    `json:"first_name,omitempty" gorm:"type:varchar(150)"`
	LastName     string    `json:"last_name,omitempty" gorm:"type:varchar(150)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(100);not null"`
	IsStaff      bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (User) TableName() string { return "users" }
