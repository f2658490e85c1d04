package model

import "time"

// Follow 关注边：FollowerID 关注 FolloweeID
// 任一端用户删除时边随之级联删除
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID string `gorm:"type:varchar(36);index:idx_follow_follower;index:idx_follow_pair,unique;not null"`
	FolloweeID string `gorm:"type:varchar(36);index:idx_follow_followee;index:idx_follow_pair,unique;not null;check:chk_follow_not_self,follower_id <> followee_id"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (follower_id, followee_id)
	CreatedAt time.Time

	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followee User `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE"`
}

func (Follow) TableName() string { return "follows" }
