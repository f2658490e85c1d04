package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/microblog/internal/model"
)

type FollowRepository interface {
	// Create 幂等写入，created 表示本次是否真正插入了新边
	Create(ctx context.Context, followerID, followeeID string) (created bool, err error)
	// Delete 删除边，removed 表示边此前是否存在
	Delete(ctx context.Context, followerID, followeeID string) (removed bool, err error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error)
	ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]string, error)
	ListFollowers(ctx context.Context, followeeID string, offset, limit int) ([]string, error)
	CountFollowings(ctx context.Context, followerID string) (int64, error)
	CountFollowers(ctx context.Context, followeeID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, followerID, followeeID string) (bool, error) {
	f := &model.Follow{ID: uuid.New().String(), FollowerID: followerID, FolloweeID: followeeID}
	// 幂等：依赖 idx_follow_pair，并发重复关注只会落一行
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(f)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("followee_id", &ids).Error
	return ids, err
}

// ListFollowings 返回关注对象的用户名，最近关注的在前
func (r *followRepository) ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("follows").
		Select("users.username").
		Joins("JOIN users ON users.id = follows.followee_id").
		Where("follows.follower_id = ?", followerID).
		Order("follows.created_at DESC, follows.id DESC").
		Offset(offset).Limit(limit).
		Scan(&names).Error
	return names, err
}

func (r *followRepository) ListFollowers(ctx context.Context, followeeID string, offset, limit int) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("follows").
		Select("users.username").
		Joins("JOIN users ON users.id = follows.follower_id").
		Where("follows.followee_id = ?", followeeID).
		Order("follows.created_at DESC, follows.id DESC").
		Offset(offset).Limit(limit).
		Scan(&names).Error
	return names, err
}

func (r *followRepository) CountFollowings(ctx context.Context, followerID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).Where("follower_id = ?", followerID).Count(&cnt).Error
	return cnt, err
}

func (r *followRepository) CountFollowers(ctx context.Context, followeeID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).Where("followee_id = ?", followeeID).Count(&cnt).Error
	return cnt, err
}

func (r *followRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).Count(&cnt).Error
	return cnt, err
}
