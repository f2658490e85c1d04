package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
)

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
	UpdateDescription(ctx context.Context, id, description string) error
	// Delete 删除分组，所属帖子保留并清空 group_id
	Delete(ctx context.Context, id string) error
}

type groupRepository struct{ db *gorm.DB }

func NewGroupRepository(db *gorm.DB) GroupRepository { return &groupRepository{db: db} }

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return translate(r.db.WithContext(ctx).Create(group).Error)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var g model.Group
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepository) List(ctx context.Context) ([]*model.Group, error) {
	var res []*model.Group
	err := r.db.WithContext(ctx).Order("title ASC").Find(&res).Error
	return res, err
}

func (r *groupRepository) UpdateDescription(ctx context.Context, id, description string) error {
	return r.db.WithContext(ctx).
		Model(&model.Group{}).
		Where("id = ?", id).
		Update("description", description).Error
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	// 不依赖数据库是否开启外键（sqlite 默认关闭），显式置空
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Post{}).
			Where("group_id = ?", id).
			UpdateColumn("group_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Group{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
