package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/microblog/internal/model"
)

// PostFilter 列表过滤条件，零值表示全部帖子
type PostFilter struct {
	AuthorID  string
	GroupID   string
	AuthorIDs []string // 非 nil 时按作者集合过滤；空集合不返回任何帖子
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// Update 只更新可编辑字段，created_at/author_id 不变
	Update(ctx context.Context, post *model.Post) error
	List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).
		Model(post).
		Omit(clause.Associations).
		Select("text", "group_id", "image", "updated_at").
		Updates(post).Error
}

func (r *postRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Scopes(f.scope).
		Preload("Author").
		Preload("Group").
		Order(model.PostOrder).
		Offset(offset).
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Scopes(f.scope).Count(&cnt).Error
	return cnt, err
}

func (f PostFilter) scope(db *gorm.DB) *gorm.DB {
	if f.AuthorID != "" {
		db = db.Where("author_id = ?", f.AuthorID)
	}
	if f.GroupID != "" {
		db = db.Where("group_id = ?", f.GroupID)
	}
	if f.AuthorIDs != nil {
		if len(f.AuthorIDs) == 0 {
			return db.Where("1 = 0")
		}
		db = db.Where("author_id IN ?", f.AuthorIDs)
	}
	return db
}
