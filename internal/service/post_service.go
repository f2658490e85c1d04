package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/media"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/pkg/logger"
	"github.com/d60-Lab/microblog/pkg/paginator"
)

// PostInput 发帖/编辑表单
type PostInput struct {
	Text    string    `json:"text" validate:"notblank"`
	GroupID string    `json:"group_id" validate:"omitempty,max=36"`
	Image   io.Reader `json:"-" validate:"-"`
}

// PostDetail 帖子详情页数据
type PostDetail struct {
	Post            *model.Post      `json:"post"`
	AuthorPostCount int64            `json:"author_post_count"`
	Comments        []*model.Comment `json:"comments"`
}

type PostService interface {
	Create(ctx context.Context, authorID string, in PostInput) (*model.Post, error)
	// Update 仅作者本人可编辑，否则 ErrForbidden
	Update(ctx context.Context, editorID, postID string, in PostInput) (*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Detail(ctx context.Context, id string) (*PostDetail, error)
	ListAll(ctx context.Context, page, pageSize int) (paginator.Page[*model.Post], error)
	ListByGroup(ctx context.Context, slug string, page, pageSize int) (*model.Group, paginator.Page[*model.Post], error)
	ListByAuthor(ctx context.Context, authorID string, page, pageSize int) (paginator.Page[*model.Post], error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}

type postService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	storage     media.Storage
	cache       cache.Invalidator
	publisher   events.Publisher
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	commentRepo repository.CommentRepository,
	storage media.Storage,
	inv cache.Invalidator,
	publisher events.Publisher,
) PostService {
	return &postService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		commentRepo: commentRepo,
		storage:     storage,
		cache:       inv,
		publisher:   publisher,
	}
}

func (s *postService) Create(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	groupID, err := s.checkInput(ctx, in)
	if err != nil {
		return nil, err
	}
	post := &model.Post{
		ID:       uuid.New().String(),
		Text:     in.Text,
		AuthorID: authorID,
		GroupID:  groupID,
	}
	if in.Image != nil {
		if post.Image, err = s.saveImage(in.Image); err != nil {
			return nil, err
		}
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.removeImage(post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}

	invalidate(ctx, s.cache)
	publish(ctx, s.publisher, events.New(events.PostCreated, authorID, post.ID))
	return s.Get(ctx, post.ID)
}

func (s *postService) Update(ctx context.Context, editorID, postID string, in PostInput) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound("post", err)
	}
	if post.AuthorID != editorID {
		return nil, ErrForbidden
	}
	groupID, err := s.checkInput(ctx, in)
	if err != nil {
		return nil, err
	}

	oldImage := post.Image
	post.Text = in.Text
	post.GroupID = groupID
	post.UpdatedAt = time.Now()
	if in.Image != nil {
		if post.Image, err = s.saveImage(in.Image); err != nil {
			return nil, err
		}
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.removeImage(post.Image)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	if post.Image != oldImage {
		s.removeImage(oldImage)
	}

	invalidate(ctx, s.cache)
	publish(ctx, s.publisher, events.New(events.PostUpdated, editorID, post.ID))
	return s.Get(ctx, post.ID)
}

// checkInput 结构校验 + 分组存在性校验，返回规范化后的 group id
func (s *postService) checkInput(ctx context.Context, in PostInput) (*string, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.GroupID == "" {
		return nil, nil
	}
	g, err := s.groupRepo.GetByID(ctx, in.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newValidationError("group_id", "select a valid group")
		}
		return nil, err
	}
	return &g.ID, nil
}

func (s *postService) saveImage(r io.Reader) (string, error) {
	if s.storage == nil {
		return "", newValidationError("image", "image uploads are disabled")
	}
	rel, err := s.storage.SavePostImage(r)
	switch {
	case errors.Is(err, media.ErrNotImage):
		return "", newValidationError("image", "upload a valid image")
	case errors.Is(err, media.ErrTooLarge):
		return "", newValidationError("image", "image is too large")
	case err != nil:
		return "", err
	}
	return rel, nil
}

// removeImage 清理没有帖子引用的配图，失败只记日志
func (s *postService) removeImage(rel string) {
	if rel == "" || s.storage == nil {
		return
	}
	if err := s.storage.Remove(rel); err != nil {
		logger.Warn("remove post image failed", zap.String("image", rel), zap.Error(err))
	}
}

func (s *postService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("post", err)
	}
	return post, nil
}

func (s *postService) Detail(ctx context.Context, id string) (*PostDetail, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &PostDetail{Post: post, AuthorPostCount: count, Comments: comments}, nil
}

func (s *postService) ListAll(ctx context.Context, page, pageSize int) (paginator.Page[*model.Post], error) {
	return listPosts(ctx, s.postRepo, repository.PostFilter{}, page, pageSize)
}

func (s *postService) ListByGroup(ctx context.Context, slug string, page, pageSize int) (*model.Group, paginator.Page[*model.Post], error) {
	g, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, paginator.Page[*model.Post]{}, notFound("group", err)
	}
	p, err := listPosts(ctx, s.postRepo, repository.PostFilter{GroupID: g.ID}, page, pageSize)
	return g, p, err
}

func (s *postService) ListByAuthor(ctx context.Context, authorID string, page, pageSize int) (paginator.Page[*model.Post], error) {
	return listPosts(ctx, s.postRepo, repository.PostFilter{AuthorID: authorID}, page, pageSize)
}

func (s *postService) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.postRepo.Count(ctx, repository.PostFilter{AuthorID: authorID})
}
