package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

type CommentInput struct {
	Text string `json:"text" validate:"notblank"`
}

type CommentService interface {
	Add(ctx context.Context, authorID, postID string, in CommentInput) (*model.Comment, error)
	ListForPost(ctx context.Context, postID string) ([]*model.Comment, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	cache       cache.Invalidator
	publisher   events.Publisher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	inv cache.Invalidator,
	publisher events.Publisher,
) CommentService {
	return &commentService{commentRepo: commentRepo, postRepo: postRepo, userRepo: userRepo, cache: inv, publisher: publisher}
}

func (s *commentService) Add(ctx context.Context, authorID, postID string, in CommentInput) (*model.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, notFound("post", err)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	c := &model.Comment{
		ID:       uuid.New().String(),
		PostID:   postID,
		AuthorID: authorID,
		Text:     in.Text,
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if author, err := s.userRepo.GetByID(ctx, authorID); err == nil {
		c.Author = *author
	}

	invalidate(ctx, s.cache)
	publish(ctx, s.publisher, events.New(events.CommentCreated, authorID, c.ID))
	return c, nil
}

func (s *commentService) ListForPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, notFound("post", err)
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
