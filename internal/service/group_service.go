package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

type GroupInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Slug        string `json:"slug" validate:"required,max=190,slug"`
	Description string `json:"description" validate:"notblank"`
}

type GroupDescriptionInput struct {
	Description string `json:"description" validate:"notblank"`
}

// GroupService 分组管理，写操作仅限 staff
type GroupService interface {
	Create(ctx context.Context, actorID string, in GroupInput) (*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
	UpdateDescription(ctx context.Context, actorID, slug string, in GroupDescriptionInput) (*model.Group, error)
	Delete(ctx context.Context, actorID, slug string) error
}

type groupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	cache     cache.Invalidator
}

func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository, inv cache.Invalidator) GroupService {
	return &groupService{groupRepo: groupRepo, userRepo: userRepo, cache: inv}
}

func (s *groupService) requireStaff(ctx context.Context, actorID string) error {
	u, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return notFound("user", err)
	}
	if !u.IsStaff {
		return ErrForbidden
	}
	return nil
}

func (s *groupService) Create(ctx context.Context, actorID string, in GroupInput) (*model.Group, error) {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	g := &model.Group{ID: uuid.New().String(), Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := s.groupRepo.Create(ctx, g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("group %q: %w", in.Slug, ErrConflict)
		}
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

func (s *groupService) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	g, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound("group", err)
	}
	return g, nil
}

func (s *groupService) List(ctx context.Context) ([]*model.Group, error) {
	return s.groupRepo.List(ctx)
}

func (s *groupService) UpdateDescription(ctx context.Context, actorID, slug string, in GroupDescriptionInput) (*model.Group, error) {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return nil, err
	}
	g, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.groupRepo.UpdateDescription(ctx, g.ID, in.Description); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	g.Description = in.Description
	invalidate(ctx, s.cache)
	return g, nil
}

func (s *groupService) Delete(ctx context.Context, actorID, slug string) error {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return err
	}
	g, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.groupRepo.Delete(ctx, g.ID); err != nil {
		return notFound("group", err)
	}
	invalidate(ctx, s.cache)
	return nil
}
