package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/pkg/paginator"
)

// FollowCounts 关注数/粉丝数
type FollowCounts struct {
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
}

// RelationshipService 关系链服务
type RelationshipService interface {
	// Follow 幂等；关注自己返回 ErrFollowSelf，作者不存在返回 ErrNotFound
	Follow(ctx context.Context, followerID, followeeUsername string) error
	// Unfollow 幂等；原本没有关注也视为成功
	Unfollow(ctx context.Context, followerID, followeeUsername string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowing(ctx context.Context, username string, page, pageSize int) (paginator.Page[string], error)
	ListFollowers(ctx context.Context, username string, page, pageSize int) (paginator.Page[string], error)
	Counts(ctx context.Context, userID string) (FollowCounts, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	publisher  events.Publisher
}

func NewRelationshipService(followRepo repository.FollowRepository, userRepo repository.UserRepository, publisher events.Publisher) RelationshipService {
	return &relationshipService{followRepo: followRepo, userRepo: userRepo, publisher: publisher}
}

func (s *relationshipService) Follow(ctx context.Context, followerID, followeeUsername string) error {
	followee, err := s.userRepo.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return notFound("author", err)
	}
	if followerID == followee.ID {
		return ErrFollowSelf
	}
	created, err := s.followRepo.Create(ctx, followerID, followee.ID)
	if errors.Is(err, repository.ErrMissingReference) {
		// 令牌对应的账号已被删除
		return fmt.Errorf("follower: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	if created {
		publish(ctx, s.publisher, events.New(events.FollowCreated, followerID, followee.ID))
	}
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, followerID, followeeUsername string) error {
	followee, err := s.userRepo.GetByUsername(ctx, followeeUsername)
	if err != nil {
		return notFound("author", err)
	}
	removed, err := s.followRepo.Delete(ctx, followerID, followee.ID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if removed {
		publish(ctx, s.publisher, events.New(events.FollowDeleted, followerID, followee.ID))
	}
	return nil
}

func (s *relationshipService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == "" || followeeID == "" {
		return false, nil
	}
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, username string, page, pageSize int) (paginator.Page[string], error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return paginator.Page[string]{}, notFound("author", err)
	}
	total, err := s.followRepo.CountFollowings(ctx, u.ID)
	if err != nil {
		return paginator.Page[string]{}, err
	}
	m := paginator.Window(total, page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, u.ID, m.Offset(), m.Limit())
	if err != nil {
		return paginator.Page[string]{}, err
	}
	return paginator.FromWindow(m, items), nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, username string, page, pageSize int) (paginator.Page[string], error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return paginator.Page[string]{}, notFound("author", err)
	}
	total, err := s.followRepo.CountFollowers(ctx, u.ID)
	if err != nil {
		return paginator.Page[string]{}, err
	}
	m := paginator.Window(total, page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, u.ID, m.Offset(), m.Limit())
	if err != nil {
		return paginator.Page[string]{}, err
	}
	return paginator.FromWindow(m, items), nil
}

func (s *relationshipService) Counts(ctx context.Context, userID string) (FollowCounts, error) {
	var c FollowCounts
	var err error
	if c.Following, err = s.followRepo.CountFollowings(ctx, userID); err != nil {
		return c, err
	}
	if c.Followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
		return c, err
	}
	return c, nil
}
