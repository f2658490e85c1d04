package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/pkg/paginator"
)

// FeedService 关注流：实时按当前关注边查询，不做扇出写入
type FeedService interface {
	Feed(ctx context.Context, viewerID string, page, pageSize int) (paginator.Page[*model.Post], error)
}

type feedService struct {
	followRepo      repository.FollowRepository
	postRepo        repository.PostRepository
	defaultPageSize int
}

func NewFeedService(followRepo repository.FollowRepository, postRepo repository.PostRepository, defaultPageSize int) FeedService {
	if defaultPageSize <= 0 {
		defaultPageSize = paginator.DefaultSize
	}
	return &feedService{followRepo: followRepo, postRepo: postRepo, defaultPageSize: defaultPageSize}
}

func (s *feedService) Feed(ctx context.Context, viewerID string, page, pageSize int) (paginator.Page[*model.Post], error) {
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	ids, err := s.followRepo.ListFolloweeIDs(ctx, viewerID)
	if err != nil {
		return paginator.Page[*model.Post]{}, fmt.Errorf("load followees: %w", err)
	}
	if len(ids) == 0 {
		// 没有关注任何人：空流，而不是全站帖子
		return paginator.FromWindow[*model.Post](paginator.Window(0, page, pageSize), nil), nil
	}
	return listPosts(ctx, s.postRepo, repository.PostFilter{AuthorIDs: ids}, page, pageSize)
}

// listPosts 先计数再按夹取后的页码取一页
func listPosts(ctx context.Context, repo repository.PostRepository, f repository.PostFilter, page, pageSize int) (paginator.Page[*model.Post], error) {
	total, err := repo.Count(ctx, f)
	if err != nil {
		return paginator.Page[*model.Post]{}, fmt.Errorf("count posts: %w", err)
	}
	m := paginator.Window(total, page, pageSize)
	posts, err := repo.List(ctx, f, m.Offset(), m.Limit())
	if err != nil {
		return paginator.Page[*model.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return paginator.FromWindow(m, posts), nil
}
