package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/pkg/paginator"
)

// Profile 作者主页
type Profile struct {
	Author    *model.User                 `json:"author"`
	PostCount int64                       `json:"post_count"`
	Counts    FollowCounts                `json:"counts"`
	Following bool                        `json:"following"`
	Posts     paginator.Page[*model.Post] `json:"posts"`
}

type ProfileService interface {
	// Profile viewerID 为空表示匿名访问，Following 恒为 false
	Profile(ctx context.Context, viewerID, username string, page, pageSize int) (*Profile, error)
}

type profileService struct {
	users UserService
	posts PostService
	rels  RelationshipService
}

func NewProfileService(users UserService, posts PostService, rels RelationshipService) ProfileService {
	return &profileService{users: users, posts: posts, rels: rels}
}

func (s *profileService) Profile(ctx context.Context, viewerID, username string, page, pageSize int) (*Profile, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := &Profile{Author: author}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.Posts, err = s.posts.ListByAuthor(gctx, author.ID, page, pageSize)
		return err
	})
	g.Go(func() (err error) {
		p.PostCount, err = s.posts.CountByAuthor(gctx, author.ID)
		return err
	})
	g.Go(func() (err error) {
		p.Counts, err = s.rels.Counts(gctx, author.ID)
		return err
	})
	g.Go(func() (err error) {
		p.Following, err = s.rels.IsFollowing(gctx, viewerID, author.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}
