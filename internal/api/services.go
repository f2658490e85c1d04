package api

import (
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/api/handler"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/media"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/internal/service"
)

// Deps 组装服务层需要的外部依赖
type Deps struct {
	Tokens       service.TokenIssuer
	Invalidator  cache.Invalidator
	Publisher    events.Publisher
	Storage      media.Storage
	FeedPageSize int
}

// NewServices 从同一个 *gorm.DB 组装全部仓储和服务
func NewServices(db *gorm.DB, d Deps) handler.Services {
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Invalidator == nil {
		d.Invalidator = cache.NoopPageCache{}
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	users := service.NewUserService(userRepo, d.Tokens)
	rels := service.NewRelationshipService(followRepo, userRepo, d.Publisher)
	posts := service.NewPostService(postRepo, groupRepo, commentRepo, d.Storage, d.Invalidator, d.Publisher)

	return handler.Services{
		Relationships: rels,
		Feed:          service.NewFeedService(followRepo, postRepo, d.FeedPageSize),
		Posts:         posts,
		Comments:      service.NewCommentService(commentRepo, postRepo, userRepo, d.Invalidator, d.Publisher),
		Groups:        service.NewGroupService(groupRepo, userRepo, d.Invalidator),
		Users:         users,
		Profiles:      service.NewProfileService(users, posts, rels),
	}
}
