package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/logger"
	"github.com/d60-Lab/microblog/pkg/paginator"
	"github.com/d60-Lab/microblog/pkg/response"
)

// Services handler 依赖的全部服务
type Services struct {
	Relationships service.RelationshipService
	Feed          service.FeedService
	Posts         service.PostService
	Comments      service.CommentService
	Groups        service.GroupService
	Users         service.UserService
	Profiles      service.ProfileService
}

type Handler struct {
	relService     service.RelationshipService
	feedService    service.FeedService
	postService    service.PostService
	commentService service.CommentService
	groupService   service.GroupService
	userService    service.UserService
	profileService service.ProfileService
	pageSize       int
}

func NewHandler(s Services, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = paginator.DefaultSize
	}
	return &Handler{
		relService:     s.Relationships,
		feedService:    s.Feed,
		postService:    s.Posts,
		commentService: s.Comments,
		groupService:   s.Groups,
		userService:    s.Users,
		profileService: s.Profiles,
		pageSize:       pageSize,
	}
}

func (h *Handler) page(c *gin.Context) int {
	return paginator.ParsePage(c.Query("page"))
}

// writeError 服务层错误到 HTTP 状态码的唯一映射点
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]response.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = response.FieldError{Field: f.Field, Message: f.Message}
		}
		response.ValidationFailed(c, fields)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrFollowSelf):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(c, err.Error())
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c, err)
	}
}
