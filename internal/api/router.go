package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/microblog/docs"
	"github.com/d60-Lab/microblog/internal/api/handler"
	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/pkg/jwt"
)

// Options 路由的可选组件
type Options struct {
	ServiceName string
	Tokens      *jwt.Manager
	PageCache   cache.PageCache
	RateLimit   *middleware.RateLimiter
	MediaRoot   string
	Swagger     bool
}

// NewRouter 注册全部路由
func NewRouter(h *handler.Handler, opts Options) *gin.Engine {
	r := gin.New()
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(
		middleware.Logger(),
		middleware.Recovery(),
		middleware.Sentry(),
		middleware.ReportErrors(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit.Middleware())
	}

	pageCache := opts.PageCache
	if pageCache == nil {
		pageCache = cache.NoopPageCache{}
	}

	r.GET("/health", h.Health)
	if opts.Swagger {
		docs.SwaggerInfo.BasePath = "/api/v1"
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.MediaRoot != "" {
		r.Static("/media", opts.MediaRoot)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(opts.Tokens))
	{
		v1.GET("/posts", middleware.PageCache(pageCache), h.Index)
		v1.GET("/posts/:id", h.PostDetail)
		v1.GET("/groups", h.ListGroups)
		v1.GET("/groups/:slug/posts", h.GroupPosts)
		v1.GET("/profiles/:username", h.Profile)
		v1.GET("/profiles/:username/following", h.ListFollowing)
		v1.GET("/profiles/:username/followers", h.ListFollowers)
		v1.GET("/about/author", h.AboutAuthor)
		v1.GET("/about/tech", h.AboutTech)

		auth := v1.Group("/auth")
		{
			auth.POST("/signup", h.SignUp)
			auth.POST("/login", h.Login)
		}

		authed := v1.Group("")
		authed.Use(middleware.RequireAuth())
		{
			authed.GET("/feed", h.Feed)
			authed.POST("/posts", h.CreatePost)
			authed.PUT("/posts/:id", h.EditPost)
			authed.POST("/posts/:id/comments", h.AddComment)
			authed.POST("/profiles/:username/follow", h.Follow)
			authed.POST("/profiles/:username/unfollow", h.Unfollow)
			authed.POST("/groups", h.CreateGroup)
			authed.PATCH("/groups/:slug", h.UpdateGroup)
			authed.DELETE("/groups/:slug", h.DeleteGroup)
		}
	}
	return r
}
