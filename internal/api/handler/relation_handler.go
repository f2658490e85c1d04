package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/pkg/response"
)

// Follow 关注作者（幂等）
// @Summary 关注作者
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param username path string true "作者用户名"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "不能关注自己"
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/{username}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	username := c.Param("username")
	if err := h.relService.Follow(c.Request.Context(), middleware.UserID(c), username); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"username": username, "following": true})
}

// Unfollow 取消关注；原本未关注也返回成功
// @Summary 取消关注
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param username path string true "作者用户名"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/{username}/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.relService.Unfollow(c.Request.Context(), middleware.UserID(c), username); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"username": username, "following": false})
}

// ListFollowing 查询某作者关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param username path string true "作者用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=paginator.Page[string]}
// @Failure 404 {object} response.Response
// @Router /profiles/{username}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, err := h.relService.ListFollowing(c.Request.Context(), c.Param("username"), h.page(c), h.pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, page)
}

// ListFollowers 查询某作者的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param username path string true "作者用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=paginator.Page[string]}
// @Failure 404 {object} response.Response
// @Router /profiles/{username}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	page, err := h.relService.ListFollowers(c.Request.Context(), c.Param("username"), h.page(c), h.pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, page)
}

// Feed 关注流：只包含当前关注作者的帖子，新帖在前
// @Summary 关注流
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=paginator.Page[model.Post]}
// @Failure 401 {object} response.Response
// @Router /feed [get]
func (h *Handler) Feed(c *gin.Context) {
	page, err := h.feedService.Feed(c.Request.Context(), middleware.UserID(c), h.page(c), h.pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, page)
}

// Profile 作者主页
// @Summary 作者主页
// @Tags 作者
// @Produce json
// @Param username path string true "作者用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=service.Profile}
// @Failure 404 {object} response.Response
// @Router /profiles/{username} [get]
func (h *Handler) Profile(c *gin.Context) {
	p, err := h.profileService.Profile(c.Request.Context(), middleware.UserID(c), c.Param("username"), h.page(c), h.pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, p)
}
