package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/response"
)

// ListGroups
// @Summary 分组列表
// @Tags 分组
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Group}
// @Router /groups [get]
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, groups)
}

// CreateGroup 仅管理员
// @Summary 创建分组
// @Tags 分组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GroupInput true "分组信息"
// @Success 201 {object} response.Response{data=model.Group}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /groups [post]
func (h *Handler) CreateGroup(c *gin.Context) {
	var in service.GroupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	g, err := h.groupService.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, g)
}

// UpdateGroup 只允许修改描述
// @Summary 修改分组描述
// @Tags 分组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "分组 slug"
// @Param request body service.GroupDescriptionInput true "描述"
// @Success 200 {object} response.Response{data=model.Group}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{slug} [patch]
func (h *Handler) UpdateGroup(c *gin.Context) {
	var in service.GroupDescriptionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	g, err := h.groupService.UpdateDescription(c.Request.Context(), middleware.UserID(c), c.Param("slug"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, g)
}

// DeleteGroup 删除分组，帖子保留
// @Summary 删除分组
// @Tags 分组
// @Security BearerAuth
// @Param slug path string true "分组 slug"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{slug} [delete]
func (h *Handler) DeleteGroup(c *gin.Context) {
	if err := h.groupService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("slug")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
