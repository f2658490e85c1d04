package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/response"
)

// AddComment 评论帖子
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param request body service.CommentInput true "评论内容"
// @Success 201 {object} response.Response{data=model.Comment}
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /posts/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	var in service.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.commentService.Add(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, comment)
}
