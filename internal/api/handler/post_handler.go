package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/api/middleware"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/response"
)

type postRequest struct {
	Text    string `json:"text" form:"text"`
	GroupID string `json:"group_id" form:"group_id"`
}

// bindPost 支持 JSON 和带图片的 multipart 表单
func bindPost(c *gin.Context) (service.PostInput, func(), error) {
	var req postRequest
	noop := func() {}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			return service.PostInput{}, noop, err
		}
		in := service.PostInput{Text: req.Text, GroupID: req.GroupID}
		fh, err := c.FormFile("image")
		if errors.Is(err, http.ErrMissingFile) {
			return in, noop, nil
		}
		if err != nil {
			return service.PostInput{}, noop, err
		}
		f, err := fh.Open()
		if err != nil {
			return service.PostInput{}, noop, err
		}
		in.Image = f
		return in, func() { _ = f.Close() }, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.PostInput{}, noop, err
	}
	return service.PostInput{Text: req.Text, GroupID: req.GroupID}, noop, nil
}

// Index 全站帖子，新帖在前
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=paginator.Page[model.Post]}
// @Router /posts [get]
func (h *Handler) Index(c *gin.Context) {
	page, err := h.postService.ListAll(c.Request.Context(), h.page(c), h.pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, page)
}

// GroupPosts 分组下的帖子
// @Summary 分组帖子列表
// @Tags 帖子
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /groups/{slug}/posts [get]
func (h *Handler) GroupPosts(c *gin.Context) {
	group, page, err := h.postService.ListByGroup(c.Request.Context(), c.Param("slug"), h.page(c), h.pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"group": group, "posts": page})
}

// PostDetail 帖子详情
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=service.PostDetail}
// @Failure 404 {object} response.Response
// @Router /posts/{id} [get]
func (h *Handler) PostDetail(c *gin.Context) {
	d, err := h.postService.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, d)
}

// CreatePost 发帖
// @Summary 发帖
// @Tags 帖子
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body postRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.Post}
// @Failure 422 {object} response.Response
// @Router /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	in, done, err := bindPost(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer done()

	post, err := h.postService.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, post)
}

// EditPost 编辑帖子，仅作者本人
// @Summary 编辑帖子
// @Tags 帖子
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param request body postRequest true "帖子内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /posts/{id} [put]
func (h *Handler) EditPost(c *gin.Context) {
	in, done, err := bindPost(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer done()

	post, err := h.postService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, post)
}
