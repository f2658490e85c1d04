package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/response"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp 注册
// @Summary 注册
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body service.SignUpInput true "注册信息"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 422 {object} response.Response
// @Router /auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	var in service.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userService.SignUp(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, u)
}

// Login 登录，返回 Bearer token
// @Summary 登录
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body loginRequest true "用户名密码"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, u, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "user": u})
}
