package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/pkg/response"
)

// AboutAuthor 静态页：关于作者
// @Summary 关于作者
// @Tags 其他
// @Success 200 {object} response.Response
// @Router /about/author [get]
func (h *Handler) AboutAuthor(c *gin.Context) {
	response.Success(c, gin.H{
		"title": "About the author",
		"body":  "A small blogging platform built as a learning project.",
	})
}

// AboutTech 静态页：技术栈
// @Summary 技术栈
// @Tags 其他
// @Success 200 {object} response.Response
// @Router /about/tech [get]
func (h *Handler) AboutTech(c *gin.Context) {
	response.Success(c, gin.H{
		"title": "Technologies",
		"stack": []string{"Go", "Gin", "GORM", "PostgreSQL", "Redis", "NATS", "OpenTelemetry"},
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
