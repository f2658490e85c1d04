package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/pkg/logger"
)

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// PageCache 整页缓存：命中直接返回，未命中时记录 200 响应体。
// key 为完整 RequestURI，不同 ?page= 各自缓存。
func PageCache(pc cache.PageCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := c.Request.URL.RequestURI()

		body, ok, err := pc.Get(ctx, key)
		if err != nil {
			logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		// 渲染前取代数，期间若有写操作清空缓存，本次结果不再写入
		gen, err := pc.Generation(ctx)
		if err != nil {
			logger.Warn("page cache generation failed", zap.Error(err))
			c.Next()
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()

		if w.Status() != http.StatusOK {
			return
		}
		if err := pc.Set(ctx, key, gen, w.body.Bytes()); err != nil {
			logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}
