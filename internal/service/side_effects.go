package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/pkg/logger"
)

// 写操作的附带动作：失败只记日志，不影响主流程结果

func publish(ctx context.Context, pub events.Publisher, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		logger.Warn("publish event failed",
			zap.String("type", ev.Type),
			zap.String("object", ev.ObjectID),
			zap.Error(err))
	}
}

func invalidate(ctx context.Context, inv cache.Invalidator) {
	if inv == nil {
		return
	}
	if err := inv.Clear(ctx); err != nil {
		logger.Warn("page cache clear failed", zap.Error(err))
	}
}
