// Package events 发布领域事件（帖子、评论、关注变化），供通知等下游服务订阅。
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	PostCreated    = "post.created"
	PostUpdated    = "post.updated"
	CommentCreated = "comment.created"
	FollowCreated  = "follow.created"
	FollowDeleted  = "follow.deleted"
)

// Event 事件体。ActorID 为操作人，ObjectID 为被操作对象（帖子/评论/被关注者）
type Event struct {
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id"`
	ObjectID   string    `json:"object_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(typ, actorID, objectID string) Event {
	return Event{Type: typ, ActorID: actorID, ObjectID: objectID, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher 未配置 NATS 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject 例如 microblog.post.created
func (p *NATSPublisher) Subject(typ string) string {
	if p.prefix == "" {
		return typ
	}
	return p.prefix + "." + typ
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &nats.Msg{
		Subject: p.Subject(ev.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	// 把当前 trace 上下文注入消息头，消费端可以接上链路
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return p.nc.PublishMsg(msg)
}
