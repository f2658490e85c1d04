package events

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/pkg/logger"
)

type job struct {
	ctx   context.Context
	ev    Event
	enqAt time.Time
}

// AsyncPublisher 本地异步投递：请求路径只入队，后台 worker 调用下游 Publisher。
// 队列满时丢弃事件并记录告警，不阻塞写请求。
type AsyncPublisher struct {
	next      Publisher
	ch        chan job
	metricsCh chan time.Duration
	wg        sync.WaitGroup

	// mu 保护 closed，关闭队列与入队互斥
	mu     sync.RWMutex
	closed bool
}

func NewAsyncPublisher(next Publisher, queueSize int) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &AsyncPublisher{
		next:      next,
		ch:        make(chan job, queueSize),
		metricsCh: make(chan time.Duration, 1024),
	}
}

// Start 启动 workers 个投递协程，返回的函数关闭队列并等待排空（受 ctx 限制）
func (p *AsyncPublisher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.ch {
				p.deliver(j)
			}
		}()
	}
	return func(ctx context.Context) error {
		p.close()
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *AsyncPublisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}

func (p *AsyncPublisher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, 5*time.Second)
	defer cancel()
	if err := p.next.Publish(ctx, j.ev); err != nil {
		logger.Warn("deliver event failed", zap.String("type", j.ev.Type), zap.Error(err))
	}
	select {
	case p.metricsCh <- time.Since(j.enqAt):
	default:
	}
}

// Publish 入队。只保留调用方的 span 上下文，请求结束后的取消不影响投递；
// 停止后到达的事件直接丢弃
func (p *AsyncPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		logger.Warn("event publisher stopped, drop event", zap.String("type", ev.Type), zap.String("object", ev.ObjectID))
		return nil
	}
	detached := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))
	select {
	case p.ch <- job{ctx: detached, ev: ev, enqAt: time.Now()}:
	default:
		logger.Warn("event queue full, drop event", zap.String("type", ev.Type), zap.String("object", ev.ObjectID))
	}
	return nil
}

// Metrics 入队到投递完成的耗时采样
func (p *AsyncPublisher) Metrics() <-chan time.Duration { return p.metricsCh }

// QueueLen 当前积压数量
func (p *AsyncPublisher) QueueLen() int { return len(p.ch) }
