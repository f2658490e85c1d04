// Package cache 公开帖子列表前的整页缓存
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "page:"
	// genKey 缓存代数，每次 Clear 自增；不落在 page:* 下，Clear 不会删除它
	genKey = "pagegen"
)

// Invalidator 写路径只依赖它：帖子或评论有任何变更都清空全部页面
type Invalidator interface {
	Clear(ctx context.Context) error
}

// PageCache 按路由（path + query）保存渲染好的响应体。
// Set 只在 gen 仍为当前代时写入，渲染期间发生过 Clear 的页面会被丢弃。
type PageCache interface {
	Invalidator
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, route string) ([]byte, bool, error)
	Set(ctx context.Context, route string, gen int64, body []byte) error
}

// RedisPageCache 页面存于 Redis，多实例共享，一次 Clear 全部失效
type RedisPageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPageCache(client *redis.Client, ttl time.Duration) *RedisPageCache {
	if ttl <= 0 {
		ttl = 20 * time.Second
	}
	return &RedisPageCache{client: client, ttl: ttl}
}

func (c *RedisPageCache) Generation(ctx context.Context) (int64, error) {
	return generation(ctx, c.client)
}

func (c *RedisPageCache) Get(ctx context.Context, route string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+route).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set WATCH 代数键，与 Clear 并发时事务失败，页面不写入
func (c *RedisPageCache) Set(ctx context.Context, route string, gen int64, body []byte) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := generation(ctx, tx)
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyPrefix+route, body, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Clear 先推进代数再删除全部页面；SCAN 分批，避免阻塞 Redis
func (c *RedisPageCache) Clear(ctx context.Context) error {
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		return err
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 500).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, r getter) (int64, error) {
	gen, err := r.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// NoopPageCache 不缓存任何内容，未配置 Redis 时使用
type NoopPageCache struct{}

func (NoopPageCache) Generation(context.Context) (int64, error)         { return 0, nil }
func (NoopPageCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopPageCache) Set(context.Context, string, int64, []byte) error  { return nil }
func (NoopPageCache) Clear(context.Context) error                       { return nil }
