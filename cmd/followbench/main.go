package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// timed 并发执行 n 次 fn，返回每次耗时
func timed(n, conc int, fn func(i int)) ([]time.Duration, time.Duration) {
	if conc > n {
		conc = n
	}
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	out := make(chan time.Duration, n)
	var wg sync.WaitGroup
	t0 := time.Now()
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				st := time.Now()
				fn(i)
				out <- time.Since(st)
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)
	close(out)

	recs := make([]time.Duration, 0, n)
	for d := range out {
		recs = append(recs, d)
	}
	return recs, total
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	ctx := context.Background()

	N := envInt("N", 2000)        // followers of the celebrity
	CONC := envInt("CONC", 16)    // concurrent callers
	REPEAT := envInt("REPEAT", 3) // duplicate follow attempts per follower
	POSTS := envInt("POSTS", 200) // posts per followed author
	AUTHORS := envInt("AUTHORS", 20)
	READS := envInt("READS", 200)

	followRepo := repository.NewFollowRepository(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	rels := service.NewRelationshipService(followRepo, userRepo, events.NopPublisher{})
	feed := service.NewFeedService(followRepo, postRepo, cfg.Feed.PageSize)

	run := uuid.NewString()[:8]
	celeb := model.User{ID: uuid.NewString(), Username: "celeb_" + run, PasswordHash: "x"}
	mustDo(userRepo.Create(ctx, &celeb))

	users := make([]model.User, N)
	for i := range users {
		users[i] = model.User{ID: uuid.NewString(), Username: fmt.Sprintf("f_%s_%d", run, i), PasswordHash: "x"}
	}
	mustDo(db.CreateInBatches(&users, 500).Error)

	// 1. 关注竞争：每个粉丝重复关注 REPEAT 次，最终每对只应有一条边
	recs, total := timed(N*REPEAT, CONC, func(i int) {
		_ = rels.Follow(ctx, users[i%N].ID, celeb.Username)
	})
	followers := must(followRepo.CountFollowers(ctx, celeb.ID))
	fmt.Printf("N=%d CONC=%d REPEAT=%d\n", N, CONC, REPEAT)
	fmt.Printf("Follow: total=%v per op=%v p50=%v p95=%v p99=%v\n",
		total, total/time.Duration(len(recs)), pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	fmt.Printf("Edges for celebrity: %d (want %d)\n", followers, N)

	// 2. 关注流读取：viewer 关注 AUTHORS 个作者，每人 POSTS 篇
	viewer := users[0]
	authors := make([]model.User, AUTHORS)
	for i := range authors {
		authors[i] = model.User{ID: uuid.NewString(), Username: fmt.Sprintf("a_%s_%d", run, i), PasswordHash: "x"}
	}
	mustDo(db.CreateInBatches(&authors, 500).Error)
	posts := make([]model.Post, 0, AUTHORS*POSTS)
	base := time.Now().Add(-time.Duration(AUTHORS*POSTS) * time.Second)
	for i, a := range authors {
		_ = rels.Follow(ctx, viewer.ID, a.Username)
		for j := 0; j < POSTS; j++ {
			posts = append(posts, model.Post{
				ID:        uuid.NewString(),
				AuthorID:  a.ID,
				Text:      fmt.Sprintf("post %d by %d", j, i),
				CreatedAt: base.Add(time.Duration(j*AUTHORS+i) * time.Second),
			})
		}
	}
	mustDo(db.Omit("Author", "Group").CreateInBatches(&posts, 500).Error)

	pages := AUTHORS * POSTS / cfg.Feed.PageSize
	if pages < 1 {
		pages = 1
	}
	recs, total = timed(READS, CONC, func(i int) {
		_, _ = feed.Feed(ctx, viewer.ID, 1+i%pages, 0)
	})
	fmt.Printf("Feed (%d authors x %d posts): total=%v p50=%v p95=%v p99=%v\n",
		AUTHORS, POSTS, total, pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))

	// 3. 整页缓存：有 redis 时比较命中与回源
	if cfg.Redis.Addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer client.Close()
	pc := cache.NewRedisPageCache(client, cfg.Cache.PageTTL)
	_ = pc.Clear(ctx)

	const key = "/api/v1/posts?page=1"
	body := []byte(fmt.Sprintf(`{"bench":%q}`, run))
	recs, _ = timed(READS, CONC, func(int) {
		if _, ok, _ := pc.Get(ctx, key); !ok {
			gen, _ := pc.Generation(ctx)
			_, _ = feed.Feed(ctx, viewer.ID, 1, 0)
			_ = pc.Set(ctx, key, gen, body)
		}
	})
	fmt.Printf("Page cache reads: p50=%v p95=%v p99=%v\n", pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	_ = pc.Clear(ctx)
}
