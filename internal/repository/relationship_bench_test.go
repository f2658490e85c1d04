package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/d60-Lab/microblog/internal/model"
)

func BenchmarkFollowWrite(b *testing.B) {
	db := setupDB(b)
	followRepo := NewFollowRepository(db)
	ctx := context.Background()

	// 预创建部分用户
	users := make([]model.User, 1000)
	for i := range users {
		users[i] = model.User{ID: fmt.Sprintf("u%04d", i), Username: fmt.Sprintf("u%04d", i), PasswordHash: "p"}
	}
	if err := db.Create(&users).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}

	rnd := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rnd.Intn(len(users))].ID
		to := users[rnd.Intn(len(users))].ID
		if from == to {
			continue
		}
		_, _ = followRepo.Create(ctx, from, to)
	}
}

func BenchmarkFeedQuery(b *testing.B) {
	db := setupDB(b)
	followRepo := NewFollowRepository(db)
	postRepo := NewPostRepository(db)
	ctx := context.Background()

	// 构造：u0 关注 N 个作者，每个作者 10 篇帖子
	const N = 200
	u0 := model.User{ID: "u0", Username: "u0", PasswordHash: "p"}
	_ = db.Create(&u0).Error
	for i := 1; i <= N; i++ {
		uid := fmt.Sprintf("u%d", i)
		_ = db.Create(&model.User{ID: uid, Username: uid, PasswordHash: "p"}).Error
		_, _ = followRepo.Create(ctx, u0.ID, uid)
		for j := 0; j < 10; j++ {
			_ = postRepo.Create(ctx, &model.Post{ID: uuid.New().String(), AuthorID: uid, Text: "hello"})
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ids, _ := followRepo.ListFolloweeIDs(ctx, u0.ID)
		f := PostFilter{AuthorIDs: ids}
		_, _ = postRepo.Count(ctx, f)
		_, _ = postRepo.List(ctx, f, 0, 10)
	}
}
