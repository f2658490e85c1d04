package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/pkg/database"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type countingInvalidator struct {
	mu     sync.Mutex
	clears int
}

func (c *countingInvalidator) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	return nil
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	follows  repository.FollowRepository
	posts    repository.PostRepository
	groups   repository.GroupRepository
	comments repository.CommentRepository
	pub      *recordingPublisher
	inv      *countingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)
	return &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowRepository(db),
		posts:    repository.NewPostRepository(db),
		groups:   repository.NewGroupRepository(db),
		comments: repository.NewCommentRepository(db),
		pub:      &recordingPublisher{},
		inv:      &countingInvalidator{},
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.New().String(), Username: name, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) staff(t *testing.T, name string) *model.User {
	t.Helper()
	u := f.user(t, name)
	require.NoError(t, f.users.SetStaff(context.Background(), u.ID, true))
	return u
}

// post 以固定时间写入，保证排序可预期
func (f *fixture) post(t *testing.T, author *model.User, text string, at time.Time) *model.Post {
	t.Helper()
	p := &model.Post{ID: uuid.New().String(), AuthorID: author.ID, Text: text, CreatedAt: at}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}

func (f *fixture) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{ID: uuid.New().String(), Title: slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, f.groups.Create(context.Background(), g))
	return g
}

func (f *fixture) relationships() RelationshipService {
	return NewRelationshipService(f.follows, f.users, f.pub)
}

func (f *fixture) postService() PostService {
	return NewPostService(f.posts, f.groups, f.comments, nil, f.inv, f.pub)
}
