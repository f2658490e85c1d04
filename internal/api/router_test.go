package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/microblog/internal/api/handler"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/pkg/database"
	"github.com/d60-Lab/microblog/pkg/jwt"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	pc := cache.NewRedisPageCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	tokens := jwt.NewManager("test-secret", time.Hour)

	services := NewServices(db, Deps{Tokens: tokens, Invalidator: pc, FeedPageSize: 10})
	r := NewRouter(handler.NewHandler(services, 10), Options{Tokens: tokens, PageCache: pc})
	return &testServer{t: t, db: db, router: r}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

// register 注册并登录，返回 token
func (s *testServer) register(username string) string {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": username, "password": "password-123"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": "password-123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &out))
	return out.Token
}

type postsPage struct {
	Items []struct {
		ID     string `json:"id"`
		Text   string `json:"text"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"items"`
	Number     int  `json:"page_number"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestFollowEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	s.register("bob")
	s.register("carol")

	w, _ := s.do(http.MethodPost, "/api/v1/profiles/bob/follow", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/profiles/bob/follow", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/profiles/bob/follow", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/profiles/alice/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/profiles/ghost/follow", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/profiles/carol/unfollow", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var edges int64
	require.NoError(t, s.db.Model(&model.Follow{}).Count(&edges).Error)
	assert.EqualValues(t, 1, edges)

	w, env := s.do(http.MethodGet, "/api/v1/profiles/bob/followers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	followers := decode[struct {
		Items []string `json:"items"`
	}](t, env.Data)
	assert.Equal(t, []string{"alice"}, followers.Items)

	w, env = s.do(http.MethodGet, "/api/v1/profiles/bob", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[struct {
		Following bool `json:"following"`
	}](t, env.Data)
	assert.True(t, profile.Following)

	w, _ = s.do(http.MethodGet, "/api/v1/profiles/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	dave := s.register("dave")

	w, _ := s.do(http.MethodGet, "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/feed?page=7", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode[postsPage](t, env.Data)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.Number)

	w, _ = s.do(http.MethodPost, "/api/v1/posts", bob, gin.H{"text": "from bob"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = s.do(http.MethodPost, "/api/v1/posts", dave, gin.H{"text": "from dave"})
	require.Equal(t, http.StatusCreated, w.Code)
	s.do(http.MethodPost, "/api/v1/profiles/bob/follow", alice, nil)

	w, env = s.do(http.MethodGet, "/api/v1/feed?page=abc", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[postsPage](t, env.Data)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "from bob", feed.Items[0].Text)
	assert.Equal(t, "bob", feed.Items[0].Author.Username)
}

func TestPostValidationAndOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	w, env := s.do(http.MethodPost, "/api/v1/posts", alice, gin.H{"text": ""})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode[struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}](t, env.Data)
	require.NotEmpty(t, fields.Fields)
	assert.Equal(t, "text", fields.Fields[0].Field)

	w, env = s.do(http.MethodPost, "/api/v1/posts", alice, gin.H{"text": "mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[struct {
		ID string `json:"id"`
	}](t, env.Data)

	w, _ = s.do(http.MethodPut, "/api/v1/posts/"+post.ID, bob, gin.H{"text": "stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPut, "/api/v1/posts/"+post.ID, alice, gin.H{"text": "edited"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", bob, gin.H{"text": "nice"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[struct {
		Post struct {
			Text string `json:"text"`
		} `json:"post"`
		Comments []struct {
			Text string `json:"text"`
		} `json:"comments"`
	}](t, env.Data)
	assert.Equal(t, "edited", detail.Post.Text)
	require.Len(t, detail.Comments, 1)

	w, _ = s.do(http.MethodGet, "/api/v1/posts/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostMultipartWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", "with picture"))
	fw, err := mw.CreateFormFile("image", "pic.gif")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("GIF89a"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, _ := s.send(req, alice)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreatePostMultipartBody(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	// 没有图片字段的表单正常发帖
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", "text only"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, _ := s.send(req, alice)
	assert.Equal(t, http.StatusCreated, w.Code)

	// 截断的表单不能当作“没有图片”
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", "broken"))
	fw, err := mw.CreateFormFile("image", "pic.gif")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("GIF89a"))
	truncated := buf.Bytes()[:buf.Len()-4]
	req = httptest.NewRequest(http.MethodPost, "/api/v1/posts", bytes.NewReader(truncated))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, _ = s.send(req, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var posts int64
	require.NoError(t, s.db.Model(&model.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 1, posts)
}

func TestIndexPageCache(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	w, _ := s.do(http.MethodPost, "/api/v1/posts", alice, gin.H{"text": "first"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Len(t, decode[postsPage](t, env.Data).Items, 1)

	// 绕过服务层直接写库：缓存不会被清理，继续返回旧页面
	var author model.User
	require.NoError(t, s.db.Where("username = ?", "alice").First(&author).Error)
	require.NoError(t, s.db.WithContext(context.Background()).Omit(clause.Associations).Create(&model.Post{
		ID: uuid.New().String(), AuthorID: author.ID, Text: "sneaky",
	}).Error)

	w, env = s.do(http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Len(t, decode[postsPage](t, env.Data).Items, 1)

	w, _ = s.do(http.MethodGet, "/api/v1/posts?page=2", "", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w, _ = s.do(http.MethodPost, "/api/v1/posts", alice, gin.H{"text": "third"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Len(t, decode[postsPage](t, env.Data).Items, 3)
}

func TestGroupEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	body := gin.H{"title": "Cats", "slug": "cats", "description": "all cats"}
	w, _ := s.do(http.MethodPost, "/api/v1/groups", alice, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, s.db.Model(&model.User{}).Where("username = ?", "alice").Update("is_staff", true).Error)
	w, env := s.do(http.MethodPost, "/api/v1/groups", alice, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	group := decode[struct {
		ID string `json:"id"`
	}](t, env.Data)

	w, _ = s.do(http.MethodPost, "/api/v1/groups", alice, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/posts", alice, gin.H{"text": "meow", "group_id": group.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/groups/cats/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[struct {
		Posts postsPage `json:"posts"`
	}](t, env.Data)
	assert.Len(t, listing.Posts.Items, 1)

	w, _ = s.do(http.MethodGet, "/api/v1/groups/dogs/posts", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/v1/groups/cats", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[postsPage](t, env.Data).Items, 1)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	w, _ := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": "alice", "password": "password-123"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/feed", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/about/tech", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
