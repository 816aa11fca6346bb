package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/dto"
	"github.com/BloggingApp/feed-client/internal/metrics"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/mutation"
	"github.com/BloggingApp/feed-client/internal/pager"
	"github.com/BloggingApp/feed-client/internal/remote"
	"github.com/BloggingApp/feed-client/internal/repository"
	"github.com/BloggingApp/feed-client/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type stubRemote struct {
	mu       sync.Mutex
	page     model.FeedPage
	likeErr  error
	likeGate chan struct{}
}

func (s *stubRemote) FetchFeedPage(ctx context.Context, key model.ViewKey, cursor string) (*model.FeedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.page
	return &page, nil
}

func (s *stubRemote) SubmitLike(ctx context.Context, postID string) (bool, error) {
	if s.likeGate != nil {
		<-s.likeGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likeErr == nil, s.likeErr
}

func (s *stubRemote) SubmitPost(ctx context.Context, content string) (*model.Post, error) {
	return &model.Post{ID: "new", Content: content}, nil
}

func (s *stubRemote) SubmitFollow(ctx context.Context, userID string) (bool, error) {
	return true, nil
}

func (s *stubRemote) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "bob" {
		return &model.Profile{ID: "bob", Name: "Bob", FollowersCount: 3}, nil
	}
	return nil, remote.ErrNotFound
}

var viewer = model.Viewer{ID: "ann", Name: "Ann"}

func newTestRouter(t *testing.T, r *stubRemote, cfg Config) *gin.Engine {
	t.Helper()
	return newTestRouterWithLogger(t, r, cfg, zaptest.NewLogger(t))
}

func newTestRouterWithLogger(t *testing.T, r *stubRemote, cfg Config, logger *zap.Logger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	registry := cache.NewRegistry()
	engine := mutation.New(logger, registry, r, m, mutation.Options{MaxPostLength: 10})
	t.Cleanup(engine.Wait)

	services := service.New(logger, repository.New(nil), service.Deps{
		Registry: registry,
		Pager:    pager.New(logger, registry, r, m, time.Second),
		Engine:   engine,
		Remote:   r,
		Viewer:   viewer,
	})
	return New(logger, services, cfg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).InitRoutes()
}

func do(t *testing.T, router http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestFeedRoutes(t *testing.T) {
	r := &stubRemote{page: model.FeedPage{Posts: []model.Post{{ID: "P1"}, {ID: "P2"}}}}
	router := newTestRouter(t, r, Config{})

	w := do(t, router, http.MethodGet, "/api/v1/feeds/global", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	view := decode[service.FeedView](t, w)
	if !view.HasMore || len(view.Items) != 0 {
		t.Errorf("initial view = %+v", view)
	}

	w = do(t, router, http.MethodPost, "/api/v1/feeds/profile/bob/more", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST more status = %d", w.Code)
	}
	view = decode[service.FeedView](t, w)
	if len(view.Items) != 2 || view.Items[0].ID != "P1" || view.HasMore {
		t.Errorf("loaded view = %+v", view)
	}

	w = do(t, router, http.MethodDelete, "/api/v1/feeds/profile/bob", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", w.Code)
	}
	view = decode[service.FeedView](t, do(t, router, http.MethodGet, "/api/v1/feeds/profile/bob", "", nil))
	if len(view.Items) != 0 {
		t.Errorf("view after discard = %+v", view)
	}
}

func TestLikeRoute(t *testing.T) {
	tests := []struct {
		name       string
		likeErr    error
		wantStatus int
		wantState  string
	}{
		{"confirmed", nil, http.StatusOK, "confirmed"},
		{"rolled back", errors.New("boom"), http.StatusBadGateway, "rolled_back"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubRemote{likeErr: tt.likeErr}, Config{})

			w := do(t, router, http.MethodPost, "/api/v1/posts/P1/like?wait=true", "", nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			resp := decode[dto.MutationResponse](t, w)
			if resp.State != tt.wantState || resp.Kind != "toggle_like" || resp.Target != "P1" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestLikeRouteWaitOutlivedByRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	stub := &stubRemote{likeGate: make(chan struct{})}
	router := newTestRouterWithLogger(t, stub, Config{}, zap.New(core))
	t.Cleanup(func() { close(stub.likeGate) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/P1/like?wait=true", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	resp := decode[dto.MutationResponse](t, w)
	if resp.State != "pending" || resp.Added != nil {
		t.Errorf("response = %+v", resp)
	}
	if n := logs.FilterMessageSnippet("wait for toggle_like(P1)").Len(); n != 1 {
		t.Errorf("wait log entries = %d, want 1", n)
	}
}

func TestCreatePostRoute(t *testing.T) {
	router := newTestRouter(t, &stubRemote{}, Config{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing content", `{}`, http.StatusBadRequest},
		{"too long", `{"content":"far too long for the limit"}`, http.StatusBadRequest},
		{"created", `{"content":"hello"}`, http.StatusOK},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodPost, "/api/v1/posts?wait=true", tt.body, nil)
		if w.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d: %s", tt.name, w.Code, tt.wantStatus, w.Body.String())
		}
	}
}

func TestProfileRoutes(t *testing.T) {
	router := newTestRouter(t, &stubRemote{}, Config{})

	w := do(t, router, http.MethodGet, "/api/v1/profiles/bob", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if p := decode[model.Profile](t, w); p.Name != "Bob" {
		t.Errorf("profile = %+v", p)
	}

	if w := do(t, router, http.MethodGet, "/api/v1/profiles/ghost", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing profile status = %d", w.Code)
	}

	if w := do(t, router, http.MethodPost, "/api/v1/profiles/ann/follow", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("self follow status = %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/api/v1/profiles/bob/follow?wait=true", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("follow status = %d", w.Code)
	}
	if resp := decode[dto.MutationResponse](t, w); resp.Added == nil || !*resp.Added {
		t.Errorf("follow response = %+v", resp)
	}
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "secret"
	router := newTestRouter(t, &stubRemote{}, Config{TokenSecret: secret})

	token := func(id string) http.Header {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id}).SignedString([]byte(secret))
		if err != nil {
			t.Fatal(err)
		}
		return http.Header{"Authorization": {"Bearer " + signed}}
	}

	tests := []struct {
		name       string
		header     http.Header
		wantStatus int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"garbage token", http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"other user", token("bob"), http.StatusForbidden},
		{"viewer", token("ann"), http.StatusOK},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodPost, "/api/v1/posts/P1/like?wait=true", "", tt.header)
		if w.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, tt.wantStatus)
		}
	}

	if w := do(t, router, http.MethodGet, "/api/v1/feeds/global", "", nil); w.Code != http.StatusOK {
		t.Errorf("read route status = %d without token", w.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t, &stubRemote{}, Config{})
	do(t, router, http.MethodPost, "/api/v1/feeds/global/more", "", nil)

	w := do(t, router, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "feedclient_fetches_total") {
		t.Error("fetch counter missing from /metrics")
	}
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, &stubRemote{}, Config{ClientOrigin: "http://localhost:3000"})

	w := do(t, router, http.MethodOptions, "/api/v1/feeds/global", "", http.Header{
		"Origin":                        {"http://localhost:3000"},
		"Access-Control-Request-Method": {"POST"},
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
