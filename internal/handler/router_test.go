package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/boardman/internal/forum"
	"github.com/hitoshi/boardman/internal/logger"
	"github.com/hitoshi/boardman/internal/metrics"
	"github.com/hitoshi/boardman/internal/middleware"
	"github.com/hitoshi/boardman/internal/model"
)

type mockCurrentUserFinder struct {
	currentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockCurrentUserFinder) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, sessionID)
	}
	return nil, nil
}

type mockDBPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockDBPinger) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()

	if deps.CurrentUserFinder == nil {
		deps.CurrentUserFinder = &mockCurrentUserFinder{}
	}
	if deps.RateLimiter == nil {
		rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		t.Cleanup(rl.Stop)
		deps.RateLimiter = rl
	}
	if deps.Logger == nil {
		deps.Logger = logger.Setup(io.Discard)
	}
	if deps.ForumService == nil {
		deps.ForumService = &mockForumService{}
	}
	if deps.PostService == nil {
		deps.PostService = &mockForumService{}
	}
	if deps.UserFinder == nil {
		deps.UserFinder = &mockUserFinder{}
	}
	if deps.AuthService == nil {
		deps.AuthService = &mockAuthService{}
	}
	if deps.Renderer == nil {
		deps.Renderer = testRenderer(t)
	}
	if deps.DB == nil {
		deps.DB = &mockDBPinger{}
	}

	return NewRouter(deps)
}

// TestRouter_IndexPage はGET /がトピック一覧を返すことを検証する。
func TestRouter_IndexPage(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		ForumService: &mockForumService{
			listTopicsFn: func(ctx context.Context) ([]*model.Topic, error) {
				return []*model.Topic{{ID: 1, Title: "General", DateCreated: time.Now()}}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "General") {
		t.Error("body should contain the topic title")
	}
	// セキュリティヘッダーとCSRF Cookieがチェーンで付与される
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	foundCSRF := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "csrf_token" {
			foundCSRF = true
		}
	}
	if !foundCSRF {
		t.Error("csrf_token cookie should be set on GET")
	}
}

// TestRouter_PostWithoutCSRFRejected はCSRFトークンなしのPOSTが403になることを検証する。
func TestRouter_PostWithoutCSRFRejected(t *testing.T) {
	created := false
	router := newTestRouter(t, &RouterDeps{
		ForumService: &mockForumService{
			createTopicFn: func(ctx context.Context, input forum.NewTopicInput) (*model.Topic, error) {
				created = true
				return &model.Topic{ID: 1}, nil
			},
		},
	})

	form := url.Values{"title": {"t"}, "description": {"d"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if created {
		t.Error("CreateTopic should not be called when CSRF validation fails")
	}
}

// TestRouter_PostWithCSRFAccepted は正しいCSRFトークン付きPOSTが通過することを検証する。
func TestRouter_PostWithCSRFAccepted(t *testing.T) {
	created := false
	router := newTestRouter(t, &RouterDeps{
		ForumService: &mockForumService{
			createTopicFn: func(ctx context.Context, input forum.NewTopicInput) (*model.Topic, error) {
				created = true
				return &model.Topic{ID: 1, Title: input.Title}, nil
			},
		},
	})

	form := url.Values{
		"title":       {"t"},
		"description": {"d"},
		"csrf_token":  {"tok-1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !created {
		t.Error("CreateTopic should be called for a valid POST")
	}
}

// TestRouter_SessionCookieResolvesUser はセッションCookie付きGETでユーザー名が表示されることを検証する。
func TestRouter_SessionCookieResolvesUser(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		CurrentUserFinder: &mockCurrentUserFinder{
			currentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
				if sessionID != "sess-1" {
					return nil, nil
				}
				return &model.User{ID: "u1", Username: "gopher"}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "Logged in as gopher") {
		t.Errorf("body should show the logged-in username:\n%s", w.Body.String())
	}
}

// TestRouter_RequestLogCarriesUserID はログイン済みリクエストのログにuser_idが入ることを検証する。
// CurrentUserミドルウェアがLoggingより先に実行されることへの回帰テスト。
func TestRouter_RequestLogCarriesUserID(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(t, &RouterDeps{
		Logger: logger.Setup(&buf),
		CurrentUserFinder: &mockCurrentUserFinder{
			currentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
				return &model.User{ID: "u1", Username: "gopher"}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "http_request" {
		t.Fatalf("msg = %q, want %q", entry["msg"], "http_request")
	}
	if entry["user_id"] != "u1" {
		t.Errorf("user_id = %v, want %q", entry["user_id"], "u1")
	}
}

// TestRouter_Health は/healthがDBの状態を反映することを検証する。
func TestRouter_Health(t *testing.T) {
	tests := map[string]struct {
		pingErr    error
		wantStatus int
	}{
		"正常":     {pingErr: nil, wantStatus: http.StatusOK},
		"DB接続不可": {pingErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			router := newTestRouter(t, &RouterDeps{
				DB: &mockDBPinger{
					pingFn: func(ctx context.Context) error { return tt.pingErr },
				},
			})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

// TestRouter_Metrics は/metricsがPrometheus形式で応答することを検証する。
func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	router := newTestRouter(t, &RouterDeps{
		MetricsRecorder: collector,
		MetricsHandler:  metrics.Handler(reg),
	})

	// アプリケーションリクエストを1回処理してからスクレイプ
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	scrape := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, scrape)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "boardman_http_status_total") {
		t.Error("metrics output should contain request counters")
	}
}

// TestRouter_UnknownRoute は未定義ルートが404になることを検証する。
func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
