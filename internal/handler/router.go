package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/boardman/internal/middleware"
)

// DBPinger はデータベースの死活確認に必要なインターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CurrentUserFinder middleware.CurrentUserFinder
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	MetricsRecorder   middleware.HTTPMetricsRecorder

	// フォーラム
	ForumService ForumServiceInterface
	PostService  PostServiceInterface
	UserFinder   UserFinder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 描画
	Renderer PageRenderer

	// 運用
	DB             DBPinger
	MetricsHandler http.Handler
}

// NewRouter は全ページのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CurrentUser → Logging → Metrics → CSRF → RateLimit(General)
//
// /health と /metrics はアプリケーションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	topicHandler := NewTopicHandler(deps.ForumService, deps.UserFinder, deps.Renderer)
	postHandler := NewPostHandler(deps.PostService, deps.Renderer)
	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Renderer)

	// --- 運用ルート（ミドルウェアチェーンの外） ---

	r.Get("/health", newHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- アプリケーションルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRecoveryMiddleware())
		r.Use(middleware.NewSecurityHeadersMiddleware())
		// CurrentUserはLoggingより先に積む。ログのuser_idはコンテキストから読むため
		r.Use(middleware.NewCurrentUserMiddleware(deps.CurrentUserFinder))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		if deps.MetricsRecorder != nil {
			r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
		}
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// トピック一覧と新規トピック作成
		r.Get("/", topicHandler.Index)
		r.With(deps.RateLimiter.PostCreationMiddleware()).Post("/", topicHandler.Index)

		// トピック詳細と新規投稿
		r.Get("/topic/{topicID}", topicHandler.Show)
		r.With(deps.RateLimiter.PostCreationMiddleware()).Post("/topic/{topicID}", topicHandler.Show)

		// 投稿の削除・編集
		r.Get("/delete/{id}", postHandler.Delete)
		r.Get("/update/{id}", postHandler.Update)
		r.Post("/update/{id}", postHandler.Update)

		// 認証
		r.Get("/register", authHandler.RegisterPage)
		r.Post("/register", authHandler.Register)
		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	return r
}

// newHealthHandler はデータベース接続を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				middleware.WritePlainError(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}
}
