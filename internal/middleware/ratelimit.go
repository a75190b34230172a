package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"log/slog"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // ページ閲覧・操作全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // 全般のバーストサイズ
	PostRate        rate.Limit    // 投稿・トピック作成のレート（req/sec）。20/60
	PostBurst       int           // 投稿作成のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 全般 120 req/min、投稿作成 20 req/min をクライアント単位で適用する。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		PostRate:        rate.Limit(20.0 / 60.0), // ~0.333 req/sec
		PostBurst:       20,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントごとのレート制限を管理する。
// 全般のレート制限と投稿作成のレート制限の2種類を提供する。
// クライアントの識別はログイン中はユーザーID、匿名時はリモートIPで行う。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*clientLimiter

	postMu       sync.RWMutex
	postLimiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*clientLimiter),
		postLimiters:    make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware は全リクエストに適用するレート制限ミドルウェアを返す。
// CurrentUserMiddlewareの後に配置する（ユーザーIDで識別するため）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			limiter := rl.getOrCreateGeneralLimiter(key)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PostCreationMiddleware は投稿・トピック作成専用のレート制限ミドルウェアを返す。
// 全般のレート制限とは独立に動作する。
func (rl *RateLimiter) PostCreationMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 作成はPOSTのみ対象。同一パスのGET（ページ閲覧）は制限しない。
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := clientKey(r)
			limiter := rl.getOrCreatePostLimiter(key)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.PostRate)
				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("limit_type", "post_creation"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されている全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// PostLimiterCount は現在管理されている投稿作成リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) PostLimiterCount() int {
	rl.postMu.RLock()
	defer rl.postMu.RUnlock()
	return len(rl.postLimiters)
}

// clientKey はレート制限のキーを決定する。
// ログイン中はユーザーID、匿名時はリモートIPを使う。
func clientKey(r *http.Request) string {
	if user := UserFromContext(r.Context()); user != nil {
		return "user:" + user.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

// getOrCreateGeneralLimiter はクライアントの全般リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateGeneralLimiter(key string) *rate.Limiter {
	rl.generalMu.RLock()
	cl, exists := rl.generalLimiters[key]
	rl.generalMu.RUnlock()

	if exists {
		rl.generalMu.Lock()
		cl.lastAccess = time.Now()
		rl.generalMu.Unlock()
		return cl.limiter
	}

	rl.generalMu.Lock()
	defer rl.generalMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.generalLimiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.generalLimiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// getOrCreatePostLimiter はクライアントの投稿作成リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreatePostLimiter(key string) *rate.Limiter {
	rl.postMu.RLock()
	cl, exists := rl.postLimiters[key]
	rl.postMu.RUnlock()

	if exists {
		rl.postMu.Lock()
		cl.lastAccess = time.Now()
		rl.postMu.Unlock()
		return cl.limiter
	}

	rl.postMu.Lock()
	defer rl.postMu.Unlock()

	// ダブルチェック
	if cl, exists := rl.postLimiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.PostRate, rl.config.PostBurst)
	rl.postLimiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for key, cl := range rl.generalLimiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.generalLimiters, key)
		}
	}
	rl.generalMu.Unlock()

	rl.postMu.Lock()
	for key, cl := range rl.postLimiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.postLimiters, key)
		}
	}
	rl.postMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte("Too many requests. Please try again later.\n"))
}
