// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/boardman/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// currentUserContextKey はリクエストコンテキストにログイン中ユーザーを格納するためのキー。
var currentUserContextKey = contextKey("current_user")

// CurrentUserFinder はセッションIDからログイン中ユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type CurrentUserFinder interface {
	CurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// NewCurrentUserMiddleware はHTTP Only Cookieからセッションを読み取り、
// ログイン中ユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 匿名リクエストも通過させる（ユーザーはコンテキストに入らない）。
// ログインの強制は各ハンドラー側で行う。
func NewCurrentUserMiddleware(finder CurrentUserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := finder.CurrentUser(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve current user",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				// 期限切れまたは無効なセッション。匿名として扱う。
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストからログイン中ユーザーを取得する。
// 匿名リクエストではnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(currentUserContextKey).(*model.User)
	if !ok {
		return nil
	}
	return user
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, currentUserContextKey, user)
}
