package middleware

import "net/http"

// cspPolicy はサーバーレンダリングされた掲示板ページ向けのCSP。
// テンプレートはインラインstyle属性を使うためstyle-srcのみ緩和し、
// フォーム送信先は自オリジンに限定する。
const cspPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", cspPolicy)
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			next.ServeHTTP(w, r)
		})
	}
}
