package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/boardman/internal/middleware"
	"github.com/hitoshi/boardman/internal/model"
	"github.com/hitoshi/boardman/internal/view"
)

const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、ログイン済みセッションを返す。
	Register(ctx context.Context, email, password, name, username string) (*model.Session, error)
	// Login はユーザー名とパスワードで認証し、セッションを返す。
	Login(ctx context.Context, username, password string) (*model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SessionMaxAge int
	CookieSecure  bool
	CookieDomain  string
}

// AuthHandler はユーザー登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	config   AuthHandlerConfig
	renderer PageRenderer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, renderer PageRenderer) *AuthHandler {
	return &AuthHandler{
		service:  service,
		config:   config,
		renderer: renderer,
	}
}

// RegisterPage は登録フォームを表示する。
// GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, "register.html", nil)
}

// Register はユーザー登録を処理する。
// POST /register
// 成功時はセッションCookieを設定してトピック一覧へリダイレクトする。
// 検証失敗・重複時はエラーメッセージ付きで登録フォームを再表示する。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()

	session, err := h.service.Register(r.Context(),
		r.PostForm.Get("email"),
		r.PostForm.Get("password"),
		r.PostForm.Get("name"),
		r.PostForm.Get("username"),
	)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Category != "system" {
			h.renderAuthPage(w, r, "register.html", map[string]string{"form": apiErr.Message})
			return
		}
		slog.Error("failed to register user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginPage はログインフォームを表示する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, "login.html", nil)
}

// Login はユーザー名とパスワードによるログインを処理する。
// POST /login
// 失敗時は原因を区別せず同一メッセージでフォームを再表示する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()

	session, err := h.service.Login(r.Context(),
		r.PostForm.Get("username"),
		r.PostForm.Get("password"),
	)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Category != "system" {
			h.renderAuthPage(w, r, "login.html", map[string]string{"form": apiErr.Message})
			return
		}
		slog.Error("failed to log in user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はセッションを破棄し、Cookieを削除する。
// POST /logout
// セッションCookieがない場合でもリダイレクトのみ行う。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to log out", slog.String("error", err.Error()))
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderAuthPage は登録・ログインページを描画する。
func (h *AuthHandler) renderAuthPage(w http.ResponseWriter, r *http.Request, name string, fieldErrors map[string]string) {
	data := view.AuthPageData{
		PageData: view.PageData{
			CurrentUser: middleware.UserFromContext(r.Context()),
			CSRFToken:   middleware.CSRFTokenFromRequest(r),
		},
		Errors: fieldErrors,
	}
	if err := h.renderer.Render(w, name, data); err != nil {
		slog.Error("failed to render auth page",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

// setSessionCookie はログイン済みセッションのCookieを設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを失効させる。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
