package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newCSRFHandler(config CSRFConfig) http.Handler {
	return NewCSRFMiddleware(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// TestCSRF_SafeMethodSetsCookie はGETリクエストでCSRFトークンCookieが設定されることを検証する。
func TestCSRF_SafeMethodSetsCookie(t *testing.T) {
	handler := newCSRFHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var csrfCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "csrf_token" {
			csrfCookie = c
		}
	}
	if csrfCookie == nil {
		t.Fatal("csrf_token cookie not set on GET")
	}
	if len(csrfCookie.Value) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(csrfCookie.Value))
	}
	if csrfCookie.HttpOnly {
		t.Error("csrf_token cookie must not be HttpOnly")
	}
	if csrfCookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", csrfCookie.SameSite)
	}
}

// TestCSRF_SafeMethodKeepsExistingCookie は既存のCookieがあれば再設定しないことを検証する。
func TestCSRF_SafeMethodKeepsExistingCookie(t *testing.T) {
	handler := newCSRFHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "existing-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == "csrf_token" {
			t.Errorf("cookie should not be reset, got new value %q", c.Value)
		}
	}
}

// TestCSRF_PostWithMatchingToken はCookieとフォームのトークンが一致すれば通過することを検証する。
func TestCSRF_PostWithMatchingToken(t *testing.T) {
	handler := newCSRFHandler(CSRFConfig{})

	form := url.Values{"csrf_token": {"tok-1"}, "title": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok-1"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestCSRF_PostRejected はトークン不備のPOSTが403で拒否されることを検証する。
func TestCSRF_PostRejected(t *testing.T) {
	tests := map[string]struct {
		cookieValue string
		formValue   string
	}{
		"Cookieなし":    {cookieValue: "", formValue: "tok-1"},
		"フォームトークンなし": {cookieValue: "tok-1", formValue: ""},
		"トークン不一致":    {cookieValue: "tok-1", formValue: "tok-2"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			handler := newCSRFHandler(CSRFConfig{})

			form := url.Values{}
			if tt.formValue != "" {
				form.Set("csrf_token", tt.formValue)
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: "csrf_token", Value: tt.cookieValue})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
			}
		})
	}
}

// TestCSRFTokenFromRequest はCookieからトークンを取り出せることを検証する。
func TestCSRFTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := CSRFTokenFromRequest(req); got != "" {
		t.Errorf("token without cookie = %q, want empty", got)
	}

	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "tok-x"})
	if got := CSRFTokenFromRequest(req); got != "tok-x" {
		t.Errorf("token = %q, want %q", got, "tok-x")
	}
}

// TestCSRF_FirstGetExposesTokenToRequest は初回GETで生成したトークンが
// 同一リクエストのフォーム描画でも参照できることを検証する。
func TestCSRF_FirstGetExposesTokenToRequest(t *testing.T) {
	var renderedToken string
	handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderedToken = CSRFTokenFromRequest(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if renderedToken == "" {
		t.Fatal("handler should see the freshly generated token")
	}

	var cookieToken string
	for _, c := range w.Result().Cookies() {
		if c.Name == "csrf_token" {
			cookieToken = c.Value
		}
	}
	if renderedToken != cookieToken {
		t.Errorf("rendered token %q != cookie token %q", renderedToken, cookieToken)
	}
}
