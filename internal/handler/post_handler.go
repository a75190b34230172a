package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/boardman/internal/middleware"
	"github.com/hitoshi/boardman/internal/model"
	"github.com/hitoshi/boardman/internal/view"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	UpdatePostContent(ctx context.Context, id int64, content string) error
	DeletePost(ctx context.Context, id int64) error
}

// PostHandler は投稿の削除・編集のHTTPハンドラー。
// 削除・編集ともに所有者チェックは行わない。
type PostHandler struct {
	service  PostServiceInterface
	renderer PageRenderer
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, renderer PageRenderer) *PostHandler {
	return &PostHandler{
		service:  service,
		renderer: renderer,
	}
}

// Delete は投稿を削除し、元のページへリダイレクトする。
// GET /delete/{id}
// 削除はGETで行う（リンクから直接呼び出すため）。
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.service.DeletePost(r.Context(), id); err != nil {
		slog.Error("failed to delete post",
			slog.Int64("post_id", id),
			slog.String("error", err.Error()),
		)
		middleware.WritePlainError(w, http.StatusInternalServerError, msgPostDeleteFailed)
		return
	}

	http.Redirect(w, r, refererOrRoot(r), http.StatusSeeOther)
}

// Update は投稿の編集フォーム表示と内容更新を処理する。
// GET /update/{id} および POST /update/{id}
// POSTは送信された本文をそのまま上書きし、元のページへリダイレクトする。
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodPost {
		r.ParseForm()
		content := r.PostForm.Get("content")

		if err := h.service.UpdatePostContent(r.Context(), id, content); err != nil {
			slog.Error("failed to update post",
				slog.Int64("post_id", id),
				slog.String("error", err.Error()),
			)
			middleware.WritePlainError(w, http.StatusInternalServerError, msgPostUpdateFailed)
			return
		}

		http.Redirect(w, r, refererOrRoot(r), http.StatusSeeOther)
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		slog.Error("failed to find post",
			slog.Int64("post_id", id),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	data := view.UpdatePageData{
		PageData: view.PageData{
			CurrentUser: middleware.UserFromContext(r.Context()),
			CSRFToken:   middleware.CSRFTokenFromRequest(r),
		},
		Post: post,
	}
	if err := h.renderer.Render(w, "update.html", data); err != nil {
		slog.Error("failed to render update form", slog.String("error", err.Error()))
	}
}

// refererOrRoot はRefererヘッダーの値を返す。未設定ならルートへフォールバックする。
func refererOrRoot(r *http.Request) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return "/"
}
