// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/boardman/internal/forum"
	"github.com/hitoshi/boardman/internal/middleware"
	"github.com/hitoshi/boardman/internal/model"
	"github.com/hitoshi/boardman/internal/view"
)

// トピック・投稿操作が失敗した際の固定エラーメッセージ。
const (
	msgTopicCreateFailed = "There was a problem adding a new topic!"
	msgPostCreateFailed  = "There was a problem adding a new post on this topic!"
	msgPostDeleteFailed  = "There was a problem deleting this post!"
	msgPostUpdateFailed  = "There was a problem updating that post!"
)

// ForumServiceInterface はトピックハンドラーが必要とするサービスインターフェース。
type ForumServiceInterface interface {
	ListTopics(ctx context.Context) ([]*model.Topic, error)
	CreateTopic(ctx context.Context, input forum.NewTopicInput) (*model.Topic, error)
	GetTopic(ctx context.Context, id int64) (*model.Topic, error)
	PostsByTopic(ctx context.Context, topicID int64) ([]*model.Post, error)
	CreatePost(ctx context.Context, topicID int64, userID string, input forum.NewPostInput) (*model.Post, error)
}

// UserFinder は投稿者名の解決に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// PageRenderer はHTMLページの描画インターフェース。
type PageRenderer interface {
	Render(w io.Writer, name string, data any) error
}

// TopicHandler はトピック一覧・詳細ページのHTTPハンドラー。
type TopicHandler struct {
	service  ForumServiceInterface
	users    UserFinder
	renderer PageRenderer
}

// NewTopicHandler はTopicHandlerを生成する。
func NewTopicHandler(service ForumServiceInterface, users UserFinder, renderer PageRenderer) *TopicHandler {
	return &TopicHandler{
		service:  service,
		users:    users,
		renderer: renderer,
	}
}

// Index はトピック一覧の表示と新規トピック作成を処理する。
// GET / および POST /
// POSTでフォーム検証に失敗した場合は作成をスキップして一覧表示に
// フォールスルーする。作成の失敗は固定メッセージの500で応答する。
func (h *TopicHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		r.ParseForm()
		input, apiErr := forum.ParseNewTopicForm(r.PostForm)
		if apiErr == nil {
			if _, err := h.service.CreateTopic(r.Context(), input); err != nil {
				slog.Error("failed to create topic", slog.String("error", err.Error()))
				middleware.WritePlainError(w, http.StatusInternalServerError, msgTopicCreateFailed)
				return
			}
		}
	}

	topics, err := h.service.ListTopics(r.Context())
	if err != nil {
		slog.Error("failed to list topics", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	data := view.IndexPageData{
		PageData: view.PageData{
			CurrentUser: middleware.UserFromContext(r.Context()),
			CSRFToken:   middleware.CSRFTokenFromRequest(r),
		},
		Topics: topics,
	}
	if err := h.renderer.Render(w, "index.html", data); err != nil {
		slog.Error("failed to render index", slog.String("error", err.Error()))
	}
}

// Show はトピック詳細の表示と新規投稿の作成を処理する。
// GET /topic/{topicID} および POST /topic/{topicID}
// 匿名ユーザーのPOSTはログインページへリダイレクトする。
func (h *TopicHandler) Show(w http.ResponseWriter, r *http.Request) {
	topicID, err := strconv.ParseInt(chi.URLParam(r, "topicID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	topic, err := h.service.GetTopic(r.Context(), topicID)
	if err != nil {
		slog.Error("failed to find topic", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if topic == nil {
		http.NotFound(w, r)
		return
	}

	currentUser := middleware.UserFromContext(r.Context())

	if r.Method == http.MethodPost {
		if currentUser == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		r.ParseForm()
		input, apiErr := forum.ParseNewPostForm(r.PostForm)
		if apiErr == nil {
			if _, err := h.service.CreatePost(r.Context(), topicID, currentUser.ID, input); err != nil {
				slog.Error("failed to create post",
					slog.Int64("topic_id", topicID),
					slog.String("error", err.Error()),
				)
				middleware.WritePlainError(w, http.StatusInternalServerError, msgPostCreateFailed)
				return
			}
		}
	}

	posts, err := h.service.PostsByTopic(r.Context(), topicID)
	if err != nil {
		slog.Error("failed to list posts",
			slog.Int64("topic_id", topicID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	data := view.TopicPageData{
		PageData: view.PageData{
			CurrentUser: currentUser,
			CSRFToken:   middleware.CSRFTokenFromRequest(r),
		},
		Topic: topic,
		Posts: h.resolvePostViews(r.Context(), posts),
	}
	if err := h.renderer.Render(w, "topic.html", data); err != nil {
		slog.Error("failed to render topic", slog.String("error", err.Error()))
	}
}

// resolvePostViews は投稿ごとに投稿者名を解決する。
// 投稿者が見つからない場合は"unknown"として表示する。
func (h *TopicHandler) resolvePostViews(ctx context.Context, posts []*model.Post) []*view.PostView {
	// 同一投稿者の重複ルックアップを避ける
	names := make(map[string]string)
	views := make([]*view.PostView, 0, len(posts))

	for _, post := range posts {
		name, ok := names[post.UserID]
		if !ok {
			name = "unknown"
			user, err := h.users.FindByID(ctx, post.UserID)
			if err != nil {
				slog.Error("failed to resolve post author",
					slog.String("user_id", post.UserID),
					slog.String("error", err.Error()),
				)
			} else if user != nil {
				name = user.Username
			}
			names[post.UserID] = name
		}
		views = append(views, &view.PostView{Post: post, Username: name})
	}

	return views
}
