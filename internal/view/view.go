// Package view はHTMLページの描画を提供する。
// テンプレートはバイナリに埋め込み、起動時に一括パースする。
// ユーザー投稿本文はサニタイザを通してからHTMLとして描画する。
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/hitoshi/boardman/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sanitizer は描画前に投稿本文を無害化する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Renderer はパース済みテンプレートを保持し、各ページを描画する。
type Renderer struct {
	templates *template.Template
}

// NewRenderer は埋め込みテンプレートをパースしてRendererを生成する。
// sanitizerはテンプレート関数safeContentとして登録され、
// 投稿・トピック本文の描画箇所で使用される。
func NewRenderer(sanitizer Sanitizer) (*Renderer, error) {
	funcs := template.FuncMap{
		"safeContent": func(raw string) template.HTML {
			return template.HTML(sanitizer.Sanitize(raw))
		},
	}

	tpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("テンプレートのパースに失敗: %w", err)
	}

	return &Renderer{templates: tpl}, nil
}

// PageData は全ページ共通の描画データ。
type PageData struct {
	// CurrentUser はログイン中のユーザー。匿名時はnil。
	CurrentUser *model.User
	// CSRFToken はフォームの隠しフィールドに埋め込むトークン。
	CSRFToken string
}

// IndexPageData はトピック一覧ページの描画データ。
type IndexPageData struct {
	PageData
	Topics []*model.Topic
}

// TopicPageData はトピック詳細ページの描画データ。
type TopicPageData struct {
	PageData
	Topic *model.Topic
	Posts []*PostView
}

// PostView は投稿と投稿者名をまとめた描画用の型。
type PostView struct {
	Post     *model.Post
	Username string
}

// UpdatePageData は投稿編集ページの描画データ。
type UpdatePageData struct {
	PageData
	Post *model.Post
}

// AuthPageData は登録・ログインページの描画データ。
// Errorsはフィールド名からエラーメッセージへのマップ。
type AuthPageData struct {
	PageData
	Errors map[string]string
}

// Render は指定テンプレートを描画する。
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("テンプレート %s の描画に失敗: %w", name, err)
	}
	return nil
}
