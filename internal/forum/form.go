// Package forum はトピック・投稿のドメインロジックを提供する。
package forum

import (
	"net/url"

	"github.com/hitoshi/boardman/internal/model"
)

// NewTopicInput は新規トピック作成フォームの入力を表す。
// 元のフォーム定義と同じく、値が空文字であっても受理する。
type NewTopicInput struct {
	Title       string
	Description string
}

// NewPostInput は新規投稿フォームの入力を表す。
type NewPostInput struct {
	Content string
}

// ParseNewTopicForm は送信フォームからNewTopicInputを構築する。
// 検証は「フィールドが存在すること」のみで、長さ・必須チェックは行わない。
// フィールドが欠落している場合はVALIDATION_FAILEDエラーを返し、
// 呼び出し側はハンドラーの非変更ブランチにフォールスルーする。
func ParseNewTopicForm(form url.Values) (NewTopicInput, *model.APIError) {
	if !form.Has("title") {
		return NewTopicInput{}, model.NewValidationError("title")
	}
	if !form.Has("description") {
		return NewTopicInput{}, model.NewValidationError("description")
	}
	return NewTopicInput{
		Title:       form.Get("title"),
		Description: form.Get("description"),
	}, nil
}

// ParseNewPostForm は送信フォームからNewPostInputを構築する。
// contentフィールドの存在のみを検証する。スキーマ上の長さ上限（2000文字）は
// ここでは検査せず、超過時はストレージエラーとして表面化する。
func ParseNewPostForm(form url.Values) (NewPostInput, *model.APIError) {
	if !form.Has("content") {
		return NewPostInput{}, model.NewValidationError("content")
	}
	return NewPostInput{Content: form.Get("content")}, nil
}
