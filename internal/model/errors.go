// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// ハンドラー境界でのエラー分類に使用する閉じたエラー種別の集合。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, forum, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeTopicNotFound      = "TOPIC_NOT_FOUND"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDuplicateUser      = "DUPLICATE_USER"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeStorageFailure     = "STORAGE_FAILURE"
)

// NewTopicNotFoundError はトピック未検出エラーを生成する。
func NewTopicNotFoundError(topicID int64) *APIError {
	return &APIError{
		Code:     ErrCodeTopicNotFound,
		Message:  fmt.Sprintf("指定されたトピックが見つかりません: %d", topicID),
		Category: "forum",
		Action:   "トピック一覧から存在するトピックを選択してください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID int64) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %d", postID),
		Category: "forum",
		Action:   "投稿IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewValidationError はフォーム検証失敗エラーを生成する。
// 検証失敗はハンドラーの非変更ブランチへのフォールスルーとして扱われる。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("フォームフィールドがありません: %s", field),
		Category: "validation",
		Action:   "フォームを再送信してください。",
	}
}

// NewDuplicateUserError は一意制約違反（email/username重複）エラーを生成する。
func NewDuplicateUserError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  fmt.Sprintf("既に使用されています: %s", field),
		Category: "auth",
		Action:   "別の値で登録してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不存在とパスワード不一致は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewStorageError はストレージ層の失敗を表すエラーを生成する。
// 制約違反・接続断などハンドラーで区別しない失敗をまとめて分類する。
func NewStorageError(op string) *APIError {
	return &APIError{
		Code:     ErrCodeStorageFailure,
		Message:  fmt.Sprintf("データベース操作に失敗しました: %s", op),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
