// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/boardman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	// ログインの識別子はemailではなくusernameを使用する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// email/usernameの一意制約違反はIsUniqueViolationで判別できるエラーとして返る。
	Create(ctx context.Context, user *model.User) error
}

// RoleRepository は権限ロールの永続化インターフェース。
// デフォルトロールはユーザー登録時に付与され、それ以外のロールは管理操作でのみ付与される。
type RoleRepository interface {
	// Create はロールを作成する。nameの一意制約違反はエラーとして返る。
	Create(ctx context.Context, role *model.Role) error

	// FindByName はロール名でロールを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Role, error)

	// ListByUserID はユーザーに付与された全ロールを返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Role, error)

	// AssignToUser はユーザーにロールを付与する。
	AssignToUser(ctx context.Context, userID string, roleID int64) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// TopicRepository はトピックデータの永続化インターフェース。
// トピックは作成と参照のみ。更新・削除の操作は存在しない。
type TopicRepository interface {
	// Create はトピックを作成し、採番されたIDをtopic.IDに書き戻す。
	Create(ctx context.Context, topic *model.Topic) error

	// FindByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Topic, error)

	// ListAll は全トピックを返す。
	ListAll(ctx context.Context) ([]*model.Topic, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成し、採番されたIDをpost.IDに書き戻す。
	// 参照先のトピック・ユーザーが存在しない場合は外部キー制約違反が返る。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// ListByTopicID は指定トピックの投稿を挿入順（id昇順）で返す。
	ListByTopicID(ctx context.Context, topicID int64) ([]*model.Post, error)

	// ListByUserID は指定ユーザーが所有する投稿を挿入順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Post, error)

	// UpdateContent は投稿のcontentを指定値でそのまま上書きする。
	// 対象が存在しない場合はエラーを返す。
	UpdateContent(ctx context.Context, id int64, content string) error

	// DeleteByID は指定IDの投稿を削除する。対象が存在しない場合はエラーを返す。
	DeleteByID(ctx context.Context, id int64) error
}
