package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/boardman/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は投稿を作成し、採番されたIDをpost.IDに書き戻す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (content, date_created, user_id, topic_id)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		post.Content, post.DateCreated, post.UserID, post.TopicID,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, content, date_created, user_id, topic_id FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.Content, &post.DateCreated, &post.UserID, &post.TopicID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

// ListByTopicID は指定トピックの投稿を挿入順（id昇順）で返す。
func (r *PostgresPostRepo) ListByTopicID(ctx context.Context, topicID int64) ([]*model.Post, error) {
	return r.list(ctx,
		`SELECT id, content, date_created, user_id, topic_id
		 FROM posts WHERE topic_id = $1 ORDER BY id`,
		topicID,
	)
}

// ListByUserID は指定ユーザーが所有する投稿を挿入順で返す。
func (r *PostgresPostRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Post, error) {
	return r.list(ctx,
		`SELECT id, content, date_created, user_id, topic_id
		 FROM posts WHERE user_id = $1 ORDER BY id`,
		userID,
	)
}

func (r *PostgresPostRepo) list(ctx context.Context, query string, arg any) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post := &model.Post{}
		if err := rows.Scan(&post.ID, &post.Content, &post.DateCreated, &post.UserID, &post.TopicID); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// UpdateContent は投稿のcontentを指定値でそのまま上書きする。
// 送信値の整形・変換は行わない。対象が存在しない場合はエラーを返す。
func (r *PostgresPostRepo) UpdateContent(ctx context.Context, id int64, content string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET content = $1 WHERE id = $2`,
		content, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %d", id)
	}
	return nil
}

// DeleteByID は指定IDの投稿を削除する。対象が存在しない場合はエラーを返す。
func (r *PostgresPostRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
