package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/boardman/internal/model"
)

// PostgresTopicRepo はPostgreSQLを使用したトピックリポジトリ。
type PostgresTopicRepo struct {
	db *sql.DB
}

// NewPostgresTopicRepo はPostgresTopicRepoを生成する。
func NewPostgresTopicRepo(db *sql.DB) *PostgresTopicRepo {
	return &PostgresTopicRepo{db: db}
}

// Create はトピックを作成し、採番されたIDをtopic.IDに書き戻す。
// date_createdは呼び出し側（サービス層）が設定した値をそのまま永続化する。
func (r *PostgresTopicRepo) Create(ctx context.Context, topic *model.Topic) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO topics (title, description, date_created)
		 VALUES ($1, $2, $3) RETURNING id`,
		topic.Title, topic.Description, topic.DateCreated,
	).Scan(&topic.ID)
	if err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}
	return nil
}

// FindByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
func (r *PostgresTopicRepo) FindByID(ctx context.Context, id int64) (*model.Topic, error) {
	topic := &model.Topic{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, date_created FROM topics WHERE id = $1`,
		id,
	).Scan(&topic.ID, &topic.Title, &topic.Description, &topic.DateCreated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find topic: %w", err)
	}

	return topic, nil
}

// ListAll は全トピックをid昇順で返す。
// フィルタ・ページネーションは行わない。
func (r *PostgresTopicRepo) ListAll(ctx context.Context) ([]*model.Topic, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, date_created FROM topics ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []*model.Topic
	for rows.Next() {
		topic := &model.Topic{}
		if err := rows.Scan(&topic.ID, &topic.Title, &topic.Description, &topic.DateCreated); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}

	return topics, nil
}

// compile-time interface check
var _ TopicRepository = (*PostgresTopicRepo)(nil)
