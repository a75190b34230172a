package forum

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/boardman/internal/model"
	"github.com/hitoshi/boardman/internal/repository"
)

// MetricsRecorder はフォーラム操作のメトリクス記録インターフェース。
// 計測を行わない場合はnilを渡してよい。
type MetricsRecorder interface {
	RecordTopicCreated()
	RecordPostCreated()
	RecordPostUpdated()
	RecordPostDeleted()
}

// Service はトピック・投稿に関するビジネスロジックを提供する。
// 各操作はリポジトリへの変更を高々1回だけ行う（1ハンドラー呼び出し＝1コミット）。
type Service struct {
	topicRepo repository.TopicRepository
	postRepo  repository.PostRepository
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	topicRepo repository.TopicRepository,
	postRepo repository.PostRepository,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		topicRepo: topicRepo,
		postRepo:  postRepo,
		metrics:   metrics,
	}
}

// ListTopics は全トピックを返す。
func (s *Service) ListTopics(ctx context.Context) ([]*model.Topic, error) {
	topics, err := s.topicRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

// CreateTopic は新規トピックを作成する。
// date_createdは書き込み時点のシステムクロックで1回だけ設定され、以後再計算されない。
func (s *Service) CreateTopic(ctx context.Context, input NewTopicInput) (*model.Topic, error) {
	topic := &model.Topic{
		Title:       input.Title,
		Description: input.Description,
		DateCreated: time.Now(),
	}

	if err := s.topicRepo.Create(ctx, topic); err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTopicCreated()
	}
	slog.Info("topic created",
		slog.Int64("topic_id", topic.ID),
		slog.String("title", topic.Title),
	)

	return topic, nil
}

// GetTopic は指定IDのトピックを取得する。見つからない場合はnilを返す。
func (s *Service) GetTopic(ctx context.Context, id int64) (*model.Topic, error) {
	topic, err := s.topicRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return topic, nil
}

// PostsByTopic は指定トピックの投稿を挿入順で返す。
func (s *Service) PostsByTopic(ctx context.Context, topicID int64) ([]*model.Post, error) {
	posts, err := s.postRepo.ListByTopicID(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by topic: %w", err)
	}
	return posts, nil
}

// PostsByUser は指定ユーザーが所有する投稿を挿入順で返す。
func (s *Service) PostsByUser(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.postRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by user: %w", err)
	}
	return posts, nil
}

// CreatePost は指定トピックに認証済みユーザーの投稿を作成する。
// 所有者は呼び出し側が解決した現在ユーザーのIDを明示的に受け取る。
func (s *Service) CreatePost(ctx context.Context, topicID int64, userID string, input NewPostInput) (*model.Post, error) {
	post := &model.Post{
		Content:     input.Content,
		DateCreated: time.Now(),
		UserID:      userID,
		TopicID:     topicID,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		// ページ表示から送信までの間にトピックやユーザーが消えた場合は外部キー違反になる
		if repository.IsForeignKeyViolation(err) {
			return nil, model.NewTopicNotFoundError(topicID)
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPostCreated()
	}
	slog.Info("post created",
		slog.Int64("post_id", post.ID),
		slog.Int64("topic_id", topicID),
		slog.String("user_id", userID),
	)

	return post, nil
}

// GetPost は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (s *Service) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// UpdatePostContent は投稿のcontentを送信値でそのまま上書きする。
// 作成時と異なりフォーム検証層を通らず、所有者チェックも行わない。
// ここは元システムで未完成と明記された操作で、その挙動を保存している。
func (s *Service) UpdatePostContent(ctx context.Context, id int64, content string) error {
	if err := s.postRepo.UpdateContent(ctx, id, content); err != nil {
		return fmt.Errorf("failed to update post content: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPostUpdated()
	}
	slog.Info("post updated", slog.Int64("post_id", id))

	return nil
}

// DeletePost は指定IDの投稿を削除する。所有者チェックは行わない。
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	if err := s.postRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPostDeleted()
	}
	slog.Info("post deleted", slog.Int64("post_id", id))

	return nil
}
