// Package model はドメインモデルを定義する。
package model

import "time"

// Topic は議論スレッドを表す。
// トピックは作成のみ可能で、更新・削除するルートは存在しない。
type Topic struct {
	ID          int64
	Title       string
	Description string
	DateCreated time.Time
}

// Post はトピック内の投稿を表す。
// 投稿はちょうど1つのトピックに属し、1人のユーザーが所有する。
type Post struct {
	ID          int64
	Content     string
	DateCreated time.Time
	UserID      string
	TopicID     int64
}
