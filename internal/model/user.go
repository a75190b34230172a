// Package model はドメインモデルを定義する。
package model

import "time"

// User はフォーラム利用ユーザーを表す。
// PasswordHashにはbcryptハッシュを格納し、平文パスワードは保持しない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Username     string
	Active       bool
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role はユーザーに付与される権限ロールを表す。
// ロールは管理操作でのみ作成され、HTTPルートからは作成・変更されない。
type Role struct {
	ID          int64
	Name        string
	Description string
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
