package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQLのエラーコード
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation はエラーが一意制約違反かどうかを判定する。
// email/username/role名の重複検出に使用する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

// IsForeignKeyViolation はエラーが外部キー制約違反かどうかを判定する。
// 存在しないトピック・ユーザーへの投稿作成の検出に使用する。
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgForeignKeyViolation
	}
	return false
}
