package middleware

import (
	"fmt"
	"net/http"
)

// WritePlainError は固定メッセージのプレーンテキストエラーレスポンスを書き込む。
// サーバー描画ページのエラー本文として使用する。
func WritePlainError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, message)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WritePlainError(w, http.StatusInternalServerError, "internal server error")
}
