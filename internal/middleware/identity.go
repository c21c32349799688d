// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
)

// userIDHeaderName は閲覧者を識別するHTTPヘッダー名。
// 認証はAPIゲートウェイが実施済みで、このサービスは検証済みIDを受け取る。
const userIDHeaderName = "x-user-id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// NewIdentityMiddleware はx-user-idヘッダーから閲覧者IDを読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// ヘッダーが無い場合も401を返さずそのまま通す。閲覧者不明の扱いは
// エンドポイントごとに異なる（フィードは空エンベロープ、書き込みは401）ため、
// 拒否の判断はハンドラー側で行う。
func NewIdentityMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(userIDHeaderName)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
