// internal/pkg/session/session.go
package session

import (
	"context"
	"net/http"
	"strconv"
)

// UserIDHeader 由网关在鉴权通过后写入
const UserIDHeader = "X-User-Id"

type ctxKey struct{}

// WithUserID 把当前用户 id 放入 context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFrom 读取 context 中的用户 id
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}

// Middleware 从请求头解析用户 id，缺失或非法时不设置
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(UserIDHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
