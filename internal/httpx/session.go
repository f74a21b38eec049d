package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const HeaderSessionID = "X-Session-Id"

type sessionKey struct{}

// SessionIDFrom returns the id resolved by Sessions, or "" outside it.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Sessions resolves the caller's session from X-Session-Id. A request without
// one gets a fresh id, echoed back in the response header, and onNew runs
// once for it.
func Sessions(onNew func(ctx context.Context, id string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderSessionID))
			if id == "" {
				id = uuid.NewString()
				if onNew != nil {
					onNew(r.Context(), id)
				}
			}
			w.Header().Set(HeaderSessionID, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
		})
	}
}
