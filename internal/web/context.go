package web

import (
	"net/http"

	"github.com/JonMunkholm/smarttools/internal/core"
)

// withRequestMetadata stores the client IP and User-Agent in the request
// context so job logs can name who started them. Runs after TrustedRealIP.
func withRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), clientIP(r))
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
