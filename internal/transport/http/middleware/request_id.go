package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"staff/internal/platform/requestctx"
)

// RequestID accepts a caller's X-Request-ID (up to 128 bytes) or mints one,
// echoes it back and stores it with the client address on the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.With(r.Context(), requestctx.Origin{RequestID: reqID, ClientIP: clientIP(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.RequestID(ctx)
}
