// Package requestid assigns every request a unique identifier for log correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"coverbase/pkg/requestcontext"
)

// Header is the response header carrying the request ID back to the caller.
const Header = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID when present, otherwise generates one,
// and stores it in the context for handlers and services.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
