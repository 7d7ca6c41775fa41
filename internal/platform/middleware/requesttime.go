package middleware

import (
	"net/http"
	"time"

	"custodia/pkg/requestcontext"
)

// RequestTime captures the current time once at the start of the request so
// every operation inside it shares the same "now". Domain timestamps, audit
// notes, and classification all read this instant instead of calling
// time.Now themselves.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
