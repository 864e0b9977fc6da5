package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"tradegate/internal/observability"
)

const correlationIDHeader = "X-Correlation-Id"

// correlationID reads X-Correlation-Id from the incoming request,
// generates one if absent, injects it into the request context, and
// echoes it back in the response.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(correlationIDHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := observability.WithCorrelationID(r.Context(), cid)
		w.Header().Set(correlationIDHeader, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
