package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const correlationHeader = "X-Correlation-Id"

// correlationID accepts the caller's correlation id or mints one, echoes it
// on the response and stamps it on the request-scoped logger.
func correlationID(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get(correlationHeader)
			if cid == "" {
				cid = uuid.NewString()
			}
			w.Header().Set(correlationHeader, cid)

			reqLog := log.With().Str("correlation_id", cid).Logger()
			next.ServeHTTP(w, r.WithContext(reqLog.WithContext(r.Context())))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request")
		next.ServeHTTP(w, r)
	})
}
