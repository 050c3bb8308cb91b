package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/shardkv/pkg/logging"
)

// Logging writes one structured line per request with status and latency.
func Logging(log logging.Logger) func(http.Handler) http.Handler {
	log = logging.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)
			next.ServeHTTP(rw, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", rw.statusCode),
				logging.Int("bytes", rw.bytesWritten),
				logging.Latency(time.Since(start)),
			}
			if id := GetRequestID(r); id != "" {
				fields = append(fields, logging.RequestID(id))
			}

			if rw.statusCode >= http.StatusInternalServerError {
				log.Warn("http request", fields...)
				return
			}
			log.Info("http request", fields...)
		})
	}
}
