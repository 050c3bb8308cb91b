package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dd0wney/shardkv/pkg/logging"
)

// PanicRecovery turns a handler panic into a 500. The panic value and stack
// are logged, never sent to the client.
func PanicRecovery(log logging.Logger) func(http.Handler) http.Handler {
	log = logging.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic in http handler",
						logging.String("method", r.Method),
						logging.String("path", r.URL.Path),
						logging.String("panic", fmt.Sprint(err)),
						logging.String("stack", string(debug.Stack())),
					)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
