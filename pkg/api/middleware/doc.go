// Package middleware holds the HTTP middleware of the shardkv API.
//
// Every middleware has the form func(http.Handler) http.Handler so it can
// be passed to (*mux.Router).Use:
//
//	r := mux.NewRouter()
//	r.Use(middleware.PanicRecovery(log))
//	r.Use(middleware.RequestID())
//	r.Use(middleware.Logging(log))
//	r.Use(middleware.Metrics(reg))
package middleware
