package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dd0wney/shardkv/pkg/api/middleware"
	"github.com/dd0wney/shardkv/pkg/logging"
	"github.com/dd0wney/shardkv/pkg/shardkv"
)

// decode reads a JSON body into v and runs validate. It reports whether an
// error response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, validate func() error) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return true
		}
		s.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return true
	}
	if err := validate(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return true
	}
	return false
}

// respondStoreError maps store errors to status codes. Internal details
// are logged, not returned.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case shardkv.IsNotFound(err):
		s.respondError(w, r, http.StatusNotFound, "key not found")
	case shardkv.IsInvalidKey(err):
		s.respondError(w, r, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("store operation failed",
			logging.Operation(operation),
			logging.RequestID(middleware.GetRequestID(r)),
			logging.Error(err),
		)
		s.respondError(w, r, http.StatusInternalServerError, operation+" failed")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      status,
		RequestID: middleware.GetRequestID(r),
	})
}
