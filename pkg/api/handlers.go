package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dd0wney/shardkv/pkg/shardkv"
	"github.com/dd0wney/shardkv/pkg/validation"
)

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if s.decode(w, r, &req, func() error { return validation.ValidateInsertRequest(&req) }) {
		return
	}

	pairs := make([]shardkv.Pair, len(req.Records))
	for i, rec := range req.Records {
		pairs[i] = shardkv.Pair{Key: rec.Key, Value: rec.Value}
	}

	if err := s.store.Insert(pairs, req.Replace); err != nil {
		s.respondStoreError(w, r, err, "insert")
		return
	}
	s.respondJSON(w, http.StatusOK, InsertResponse{Received: len(pairs), Replace: req.Replace})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if s.decode(w, r, &req, func() error { return validation.ValidateSearchRequest(&req) }) {
		return
	}

	results, err := s.store.Search(req.Keys, req.MaxParallel)
	if err != nil {
		s.respondStoreError(w, r, err, "search")
		return
	}

	resp := SearchResponse{Results: make([]ResultResponse, len(results))}
	for i, res := range results {
		resp.Results[i] = ResultResponse{Key: res.Key, Value: res.Value, Found: res.Found}
		if res.Found {
			resp.Found++
		} else {
			resp.Missing++
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleGet returns the raw record bytes.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := validation.ValidateKey(key); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	value, err := s.store.Get(key)
	if err != nil {
		s.respondStoreError(w, r, err, "get")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		s.respondStoreError(w, r, err, "stats")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := validation.ValidateKey(key); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	placement, err := s.store.Locate(key)
	if err != nil {
		s.respondStoreError(w, r, err, "locate")
		return
	}
	s.respondJSON(w, http.StatusOK, placement)
}
