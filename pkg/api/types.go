package api

import (
	"github.com/dd0wney/shardkv/pkg/validation"
)

// InsertRequest is the body of POST /v1/records
type InsertRequest = validation.InsertRequest

// Record is one entry of an InsertRequest
type Record = validation.Record

// SearchRequest is the body of POST /v1/search
type SearchRequest = validation.SearchRequest

// InsertResponse reports how many records the request carried.
type InsertResponse struct {
	Received int  `json:"received"`
	Replace  bool `json:"replace"`
}

// ResultResponse is one search result. Value is base64 in JSON.
type ResultResponse struct {
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Results []ResultResponse `json:"results"`
	Found   int              `json:"found"`
	Missing int              `json:"missing"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
