package validation

import (
	"strings"
	"testing"
)

func TestValidateInsertRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        *InsertRequest
		errorField string
	}{
		{
			name: "valid",
			req:  &InsertRequest{Records: []Record{{Key: "a", Value: []byte("1")}, {Key: "b"}}},
		},
		{
			name:       "nil request",
			req:        nil,
			errorField: "insert request",
		},
		{
			name:       "no records",
			req:        &InsertRequest{},
			errorField: "Records",
		},
		{
			name:       "empty key",
			req:        &InsertRequest{Records: []Record{{Key: "a"}, {Key: ""}}},
			errorField: "Records[1].Key",
		},
		{
			name:       "key too long",
			req:        &InsertRequest{Records: []Record{{Key: strings.Repeat("k", MaxKeyLength+1)}}},
			errorField: "Key",
		},
		{
			name:       "batch too large",
			req:        &InsertRequest{Records: make([]Record, MaxBatchSize+1)},
			errorField: "Records",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInsertRequest(tt.req)
			if tt.errorField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errorField) {
				t.Errorf("error %q does not mention %q", err, tt.errorField)
			}
		})
	}
}

func TestValidateSearchRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *SearchRequest
		wantErr bool
	}{
		{"valid", &SearchRequest{Keys: []string{"1", "2"}}, false},
		{"valid with parallelism", &SearchRequest{Keys: []string{"1"}, MaxParallel: 4}, false},
		{"nil", nil, true},
		{"no keys", &SearchRequest{}, true},
		{"empty key", &SearchRequest{Keys: []string{"1", ""}}, true},
		{"negative parallelism", &SearchRequest{Keys: []string{"1"}, MaxParallel: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSearchRequest(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("abc"); err != nil {
		t.Errorf("valid key: %v", err)
	}
	err := ValidateKey("")
	if err == nil || !strings.HasPrefix(err.Error(), "key: field is required") {
		t.Errorf("empty key: %v", err)
	}
	if err := ValidateKey(strings.Repeat("x", MaxKeyLength+1)); err == nil {
		t.Error("long key accepted")
	}
}
