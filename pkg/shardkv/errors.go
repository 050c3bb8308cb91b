package shardkv

import (
	"errors"
	"fmt"

	"github.com/dd0wney/shardkv/pkg/sharding"
)

// Sentinel errors
var (
	ErrDirNotFound = errors.New("storage directory does not exist")
	ErrNotDir      = errors.New("storage path is not a directory")
	ErrNotFound    = errors.New("key not found")
	ErrInvalidKey  = sharding.ErrInvalidKey
)

// StoreError gives structured context to a failed store operation.
type StoreError struct {
	Op     string // insert, search, open
	Entity string // container, index, key, dir, batch
	Key    string
	Path   string
	Cause  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.Key, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.Path, e.Cause)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder builds StoreErrors fluently.
type ErrorBuilder struct {
	err StoreError
}

// NewError starts an error for operation op.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: StoreError{Op: op}}
}

// Container marks the error as concerning the container file at path.
func (b *ErrorBuilder) Container(path string) *ErrorBuilder {
	b.err.Entity = "container"
	b.err.Path = path
	return b
}

// Index marks the error as concerning the key index at path.
func (b *ErrorBuilder) Index(path string) *ErrorBuilder {
	b.err.Entity = "index"
	b.err.Path = path
	return b
}

// Dir marks the error as concerning the storage directory.
func (b *ErrorBuilder) Dir(path string) *ErrorBuilder {
	b.err.Entity = "dir"
	b.err.Path = path
	return b
}

// Batch marks the error as concerning the request batch as a whole.
func (b *ErrorBuilder) Batch() *ErrorBuilder {
	b.err.Entity = "batch"
	return b
}

// Key marks the error as concerning a single key.
func (b *ErrorBuilder) Key(key string) *ErrorBuilder {
	b.err.Entity = "key"
	b.err.Key = key
	return b
}

// Cause sets the underlying error.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the built error.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}

// IsInvalidKey reports whether err was caused by a key that cannot be sharded.
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}

// IsNotFound reports whether err means the key is not stored.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfigError reports whether err is a construction-time configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrDirNotFound) || errors.Is(err, ErrNotDir)
}
