package kv

import (
	"context"
	"errors"
)

// Store is a string-keyed persistent store. Values are opaque strings,
// usually JSON documents.
type Store interface {
	// Get returns ok=false with a nil error when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Update runs fn as one atomic read-modify-write cycle on key.
	// Returning ErrSkip from fn leaves the key untouched.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

type UpdateFunc func(old string, ok bool) (string, error)

var (
	// ErrSkip aborts an Update without writing and without failing it.
	ErrSkip = errors.New("kv: skip write")
	// ErrConflict is returned when an optimistic Update kept losing races.
	ErrConflict = errors.New("kv: concurrent update conflict")
)
