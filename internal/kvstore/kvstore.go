// Package kvstore provides durable key/value backends for shelf settings.
package kvstore

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	ErrLockTimeout  = errors.New("failed to acquire store lock")
	ErrUnavailable  = errors.New("store unavailable")
	ErrInvalidValue = errors.New("value is not a JSON document")
)

// Backend is a durable key/value store with a readiness signal.
//
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/backend.go . Backend
type Backend interface {
	// Ready blocks until the backend can serve reads.
	// Returns an error wrapping ErrUnavailable if it never will.
	Ready(ctx context.Context) error

	// Get returns the value stored under key.
	// The boolean is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key durably.
	Set(ctx context.Context, key string, value []byte) error
}
