// Package services holds the business rules: the sale processor, inventory,
// authentication and profile handling. Handlers talk only to these types.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"salesbackend/cache"
	"salesbackend/store"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Error pairs a sentinel with the message shown to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the client-facing text of err, or "" when err carries none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// fromStore maps repository errors onto service errors; unknown errors pass
// through untouched.
func fromStore(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(ErrNotFound, "%s not found", what)
	case errors.Is(err, store.ErrForbidden):
		return newError(ErrForbidden, "Unauthorized access")
	case errors.Is(err, store.ErrInsufficientStock):
		return newError(ErrInsufficientStock, "Not enough stock")
	case errors.Is(err, store.ErrDuplicate):
		return newError(ErrConflict, "%s already exists", what)
	default:
		return err
	}
}

func invalidate(ctx context.Context, c cache.Cache, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.Printf("Cache invalidation failed for %s: %v", strings.Join(keys, ", "), err)
	}
}

func readCache(ctx context.Context, c cache.Cache, key string, dest interface{}) bool {
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		log.Printf("Cache read failed for %s (continuing with store): %v", key, err)
		return false
	}
	return found
}

func writeCache(ctx context.Context, c cache.Cache, key string, value interface{}) {
	if err := c.Set(ctx, key, value); err != nil {
		log.Printf("Cache write failed for %s: %v", key, err)
	}
}
