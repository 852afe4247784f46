// Package cache is the advisory response cache. Entries are JSON encoded;
// a failing cache is logged by callers and never fails a request.
package cache

import (
	"context"
	"fmt"
)

type Cache interface {
	// Get decodes the entry at key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

func ProductsKey(userID string) string {
	return fmt.Sprintf("products_%s", userID)
}

func ProductKey(productID, userID string) string {
	return fmt.Sprintf("product_%s_%s", productID, userID)
}

func SalesKey(userID string) string {
	return fmt.Sprintf("sales_%s", userID)
}

// SalesSummaryKey names a summary covering sales dated on or after since;
// an empty since means all-time.
func SalesSummaryKey(userID, since string) string {
	if since == "" {
		return fmt.Sprintf("sales_summary_%s", userID)
	}
	return fmt.Sprintf("sales_summary_%s_%s", userID, since)
}

func ProfileKey(userID string) string {
	return fmt.Sprintf("profile_%s", userID)
}
