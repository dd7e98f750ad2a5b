// Package storage defines how the application state is persisted: one JSON
// document per collection, addressed by a fixed key.
package storage

import (
	"context"
	"errors"
)

// Collection keys.
const (
	KeyAccounts     = "accounts"
	KeyTransactions = "transactions"
	KeyCategories   = "categories"
	KeyCharts       = "customCharts"
)

// Keys lists every collection key in load order.
func Keys() []string {
	return []string{KeyAccounts, KeyTransactions, KeyCategories, KeyCharts}
}

var ErrClosed = errors.New("storage closed")

// Ports for persistence adapters.
type (
	// BlobStore reads and writes opaque documents. Load reports found=false
	// for a key that was never saved.
	BlobStore interface {
		Load(ctx context.Context, key string) (data []byte, found bool, err error)
		Save(ctx context.Context, key string, data []byte) error
		Close() error
	}

	// Pinger is implemented by backends that can check their connection.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
