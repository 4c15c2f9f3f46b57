// Package storage persists uploaded receipt images.
package storage

import "context"

// Store saves uploaded objects and returns their public URLs.
type Store interface {
	// Put writes an object and returns the URL it will be served from.
	Put(ctx context.Context, filename string, data []byte, contentType string) (string, error)
}
