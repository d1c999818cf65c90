package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ListingRepository is the source of catalog listings.
// List must return listings in insertion order; comparison tie-breaks depend on it.
type ListingRepository interface {
	List(ctx context.Context) ([]Listing, error)
	Add(ctx context.Context, listing Listing) (Listing, error)
	AddBatch(ctx context.Context, listings []Listing) (int, error)
	Delete(ctx context.Context, id string) error
}
