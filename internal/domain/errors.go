package domain

import "errors"

var (
	// ErrProductNotFound is returned when no listing matches a product name
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidInput is returned when a shopping list comparison has no items
	ErrInvalidInput = errors.New("at least one item is required")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrListingNotFound is returned when a listing id does not exist in the catalog
	ErrListingNotFound = errors.New("listing not found")

	// ErrCatalogUnavailable is returned when the listing catalog cannot be read
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrReadOnlyCatalog is returned on writes against a catalog backed by a remote service
	ErrReadOnlyCatalog = errors.New("catalog is read-only")

	// ErrUnsupportedFormat is returned when an imported file type is not recognised
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
