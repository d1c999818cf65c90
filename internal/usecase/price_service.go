package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comparaprecios/backend/internal/domain"
)

// catalogCacheKey is the cache key of the catalog snapshot
const catalogCacheKey = "catalog:listings"

// PriceServiceConfig holds configuration for the price service
type PriceServiceConfig struct {
	// CatalogTTL is how long a catalog snapshot stays cached. Zero disables caching.
	CatalogTTL time.Duration
	Logger     *zerolog.Logger
}

// PriceService answers price comparison queries over the listing catalog.
// It loads a catalog snapshot and hands it to the comparison engine.
type PriceService struct {
	listings   domain.ListingRepository
	cache      domain.CacheRepository
	reader     domain.ListingReader
	catalogTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time

	// cacheMu guards snapshotVersion, which every invalidation bumps.
	// A snapshot read before a write is never stored after it.
	cacheMu         sync.Mutex
	snapshotVersion uint64
}

// NewPriceService creates a new price service with dependencies.
// cache and reader may be nil; without a cache every query reads the repository.
func NewPriceService(
	listings domain.ListingRepository,
	cache domain.CacheRepository,
	reader domain.ListingReader,
	config PriceServiceConfig,
) *PriceService {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "price_service").Logger()
	}

	return &PriceService{
		listings:   listings,
		cache:      cache,
		reader:     reader,
		catalogTTL: config.CatalogTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Compare finds every listing of a product and the cheapest one
// A blank name matches nothing and reports domain.ErrProductNotFound.
func (s *PriceService) Compare(ctx context.Context, name string) (*domain.ComparisonResult, error) {
	listings, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	result, err := FindByExactName(listings, name)
	if err != nil {
		comparisonsTotal.WithLabelValues("compare", "not_found").Inc()
		return nil, err
	}
	comparisonsTotal.WithLabelValues("compare", "ok").Inc()
	return result, nil
}

// CompareAll reports the cheapest listing of every product in the catalog
func (s *PriceService) CompareAll(ctx context.Context) ([]domain.ComparisonResult, error) {
	listings, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	comparisonsTotal.WithLabelValues("compare_all", "ok").Inc()
	return CompareAll(listings), nil
}

// CompareList prices a shopping list at every supermarket.
// Items take precedence; Text is parsed as a free-form list when no items are given.
// Blank items are ignored.
func (s *PriceService) CompareList(ctx context.Context, request *domain.CompareListRequest) (*domain.AggregateResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidInput
	}

	var items []string
	for _, item := range request.Items {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 && request.Text != "" {
		items = ParseShoppingList(request.Text)
	}
	if len(items) == 0 {
		comparisonsTotal.WithLabelValues("compare_list", "invalid").Inc()
		return nil, domain.ErrInvalidInput
	}

	listings, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	result, err := CompareList(listings, items)
	if err != nil {
		return nil, err
	}
	comparisonsTotal.WithLabelValues("compare_list", "ok").Inc()

	s.logger.Debug().
		Int("items", len(items)).
		Int("supermarkets", len(result.PerSupermarket)).
		Msg("shopping list compared")

	return result, nil
}

// SearchNames returns the distinct product names starting with prefix
func (s *PriceService) SearchNames(ctx context.Context, prefix string) ([]string, error) {
	listings, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return MatchingNames(listings, prefix), nil
}

// SearchListings returns the listings whose product name starts with prefix
func (s *PriceService) SearchListings(ctx context.Context, prefix string) ([]domain.Listing, error) {
	listings, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return FindByPrefix(listings, prefix), nil
}

// AddListing validates and stores a new listing
func (s *PriceService) AddListing(ctx context.Context, request *domain.CreateListingRequest) (domain.Listing, error) {
	if err := validateListingRequest(request); err != nil {
		return domain.Listing{}, err
	}

	created, err := s.listings.Add(ctx, domain.Listing{
		Name:        strings.TrimSpace(request.Name),
		Supermarket: strings.TrimSpace(request.Supermarket),
		Price:       request.Price,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.Listing{}, fmt.Errorf("add listing: %w", err)
	}

	s.invalidateCatalog(ctx)
	s.logger.Info().
		Str("id", created.ID).
		Str("name", created.Name).
		Str("supermarket", created.Supermarket).
		Float64("price", created.Price).
		Msg("listing added")

	return created, nil
}

// DeleteListing removes a listing from the catalog
func (s *PriceService) DeleteListing(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidRequest
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

// ImportListings decodes a spreadsheet or CSV file and appends its listings to the catalog.
// Returns the number of listings stored.
func (s *PriceService) ImportListings(ctx context.Context, r io.Reader, filename string) (int, error) {
	if s.reader == nil {
		return 0, domain.ErrUnsupportedFormat
	}

	listings, err := s.reader.ReadListings(r, filename)
	if err != nil {
		return 0, err
	}
	if len(listings) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	for i := range listings {
		listings[i].UpdatedAt = now
	}

	n, err := s.listings.AddBatch(ctx, listings)
	if err != nil {
		return 0, fmt.Errorf("import listings: %w", err)
	}

	s.invalidateCatalog(ctx)
	s.logger.Info().Str("file", filename).Int("imported", n).Msg("listings imported")

	return n, nil
}

// catalog returns the current catalog snapshot, from cache when possible
func (s *PriceService) catalog(ctx context.Context) ([]domain.Listing, error) {
	if s.cachingEnabled() {
		value, err := s.cache.Get(ctx, catalogCacheKey)
		if err == nil {
			listings, decodeErr := decodeCachedListings(value)
			if decodeErr == nil {
				catalogLoadsTotal.WithLabelValues("cache").Inc()
				return listings, nil
			}
			s.logger.Warn().Err(decodeErr).Msg("discarding undecodable catalog snapshot")
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("catalog cache read failed")
		}
	}

	s.cacheMu.Lock()
	version := s.snapshotVersion
	s.cacheMu.Unlock()

	listings, err := s.listings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	catalogLoadsTotal.WithLabelValues("repository").Inc()

	if s.cachingEnabled() {
		s.storeSnapshot(ctx, version, listings)
	}

	return listings, nil
}

func (s *PriceService) cachingEnabled() bool {
	return s.cache != nil && s.catalogTTL > 0
}

// storeSnapshot caches listings unless the catalog changed since version was read
func (s *PriceService) storeSnapshot(ctx context.Context, version uint64, listings []domain.Listing) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.snapshotVersion != version {
		s.logger.Debug().Msg("catalog changed during load, snapshot not cached")
		return
	}
	if err := s.cache.Set(ctx, catalogCacheKey, listings, s.catalogTTL); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache write failed")
	}
}

// invalidateCatalog drops the cached snapshot after a catalog write
func (s *PriceService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.snapshotVersion++

	if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

// decodeCachedListings converts a cached snapshot back into listings.
// Caches may hand back the original slice, a JSON string, or a generic JSON value.
func decodeCachedListings(value interface{}) ([]domain.Listing, error) {
	switch v := value.(type) {
	case []domain.Listing:
		return v, nil
	case string:
		var listings []domain.Listing
		if err := json.Unmarshal([]byte(v), &listings); err != nil {
			return nil, err
		}
		return listings, nil
	case []byte:
		var listings []domain.Listing
		if err := json.Unmarshal(v, &listings); err != nil {
			return nil, err
		}
		return listings, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var listings []domain.Listing
		if err := json.Unmarshal(data, &listings); err != nil {
			return nil, err
		}
		return listings, nil
	}
}

// validateListingRequest checks a listing before it reaches the catalog
func validateListingRequest(request *domain.CreateListingRequest) error {
	if request == nil {
		return domain.ErrInvalidRequest
	}
	if strings.TrimSpace(request.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(request.Supermarket) == "" {
		return fmt.Errorf("%w: supermarket is required", domain.ErrInvalidRequest)
	}
	if math.IsNaN(request.Price) || math.IsInf(request.Price, 0) || request.Price < 0 {
		return fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidRequest)
	}
	return nil
}
