package usecase

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comparaprecios/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data        map[string]interface{}
	getError    error
	setError    error
	getCalled   bool
	setCalled   bool
	deleteCalls int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.deleteCalls++
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockListingRepository is a mock implementation of domain.ListingRepository
type MockListingRepository struct {
	listings  []domain.Listing
	listError error
	addError  error
	listCalls int
	deleted   []string
	// onList runs once, after the snapshot is taken and before List returns
	onList func()
}

func NewMockListingRepository(listings ...domain.Listing) *MockListingRepository {
	return &MockListingRepository{listings: listings}
}

func (m *MockListingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	m.listCalls++
	if m.listError != nil {
		return nil, m.listError
	}
	snapshot := append([]domain.Listing(nil), m.listings...)
	if hook := m.onList; hook != nil {
		m.onList = nil
		hook()
	}
	return snapshot, nil
}

func (m *MockListingRepository) Add(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	if m.addError != nil {
		return domain.Listing{}, m.addError
	}
	listing.ID = "generated-id"
	m.listings = append(m.listings, listing)
	return listing, nil
}

func (m *MockListingRepository) AddBatch(ctx context.Context, listings []domain.Listing) (int, error) {
	if m.addError != nil {
		return 0, m.addError
	}
	m.listings = append(m.listings, listings...)
	return len(listings), nil
}

func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	for i, l := range m.listings {
		if l.ID == id {
			m.listings = append(m.listings[:i], m.listings[i+1:]...)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return domain.ErrListingNotFound
}

// MockListingReader is a mock implementation of domain.ListingReader
type MockListingReader struct {
	listings []domain.Listing
	err      error
	filename string
}

func (m *MockListingReader) ReadListings(r io.Reader, filename string) ([]domain.Listing, error) {
	m.filename = filename
	if m.err != nil {
		return nil, m.err
	}
	return m.listings, nil
}

func TestNewPriceService(t *testing.T) {
	t.Run("creates service without cache", func(t *testing.T) {
		svc := NewPriceService(NewMockListingRepository(), nil, nil, PriceServiceConfig{})
		require.NotNil(t, svc)
		assert.False(t, svc.cachingEnabled())
	})

	t.Run("creates service with cache", func(t *testing.T) {
		svc := NewPriceService(NewMockListingRepository(), NewMockCacheRepository(), nil, PriceServiceConfig{
			CatalogTTL: time.Minute,
		})
		assert.True(t, svc.cachingEnabled())
		assert.Equal(t, time.Minute, svc.catalogTTL)
	})
}

func TestPriceService_Compare(t *testing.T) {
	ctx := context.Background()

	t.Run("returns cheapest listing", func(t *testing.T) {
		svc := NewPriceService(NewMockListingRepository(sampleListings()...), nil, nil, PriceServiceConfig{})

		result, err := svc.Compare(ctx, "leche")

		require.NoError(t, err)
		assert.Equal(t, "Carrefour", result.Cheapest.Supermarket)
		assert.Len(t, result.AllMatches, 2)
	})

	t.Run("returns not found for unknown product", func(t *testing.T) {
		svc := NewPriceService(NewMockListingRepository(sampleListings()...), nil, nil, PriceServiceConfig{})

		_, err := svc.Compare(ctx, "queso")

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("blank name matches nothing", func(t *testing.T) {
		svc := NewPriceService(NewMockListingRepository(sampleListings()...), nil, nil, PriceServiceConfig{})

		_, err := svc.Compare(ctx, "  ")

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("wraps repository failures", func(t *testing.T) {
		repo := NewMockListingRepository()
		repo.listError = errors.New("connection refused")
		svc := NewPriceService(repo, nil, nil, PriceServiceConfig{})

		_, err := svc.Compare(ctx, "leche")

		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestPriceService_CatalogCache(t *testing.T) {
	ctx := context.Background()

	t.Run("caches catalog snapshot", func(t *testing.T) {
		repo := NewMockListingRepository(sampleListings()...)
		cache := NewMockCacheRepository()
		svc := NewPriceService(repo, cache, nil, PriceServiceConfig{CatalogTTL: time.Hour})

		_, err := svc.CompareAll(ctx)
		require.NoError(t, err)
		_, err = svc.CompareAll(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, repo.listCalls)
		assert.True(t, cache.setCalled)
	})

	t.Run("decodes snapshot stored as JSON string", func(t *testing.T) {
		repo := NewMockListingRepository()
		cache := NewMockCacheRepository()
		cache.data[catalogCacheKey] = `[{"name":"Pan","supermarket":"Lidl","price":0.99}]`
		svc := NewPriceService(repo, cache, nil, PriceServiceConfig{CatalogTTL: time.Hour})

		names, err := svc.SearchNames(ctx, "p")

		require.NoError(t, err)
		assert.Equal(t, []string{"Pan"}, names)
		assert.Equal(t, 0, repo.listCalls)
	})

	t.Run("decodes snapshot stored as generic JSON", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.data[catalogCacheKey] = []interface{}{
			map[string]interface{}{"name": "Pan", "supermarket": "Lidl", "price": 0.99},
		}
		svc := NewPriceService(NewMockListingRepository(), cache, nil, PriceServiceConfig{CatalogTTL: time.Hour})

		listings, err := svc.SearchListings(ctx, "pan")

		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, 0.99, listings[0].Price)
	})

	t.Run("falls back to repository when cache fails", func(t *testing.T) {
		repo := NewMockListingRepository(sampleListings()...)
		cache := NewMockCacheRepository()
		cache.getError = errors.New("redis down")
		cache.setError = errors.New("redis down")
		svc := NewPriceService(repo, cache, nil, PriceServiceConfig{CatalogTTL: time.Hour})

		result, err := svc.Compare(ctx, "pan")

		require.NoError(t, err)
		assert.Equal(t, "Lidl", result.Cheapest.Supermarket)
		assert.Equal(t, 1, repo.listCalls)
	})

	t.Run("does not cache a snapshot read before a concurrent write", func(t *testing.T) {
		repo := NewMockListingRepository(sampleListings()...)
		cache := NewMockCacheRepository()
		svc := NewPriceService(repo, cache, nil, PriceServiceConfig{CatalogTTL: time.Hour})

		repo.onList = func() {
			_, err := svc.AddListing(ctx, &domain.CreateListingRequest{Name: "Queso", Supermarket: "Dia", Price: 3.5})
			require.NoError(t, err)
		}

		_, err := svc.Compare(ctx, "queso")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.False(t, cache.setCalled)

		result, err := svc.Compare(ctx, "queso")
		require.NoError(t, err)
		assert.Equal(t, "Dia", result.Cheapest.Supermarket)
		assert.Equal(t, 2, repo.listCalls)
	})

	t.Run("skips cache when ttl is zero", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := NewPriceService(NewMockListingRepository(sampleListings()...), cache, nil, PriceServiceConfig{})

		_, err := svc.CompareAll(ctx)

		require.NoError(t, err)
		assert.False(t, cache.getCalled)
		assert.False(t, cache.setCalled)
	})
}

func TestPriceService_CompareList(t *testing.T) {
	ctx := context.Background()
	svc := NewPriceService(NewMockListingRepository(sampleListings()...), nil, nil, PriceServiceConfig{})

	t.Run("compares explicit items", func(t *testing.T) {
		result, err := svc.CompareList(ctx, &domain.CompareListRequest{Items: []string{"leche", "pan"}})

		require.NoError(t, err)
		require.NotNil(t, result.Best)
		assert.Equal(t, "Lidl", result.Best.Supermarket)
	})

	t.Run("parses free-form text when no items given", func(t *testing.T) {
		result, err := svc.CompareList(ctx, &domain.CompareListRequest{Text: "- 2x leche\n- pan"})

		require.NoError(t, err)
		assert.Equal(t, []string{"leche", "pan"}, result.Items)
	})

	t.Run("ignores blank items", func(t *testing.T) {
		result, err := svc.CompareList(ctx, &domain.CompareListRequest{Items: []string{" ", "pan", ""}})

		require.NoError(t, err)
		assert.Equal(t, []string{"pan"}, result.Items)
	})

	t.Run("rejects empty list", func(t *testing.T) {
		_, err := svc.CompareList(ctx, &domain.CompareListRequest{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.CompareList(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPriceService_AddListing(t *testing.T) {
	ctx := context.Background()

	t.Run("stores listing and invalidates cache", func(t *testing.T) {
		repo := NewMockListingRepository()
		cache := NewMockCacheRepository()
		svc := NewPriceService(repo, cache, nil, PriceServiceConfig{CatalogTTL: time.Hour})
		fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return fixed }

		created, err := svc.AddListing(ctx, &domain.CreateListingRequest{
			Name:        "  Leche ",
			Supermarket: "Dia",
			Price:       0.89,
		})

		require.NoError(t, err)
		assert.Equal(t, "generated-id", created.ID)
		assert.Equal(t, "Leche", created.Name)
		assert.Equal(t, fixed, created.UpdatedAt)
		assert.Equal(t, 1, cache.deleteCalls)
	})

	t.Run("validates request", func(t *testing.T) {
		svc := NewPriceService(NewMockListingRepository(), nil, nil, PriceServiceConfig{})

		requests := []*domain.CreateListingRequest{
			nil,
			{Name: "", Supermarket: "Dia", Price: 1},
			{Name: "Pan", Supermarket: " ", Price: 1},
			{Name: "Pan", Supermarket: "Dia", Price: -1},
			{Name: "Pan", Supermarket: "Dia", Price: math.NaN()},
			{Name: "Pan", Supermarket: "Dia", Price: math.Inf(1)},
		}
		for _, req := range requests {
			_, err := svc.AddListing(ctx, req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		}
	})

	t.Run("propagates read-only catalog", func(t *testing.T) {
		repo := NewMockListingRepository()
		repo.addError = domain.ErrReadOnlyCatalog
		svc := NewPriceService(repo, nil, nil, PriceServiceConfig{})

		_, err := svc.AddListing(ctx, &domain.CreateListingRequest{Name: "Pan", Supermarket: "Dia", Price: 1})

		assert.ErrorIs(t, err, domain.ErrReadOnlyCatalog)
	})
}

func TestPriceService_DeleteListing(t *testing.T) {
	ctx := context.Background()
	repo := NewMockListingRepository(domain.Listing{ID: "a1", Name: "Pan", Supermarket: "Dia", Price: 1})
	svc := NewPriceService(repo, nil, nil, PriceServiceConfig{})

	require.NoError(t, svc.DeleteListing(ctx, "a1"))
	assert.Equal(t, []string{"a1"}, repo.deleted)

	assert.ErrorIs(t, svc.DeleteListing(ctx, "a1"), domain.ErrListingNotFound)
	assert.ErrorIs(t, svc.DeleteListing(ctx, ""), domain.ErrInvalidRequest)
}

func TestPriceService_ImportListings(t *testing.T) {
	ctx := context.Background()

	t.Run("stores decoded listings", func(t *testing.T) {
		repo := NewMockListingRepository()
		reader := &MockListingReader{listings: []domain.Listing{
			{Name: "Pan", Supermarket: "Dia", Price: 1},
			{Name: "Leche", Supermarket: "Dia", Price: 0.89},
		}}
		svc := NewPriceService(repo, nil, reader, PriceServiceConfig{})

		n, err := svc.ImportListings(ctx, strings.NewReader("ignored"), "precios.csv")

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, "precios.csv", reader.filename)
		assert.Len(t, repo.listings, 2)
		assert.False(t, repo.listings[0].UpdatedAt.IsZero())
	})

	t.Run("propagates reader errors", func(t *testing.T) {
		reader := &MockListingReader{err: domain.ErrUnsupportedFormat}
		svc := NewPriceService(NewMockListingRepository(), nil, reader, PriceServiceConfig{})

		_, err := svc.ImportListings(ctx, strings.NewReader(""), "precios.pdf")

		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("fails without reader", func(t *testing.T) {
		svc := NewPriceService(NewMockListingRepository(), nil, nil, PriceServiceConfig{})

		_, err := svc.ImportListings(ctx, strings.NewReader(""), "precios.csv")

		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})
}
