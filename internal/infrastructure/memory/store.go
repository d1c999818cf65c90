// Package memory keeps the listing catalog in process memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/comparaprecios/backend/internal/domain"
)

// Store is an insertion-ordered listing catalog guarded by a RWMutex
type Store struct {
	mu       sync.RWMutex
	listings []domain.Listing
}

// NewStore creates a store holding a copy of seed. Listings without an ID get one.
func NewStore(seed []domain.Listing) *Store {
	s := &Store{listings: make([]domain.Listing, 0, len(seed))}
	for _, l := range seed {
		s.listings = append(s.listings, withID(l))
	}
	return s
}

// List returns a snapshot of the catalog in insertion order
func (s *Store) List(ctx context.Context) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.listings), nil
}

// Add appends a listing and returns it with its assigned ID
func (s *Store) Add(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	listing = withID(listing)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = append(s.listings, listing)
	return listing, nil
}

// AddBatch appends every listing in order
func (s *Store) AddBatch(ctx context.Context, listings []domain.Listing) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range listings {
		s.listings = append(s.listings, withID(l))
	}
	return len(listings), nil
}

// Delete removes the listing with the given ID
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.listings, func(l domain.Listing) bool { return l.ID == id })
	if idx < 0 {
		return domain.ErrListingNotFound
	}
	s.listings = slices.Delete(s.listings, idx, idx+1)
	return nil
}

// Len returns the number of listings held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

func withID(l domain.Listing) domain.Listing {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return l
}
