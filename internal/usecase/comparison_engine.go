package usecase

import (
	"strings"

	"github.com/comparaprecios/backend/internal/domain"
)

// FindByExactName returns every listing whose normalized name equals the normalized query,
// along with the cheapest of them. Ties on price go to the listing that appears first.
// Returns domain.ErrProductNotFound when nothing matches.
func FindByExactName(listings []domain.Listing, query string) (*domain.ComparisonResult, error) {
	key := NormalizeName(query)

	var matches []domain.Listing
	for _, l := range listings {
		if NormalizeName(l.Name) == key {
			matches = append(matches, l)
		}
	}
	if len(matches) == 0 {
		return nil, domain.ErrProductNotFound
	}

	return &domain.ComparisonResult{
		QueriedName: query,
		AllMatches:  matches,
		Cheapest:    cheapest(matches),
	}, nil
}

// FindByPrefix returns the listings whose normalized name starts with the normalized prefix,
// in input order. An empty prefix matches everything.
func FindByPrefix(listings []domain.Listing, prefix string) []domain.Listing {
	p := NormalizeName(prefix)

	matches := make([]domain.Listing, 0)
	for _, l := range listings {
		if strings.HasPrefix(NormalizeName(l.Name), p) {
			matches = append(matches, l)
		}
	}
	return matches
}

// MatchingNames returns the distinct product names starting with prefix, one per normalized
// name, using the first spelling seen. Backs autocomplete.
func MatchingNames(listings []domain.Listing, prefix string) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, l := range FindByPrefix(listings, prefix) {
		key := NormalizeName(l.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, l.Name)
	}
	return names
}

// CompareAll groups listings by normalized name and reports the cheapest listing of each group.
// Groups come out in the order their first listing appears; each group is labelled with that
// listing's original name.
func CompareAll(listings []domain.Listing) []domain.ComparisonResult {
	index := make(map[string]int)
	results := make([]domain.ComparisonResult, 0)

	for _, l := range listings {
		key := NormalizeName(l.Name)
		i, ok := index[key]
		if !ok {
			i = len(results)
			index[key] = i
			results = append(results, domain.ComparisonResult{QueriedName: l.Name})
		}
		results[i].AllMatches = append(results[i].AllMatches, l)
	}

	for i := range results {
		results[i].Cheapest = cheapest(results[i].AllMatches)
	}
	return results
}

// cheapest picks the first listing with the minimum price. listings must be non-empty.
func cheapest(listings []domain.Listing) domain.Listing {
	best := listings[0]
	for _, l := range listings[1:] {
		if l.Price < best.Price {
			best = l
		}
	}
	return best
}
