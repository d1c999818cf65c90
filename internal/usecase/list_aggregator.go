package usecase

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/comparaprecios/backend/internal/domain"
)

// CompareList prices a shopping list at every supermarket carrying at least one of its items.
//
// An item matches a listing when the listing's normalized name contains the item's normalized
// name. Supermarkets are discovered while the items are walked in order; a supermarket only
// accrues missing items from the point it was first seen, so items processed before its
// discovery are never counted against it.
//
// Totals are rounded to cents and the result is sorted by total, ties kept in discovery order.
// Returns domain.ErrInvalidInput when requestedNames is empty.
func CompareList(listings []domain.Listing, requestedNames []string) (*domain.AggregateResult, error) {
	if len(requestedNames) == 0 {
		return nil, domain.ErrInvalidInput
	}

	normalized := make([]string, len(listings))
	for i, l := range listings {
		normalized[i] = NormalizeName(l.Name)
	}

	totals := make(map[string]decimal.Decimal)
	missing := make(map[string]int)
	var discovered []string

	for _, item := range requestedNames {
		key := NormalizeName(item)
		carried := make(map[string]bool)

		for i, l := range listings {
			if !strings.Contains(normalized[i], key) {
				continue
			}
			if _, ok := totals[l.Supermarket]; !ok {
				totals[l.Supermarket] = decimal.Zero
				missing[l.Supermarket] = 0
				discovered = append(discovered, l.Supermarket)
			}
			totals[l.Supermarket] = totals[l.Supermarket].Add(priceDecimal(l.Price))
			carried[l.Supermarket] = true
		}

		for _, s := range discovered {
			if !carried[s] {
				missing[s]++
			}
		}
	}

	perSupermarket := make([]domain.SupermarketTotal, 0, len(discovered))
	for _, s := range discovered {
		perSupermarket = append(perSupermarket, domain.SupermarketTotal{
			Supermarket:  s,
			Total:        totals[s].Round(2).InexactFloat64(),
			MissingCount: missing[s],
		})
	}
	slices.SortStableFunc(perSupermarket, func(a, b domain.SupermarketTotal) int {
		return cmp.Compare(a.Total, b.Total)
	})

	result := &domain.AggregateResult{
		Items:          slices.Clone(requestedNames),
		PerSupermarket: perSupermarket,
	}
	if len(perSupermarket) > 0 {
		best := perSupermarket[0]
		result.Best = &best
	}
	return result, nil
}

// priceDecimal converts a price for summing. NaN and infinite prices count as zero,
// decimal cannot represent them.
func priceDecimal(price float64) decimal.Decimal {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(price)
}
