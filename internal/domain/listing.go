package domain

import "time"

// Listing is one supermarket's price entry for one product
type Listing struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Supermarket string    `json:"supermarket"`
	Price       float64   `json:"price"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// ComparisonResult groups every listing matching a product name together with the cheapest one.
// Cheapest is always one of AllMatches.
type ComparisonResult struct {
	QueriedName string    `json:"queriedName"`
	AllMatches  []Listing `json:"allMatches"`
	Cheapest    Listing   `json:"cheapest"`
}

// SupermarketTotal is the price of a shopping list at a single supermarket
type SupermarketTotal struct {
	Supermarket  string  `json:"supermarket"`
	Total        float64 `json:"total"`
	MissingCount int     `json:"missingCount"`
}

// AggregateResult holds per-supermarket totals for a shopping list, cheapest first.
// Best is nil when no listing matched any item.
type AggregateResult struct {
	Items          []string           `json:"items"`
	PerSupermarket []SupermarketTotal `json:"perSupermarket"`
	Best           *SupermarketTotal  `json:"best"`
}

// CompareListRequest is the body of a shopping list comparison.
// Either Items or Text (free-form list, one item per line or comma) must be set.
type CompareListRequest struct {
	Items []string `json:"items"`
	Text  string   `json:"text,omitempty"`
}

// CreateListingRequest is the body used to add a listing to the catalog
type CreateListingRequest struct {
	Name        string  `json:"name" binding:"required"`
	Supermarket string  `json:"supermarket" binding:"required"`
	Price       float64 `json:"price"`
}
