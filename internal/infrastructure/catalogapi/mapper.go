package catalogapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/comparaprecios/backend/internal/domain"
)

// Product is one entry of the product service's /products response.
// The service speaks Spanish field names; the plain listing shape is accepted as well.
type Product struct {
	MongoID      string     `json:"_id"`
	ID           string     `json:"id"`
	Nombre       string     `json:"nombre"`
	Name         string     `json:"name"`
	Supermercado string     `json:"supermercado"`
	Supermarket  string     `json:"supermarket"`
	Precio       *flexPrice `json:"precio"`
	Price        *flexPrice `json:"price"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

// flexPrice decodes a JSON number or a numeric string such as "1,25"
type flexPrice float64

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParsePrice(s)
		if err != nil {
			return err
		}
		*p = flexPrice(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = flexPrice(v)
	return nil
}

// ParsePrice accepts "1.25", "1,25" and a trailing currency symbol
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return v, nil
}

// MapToListing converts a product into a listing.
// ok is false when the product lacks a name, a supermarket or a non-negative price.
func MapToListing(p Product) (domain.Listing, bool) {
	listing := domain.Listing{
		ID:          firstNonBlank(p.MongoID, p.ID),
		Name:        strings.TrimSpace(firstNonBlank(p.Nombre, p.Name)),
		Supermarket: strings.TrimSpace(firstNonBlank(p.Supermercado, p.Supermarket)),
	}

	price := p.Precio
	if price == nil {
		price = p.Price
	}
	if listing.Name == "" || listing.Supermarket == "" || price == nil {
		return domain.Listing{}, false
	}
	listing.Price = float64(*price)
	if math.IsNaN(listing.Price) || math.IsInf(listing.Price, 0) || listing.Price < 0 {
		return domain.Listing{}, false
	}

	if p.UpdatedAt != nil {
		listing.UpdatedAt = p.UpdatedAt.UTC()
	}
	return listing, true
}

// MapToListings converts products in order, dropping incomplete ones
func MapToListings(products []Product) (listings []domain.Listing, skipped int) {
	listings = make([]domain.Listing, 0, len(products))
	for _, p := range products {
		l, ok := MapToListing(p)
		if !ok {
			skipped++
			continue
		}
		listings = append(listings, l)
	}
	return listings, skipped
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
