package importer

import (
	"fmt"
	"strings"

	"github.com/comparaprecios/backend/internal/domain"
	"github.com/comparaprecios/backend/internal/infrastructure/catalogapi"
)

// columnAliases maps accepted header spellings to the listing field they hold
var columnAliases = map[string]string{
	"name":         "name",
	"nombre":       "name",
	"producto":     "name",
	"product":      "name",
	"supermarket":  "supermarket",
	"supermercado": "supermarket",
	"tienda":       "supermarket",
	"store":        "supermarket",
	"price":        "price",
	"precio":       "price",
	"importe":      "price",
}

type columnIndex struct {
	name, supermarket, price int
}

// locateColumns finds the required columns in the header row; the first matching column wins
func locateColumns(header []string) (columnIndex, error) {
	found := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		field, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, seen := found[field]; !seen {
			found[field] = i
		}
	}

	for _, field := range []string{"name", "supermarket", "price"} {
		if _, ok := found[field]; !ok {
			return columnIndex{}, fmt.Errorf("%w: missing %s column", domain.ErrInvalidRequest, field)
		}
	}
	return columnIndex{name: found["name"], supermarket: found["supermarket"], price: found["price"]}, nil
}

// rowsToListings treats the first non-empty row as the header.
// Rows without a name or supermarket, or with an unparsable price, are counted as skipped.
func rowsToListings(rows [][]string) ([]domain.Listing, int, error) {
	start := 0
	for start < len(rows) && isBlankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return []domain.Listing{}, 0, nil
	}

	idx, err := locateColumns(rows[start])
	if err != nil {
		return nil, 0, err
	}

	listings := make([]domain.Listing, 0, len(rows)-start-1)
	skipped := 0
	for _, row := range rows[start+1:] {
		if isBlankRow(row) {
			continue
		}

		name := strings.TrimSpace(cell(row, idx.name))
		supermarket := strings.TrimSpace(cell(row, idx.supermarket))
		price, err := catalogapi.ParsePrice(cell(row, idx.price))
		if name == "" || supermarket == "" || err != nil {
			skipped++
			continue
		}

		listings = append(listings, domain.Listing{
			Name:        name,
			Supermarket: supermarket,
			Price:       price,
		})
	}
	return listings, skipped, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
