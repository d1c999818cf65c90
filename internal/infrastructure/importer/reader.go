// Package importer decodes catalog listings from uploaded files.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/comparaprecios/backend/internal/domain"
	"github.com/comparaprecios/backend/internal/infrastructure/catalogapi"
)

// Reader picks a decoder by file extension. It satisfies domain.ListingReader.
type Reader struct {
	logger zerolog.Logger
}

// NewReader creates a Reader
func NewReader(logger zerolog.Logger) *Reader {
	return &Reader{logger: logger.With().Str("component", "importer").Logger()}
}

// ReadListings decodes .csv, .xlsx, .xls or .json content into listings in file order
func (r *Reader) ReadListings(src io.Reader, filename string) ([]domain.Listing, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".csv":
		rows, err = readCSV(src)
	case ".xlsx":
		rows, err = readXLSX(src)
	case ".xls":
		rows, err = readXLS(src)
	case ".json":
		return r.readJSON(src)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidRequest, ext, err)
	}

	listings, skipped, err := rowsToListings(rows)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		r.logger.Info().Str("file", filename).Int("skipped", skipped).Msg("skipped incomplete rows")
	}
	return listings, nil
}

// readJSON accepts an array in the product service shape or the listing shape
func (r *Reader) readJSON(src io.Reader) ([]domain.Listing, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	var products []catalogapi.Product
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	listings, skipped := catalogapi.MapToListings(products)
	if skipped > 0 {
		r.logger.Info().Int("skipped", skipped).Msg("skipped incomplete products")
	}
	return listings, nil
}
