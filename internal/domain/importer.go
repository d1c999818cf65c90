package domain

import "io"

// ListingReader decodes catalog listings from an uploaded file
type ListingReader interface {
	ReadListings(r io.Reader, filename string) ([]Listing, error)
}
