package storage

import (
	"context"

	"comps-scraper/models"
)

// ListingWriter is the interface any storage backend must satisfy.
type ListingWriter interface {
	Insert(ctx context.Context, l *models.Listing) error
	Close() error
}

// ListingReader reads stored comps back, newest first.
type ListingReader interface {
	FetchByMarketplace(ctx context.Context, m models.Marketplace, limit int) ([]*models.Listing, error)
}

// Store is a backend that can both write and read listings.
type Store interface {
	ListingWriter
	ListingReader
}
