package domain

import (
	"context"
	"io"
)

type FeedRepository interface {
	// Write path
	ReplaceFeed(ctx context.Context, municipality string, f Feed) error

	// Read paths
	GetBusiness(ctx context.Context, municipality, id string) (Business, error)
	ListInspections(ctx context.Context, municipality, id string, limit int) (InspectionsPage, error)
}

// SourceClient opens the raw source document. The caller closes the reader.
type SourceClient interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type InspectionsPage struct {
	Items []Inspection `json:"items"`
}
