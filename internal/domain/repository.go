package domain

import "context"

// ListingRepository defines durable, user-scoped persistence for listings.
// Implementations must make AppendImage atomic against concurrent callers
// targeting the same listing id; appends to different listings must not
// block each other.
type ListingRepository interface {
	// Create allocates a fresh listing with no generated images and persists
	// it before returning.
	Create(ctx context.Context, userID string, src SourceImage, settings GenerationSettings) (*Listing, error)
	// AppendImage appends img to the listing's generated images and, if the
	// cover is unset, fixes it to img.StorageKey in the same step. Returns
	// ErrNotFound when no listing has the given id.
	AppendImage(ctx context.Context, listingID string, img GeneratedImage) error
	// GetByID fetches one listing; ErrNotFound when absent.
	GetByID(ctx context.Context, listingID string) (*Listing, error)
	// ListByUser returns the user's listings sorted by CreatedAt descending,
	// ties kept in insertion order.
	ListByUser(ctx context.Context, userID string) ([]Listing, error)
}

// SettingsRepository stores each user's default generation settings.
type SettingsRepository interface {
	// Get returns the stored defaults, or DefaultSettings() when the user has
	// never saved any.
	Get(ctx context.Context, userID string) (GenerationSettings, error)
	Save(ctx context.Context, userID string, settings GenerationSettings) error
}
