package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onmodel/internal/domain"
)

// ListingRepositoryPG implements domain.ListingRepository using PostgreSQL.
// Image appends ride on a single UPDATE so concurrent pose tasks targeting
// the same listing serialize on the row; different listings never contend.
type ListingRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewListingRepository creates a listing repository backed by PostgreSQL.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepositoryPG {
	return &ListingRepositoryPG{pool: pool}
}

// Create inserts a fresh listing with an empty image set.
func (r *ListingRepositoryPG) Create(ctx context.Context, userID string, src domain.SourceImage, settings domain.GenerationSettings) (*domain.Listing, error) {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	listing := &domain.Listing{
		ID:              uuid.NewString(),
		UserID:          userID,
		SourceImage:     src,
		Settings:        settings,
		GeneratedImages: []domain.GeneratedImage{},
	}

	query := `
INSERT INTO listings (id, user_id, source_name, source_url, settings)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;
`
	row := r.pool.QueryRow(ctx, query, listing.ID, userID, src.Name, src.URL, settingsJSON)
	if err := row.Scan(&listing.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	return listing, nil
}

// AppendImage appends the image and assigns the cover key if it is still
// unset, in one atomic statement.
func (r *ListingRepositoryPG) AppendImage(ctx context.Context, listingID string, img domain.GeneratedImage) error {
	imgJSON, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("encode generated image: %w", err)
	}

	query := `
UPDATE listings
SET generated_images = generated_images || $2::jsonb,
    cover_image_key = COALESCE(cover_image_key, $3)
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, listingID, imgJSON, img.StorageKey)
	if err != nil {
		return fmt.Errorf("append image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", listingID, domain.ErrNotFound)
	}
	return nil
}

// GetByID fetches a listing by its identifier.
func (r *ListingRepositoryPG) GetByID(ctx context.Context, listingID string) (*domain.Listing, error) {
	query := `
SELECT id, user_id, source_name, source_url, settings, generated_images, COALESCE(cover_image_key, ''), created_at
FROM listings
WHERE id = $1;
`
	listing, err := scanListing(r.pool.QueryRow(ctx, query, listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("listing %s: %w", listingID, domain.ErrNotFound)
		}
		return nil, err
	}
	return listing, nil
}

// ListByUser returns the user's listings newest first. The seq tie-break
// keeps equal timestamps in insertion order.
func (r *ListingRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Listing, error) {
	query := `
SELECT id, user_id, source_name, source_url, settings, generated_images, COALESCE(cover_image_key, ''), created_at
FROM listings
WHERE user_id = $1
ORDER BY created_at DESC, seq ASC;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		listing       domain.Listing
		settingsJSON  []byte
		imagesJSON    []byte
		createdAtUTC  time.Time
		coverImageKey string
	)
	if err := row.Scan(
		&listing.ID,
		&listing.UserID,
		&listing.SourceImage.Name,
		&listing.SourceImage.URL,
		&settingsJSON,
		&imagesJSON,
		&coverImageKey,
		&createdAtUTC,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settingsJSON, &listing.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	listing.GeneratedImages = []domain.GeneratedImage{}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &listing.GeneratedImages); err != nil {
			return nil, fmt.Errorf("decode generated images: %w", err)
		}
	}
	listing.CoverImageKey = coverImageKey
	listing.CreatedAt = createdAtUTC
	return &listing, nil
}

var _ domain.ListingRepository = (*ListingRepositoryPG)(nil)
