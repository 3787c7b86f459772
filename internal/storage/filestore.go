package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"onmodel/internal/domain"
)

const (
	listingsFile = "listings.json"
	settingsFile = "settings.json"
)

// FileStore keeps listings and per-user default settings as JSON documents
// under a base directory. It is intended for development and test
// environments where PostgreSQL is not available. The full record set is
// loaded at construction and every mutation is written through before the
// call returns, so an acknowledged mutation survives a crash.
type FileStore struct {
	basePath string

	mu       sync.Mutex
	listings []*domain.Listing // insertion order
	byID     map[string]*domain.Listing
	settings map[string]domain.GenerationSettings
}

// NewFileStore initializes a FileStore rooted at basePath and loads any
// existing records.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	s := &FileStore{
		basePath: basePath,
		byID:     make(map[string]*domain.Listing),
		settings: make(map[string]domain.GenerationSettings),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	var listings []*domain.Listing
	if err := readJSON(filepath.Join(s.basePath, listingsFile), &listings); err != nil {
		return fmt.Errorf("storage: load listings: %w", err)
	}
	for _, l := range listings {
		s.listings = append(s.listings, l)
		s.byID[l.ID] = l
	}
	if err := readJSON(filepath.Join(s.basePath, settingsFile), &s.settings); err != nil {
		return fmt.Errorf("storage: load settings: %w", err)
	}
	if s.settings == nil {
		s.settings = make(map[string]domain.GenerationSettings)
	}
	return nil
}

// Create persists a fresh listing with no generated images.
func (s *FileStore) Create(ctx context.Context, userID string, src domain.SourceImage, settings domain.GenerationSettings) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	listing := &domain.Listing{
		ID:              uuid.NewString(),
		UserID:          userID,
		SourceImage:     src,
		Settings:        settings,
		GeneratedImages: []domain.GeneratedImage{},
		CreatedAt:       time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = append(s.listings, listing)
	s.byID[listing.ID] = listing
	if err := s.persistListings(); err != nil {
		s.listings = s.listings[:len(s.listings)-1]
		delete(s.byID, listing.ID)
		return nil, err
	}
	return listing.Clone(), nil
}

// AppendImage appends img to the listing and fixes the cover key to the
// first appended image, atomically with respect to concurrent appenders.
func (s *FileStore) AppendImage(ctx context.Context, listingID string, img domain.GeneratedImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.byID[listingID]
	if !ok {
		return fmt.Errorf("storage: listing %s: %w", listingID, domain.ErrNotFound)
	}
	prevCover := listing.CoverImageKey
	listing.GeneratedImages = append(listing.GeneratedImages, img)
	if listing.CoverImageKey == "" {
		listing.CoverImageKey = img.StorageKey
	}
	if err := s.persistListings(); err != nil {
		listing.GeneratedImages = listing.GeneratedImages[:len(listing.GeneratedImages)-1]
		listing.CoverImageKey = prevCover
		return err
	}
	return nil
}

// GetByID fetches one listing.
func (s *FileStore) GetByID(ctx context.Context, listingID string) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.byID[listingID]
	if !ok {
		return nil, fmt.Errorf("storage: listing %s: %w", listingID, domain.ErrNotFound)
	}
	return listing.Clone(), nil
}

// ListByUser returns the user's listings newest first; equal timestamps keep
// insertion order.
func (s *FileStore) ListByUser(ctx context.Context, userID string) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Listing
	for _, l := range s.listings {
		if l.UserID == userID {
			out = append(out, *l.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns the user's stored default settings, falling back to the
// service-wide defaults.
func (s *FileStore) Get(ctx context.Context, userID string) (domain.GenerationSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.GenerationSettings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings, ok := s.settings[userID]; ok {
		return settings, nil
	}
	return domain.DefaultSettings(), nil
}

// Save writes through the user's default settings.
func (s *FileStore) Save(ctx context.Context, userID string, settings domain.GenerationSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.settings[userID]
	s.settings[userID] = settings
	if err := writeJSON(filepath.Join(s.basePath, settingsFile), s.settings); err != nil {
		if had {
			s.settings[userID] = prev
		} else {
			delete(s.settings, userID)
		}
		return fmt.Errorf("storage: persist settings: %w", err)
	}
	return nil
}

func (s *FileStore) persistListings() error {
	if err := writeJSON(filepath.Join(s.basePath, listingsFile), s.listings); err != nil {
		return fmt.Errorf("storage: persist listings: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// writeJSON writes via a temp file and rename so readers never observe a
// half-written document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

var (
	_ domain.ListingRepository  = (*FileStore)(nil)
	_ domain.SettingsRepository = (*FileStore)(nil)
)
