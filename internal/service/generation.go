package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"onmodel/internal/domain"
	"onmodel/internal/middleware"
	"onmodel/internal/providers/image"
)

// PoseOutcome reports the terminal state of one pose task. Exactly one of
// Image and Err is set.
type PoseOutcome struct {
	Pose  domain.Pose             `json:"pose"`
	Image *domain.GeneratedImage  `json:"image,omitempty"`
	Err   *domain.GenerationError `json:"-"`
}

// OK reports whether the pose produced an image.
func (o PoseOutcome) OK() bool { return o.Err == nil }

// FailureCause returns the human-readable cause for a failed pose.
func (o PoseOutcome) FailureCause() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Cause.Error()
}

// ListingService orchestrates one generation request: it creates a draft
// listing, fans out one generator call per requested pose, joins on every
// task regardless of outcome, and reconciles the results into the store.
type ListingService struct {
	listings  domain.ListingRepository
	generator image.Generator
	logger    zerolog.Logger
}

// NewListingService wires the orchestrator to its collaborators.
func NewListingService(listings domain.ListingRepository, generator image.Generator, logger zerolog.Logger) *ListingService {
	return &ListingService{listings: listings, generator: generator, logger: logger}
}

// Generate turns one request into a persisted listing holding as many images
// as the external generator could produce. Per-pose failures are absorbed
// into the outcome slice; only validation and persistence failures are
// returned as errors. Even an all-poses-failed run returns normally with an
// empty image set.
func (s *ListingService) Generate(ctx context.Context, user *domain.User, garment *domain.SourceImage, settings domain.GenerationSettings) (*domain.Listing, []PoseOutcome, error) {
	if user == nil || user.ID == "" {
		return nil, nil, fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	if garment == nil || garment.URL == "" {
		return nil, nil, fmt.Errorf("%w: garment image is required", domain.ErrValidation)
	}
	settings.Poses = domain.NormalizePoses(settings.Poses)
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	listing, err := s.listings.Create(ctx, user.ID, *garment, settings)
	if err != nil {
		return nil, nil, fmt.Errorf("create listing: %w", err)
	}

	locale := middleware.LocaleFromContext(ctx)

	// One slot per pose; each task owns its slot, so the join needs no lock.
	outcomes := make([]PoseOutcome, len(settings.Poses))
	appendErrs := make([]error, len(settings.Poses))

	var wg sync.WaitGroup
	for i, pose := range settings.Poses {
		wg.Add(1)
		go func(slot int, pose domain.Pose) {
			defer wg.Done()
			outcomes[slot], appendErrs[slot] = s.runPoseTask(ctx, listing, garment, settings, pose, locale)
		}(i, pose)
	}
	// Full barrier: every task reaches a terminal state before we proceed.
	// A failing sibling never cancels the others.
	wg.Wait()

	for _, appendErr := range appendErrs {
		if appendErr != nil {
			return nil, outcomes, appendErr
		}
	}

	fresh, err := s.listings.GetByID(ctx, listing.ID)
	if err != nil {
		return nil, outcomes, fmt.Errorf("reload listing: %w", err)
	}
	return fresh, outcomes, nil
}

// runPoseTask executes a single generator call and persists its result. A
// generator failure is recorded in the outcome only; a store failure is
// returned separately because it must abort the overall call.
func (s *ListingService) runPoseTask(ctx context.Context, listing *domain.Listing, garment *domain.SourceImage, settings domain.GenerationSettings, pose domain.Pose, locale string) (PoseOutcome, error) {
	result, err := s.generator.Generate(ctx, image.GenerateRequest{
		Garment:   *garment,
		Settings:  settings.WithPose(pose),
		RequestID: listing.ID,
		Locale:    locale,
	})
	if err != nil {
		genErr := &domain.GenerationError{Pose: pose, Cause: err}
		s.logger.Warn().
			Err(err).
			Str("listing_id", listing.ID).
			Str("pose", string(pose)).
			Msg("generation: pose task failed")
		return PoseOutcome{Pose: pose, Err: genErr}, nil
	}

	img := domain.GeneratedImage{
		ID:         uuid.NewString(),
		StorageKey: storageKeyFor(listing.ID, pose),
		URL:        result.URL,
		Pose:       pose,
		Prompt:     result.Prompt,
	}
	if err := s.listings.AppendImage(ctx, listing.ID, img); err != nil {
		return PoseOutcome{Pose: pose, Err: &domain.GenerationError{Pose: pose, Cause: err}},
			fmt.Errorf("append image for pose %s: %w", pose, err)
	}
	return PoseOutcome{Pose: pose, Image: &img}, nil
}

// storageKeyFor derives the storage key deterministically from the listing
// and pose, so re-runs of the same pose land on the same key.
func storageKeyFor(listingID string, pose domain.Pose) string {
	return fmt.Sprintf("listings/%s/%s.png", listingID, pose)
}
