package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"onmodel/internal/domain"
	"onmodel/internal/providers/image"
	"onmodel/internal/storage"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fail  map[domain.Pose]error
	delay map[domain.Pose]time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, req image.GenerateRequest) (image.Result, error) {
	pose := req.Settings.Poses[0]
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if d := f.delay[pose]; d > 0 {
		time.Sleep(d)
	}
	if err := f.fail[pose]; err != nil {
		return image.Result{}, err
	}
	return image.Result{
		URL:    "https://img.example/" + string(pose) + ".png",
		Prompt: "render " + string(pose),
	}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(t *testing.T, gen image.Generator) (*ListingService, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewListingService(store, gen, zerolog.New(io.Discard)), store
}

func settingsWithPoses(poses ...domain.Pose) domain.GenerationSettings {
	s := domain.DefaultSettings()
	s.Poses = poses
	return s
}

var (
	testUser    = &domain.User{ID: "u1", Email: "u1@example.com"}
	testGarment = &domain.SourceImage{Name: "linen shirt", URL: "file:///shirt.png"}
)

func TestGenerateAllPosesSucceed(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(t, gen)

	listing, outcomes, err := svc.Generate(context.Background(), testUser, testGarment,
		settingsWithPoses(domain.PoseFace, domain.PoseThreeQuarter))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(listing.GeneratedImages) != 2 {
		t.Fatalf("expected 2 images, got %d", len(listing.GeneratedImages))
	}
	// Arrival order is non-deterministic; the cover must simply belong to
	// the appended set.
	keys := map[string]bool{}
	for _, img := range listing.GeneratedImages {
		keys[img.StorageKey] = true
	}
	if !keys[listing.CoverImageKey] {
		t.Fatalf("cover %q not among appended images %v", listing.CoverImageKey, keys)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.OK() {
			t.Fatalf("outcome for %s should be ok: %v", o.Pose, o.Err)
		}
		if o.Image == nil || o.Image.Prompt == "" {
			t.Fatalf("outcome for %s missing image or prompt", o.Pose)
		}
	}
}

func TestGeneratePartialFailureDegradesSilently(t *testing.T) {
	gen := &fakeGenerator{
		fail:  map[domain.Pose]error{domain.PoseProfile: errors.New("upstream overloaded")},
		delay: map[domain.Pose]time.Duration{domain.PoseFace: 10 * time.Millisecond},
	}
	svc, _ := newTestService(t, gen)

	listing, outcomes, err := svc.Generate(context.Background(), testUser, testGarment,
		settingsWithPoses(domain.PoseFace, domain.PoseProfile, domain.PoseBack))
	if err != nil {
		t.Fatalf("partial failure must not fail the call: %v", err)
	}
	if len(listing.GeneratedImages) != 2 {
		t.Fatalf("expected 2 images, got %d", len(listing.GeneratedImages))
	}
	var failed int
	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		failed++
		if o.Pose != domain.PoseProfile {
			t.Fatalf("unexpected failed pose %s", o.Pose)
		}
		if o.FailureCause() != "upstream overloaded" {
			t.Fatalf("failure cause = %q", o.FailureCause())
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly 1 failed outcome, got %d", failed)
	}
}

func TestGenerateAllPosesFail(t *testing.T) {
	gen := &fakeGenerator{
		fail: map[domain.Pose]error{domain.PoseFace: errors.New("model refused")},
	}
	svc, _ := newTestService(t, gen)

	listing, outcomes, err := svc.Generate(context.Background(), testUser, testGarment,
		settingsWithPoses(domain.PoseFace))
	if err != nil {
		t.Fatalf("all-failure run must still return normally: %v", err)
	}
	if len(listing.GeneratedImages) != 0 {
		t.Fatalf("expected no images, got %d", len(listing.GeneratedImages))
	}
	if listing.CoverImageKey != "" {
		t.Fatalf("cover should stay unset, got %q", listing.CoverImageKey)
	}
	if len(outcomes) != 1 || outcomes[0].OK() {
		t.Fatalf("expected a single failed outcome, got %+v", outcomes)
	}
}

func TestGenerateValidation(t *testing.T) {
	gen := &fakeGenerator{}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	if _, _, err := svc.Generate(ctx, nil, testGarment, settingsWithPoses(domain.PoseFace)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("nil user should be a validation error, got %v", err)
	}
	if _, _, err := svc.Generate(ctx, testUser, nil, settingsWithPoses(domain.PoseFace)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("nil garment should be a validation error, got %v", err)
	}
	if _, _, err := svc.Generate(ctx, testUser, testGarment, settingsWithPoses()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero poses should be a validation error, got %v", err)
	}

	listings, err := store.ListByUser(ctx, testUser.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("validation failures must not touch the store, found %d listings", len(listings))
	}
	if gen.callCount() != 0 {
		t.Fatalf("generator must not be called on validation failure, got %d calls", gen.callCount())
	}
}

func TestGenerateDeduplicatesPoses(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(t, gen)

	listing, outcomes, err := svc.Generate(context.Background(), testUser, testGarment,
		settingsWithPoses(domain.PoseFace, domain.PoseFace, domain.PoseThreeQuarter))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.callCount() != 2 {
		t.Fatalf("expected 2 generator calls after dedup, got %d", gen.callCount())
	}
	if len(outcomes) != 2 || len(listing.GeneratedImages) != 2 {
		t.Fatalf("expected 2 outcomes and images, got %d/%d", len(outcomes), len(listing.GeneratedImages))
	}
	if len(listing.Settings.Poses) != 2 {
		t.Fatalf("persisted settings should hold normalized poses, got %v", listing.Settings.Poses)
	}
}

func TestGenerateSequentialCallsCreateDistinctListings(t *testing.T) {
	gen := &fakeGenerator{}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	first, _, err := svc.Generate(ctx, testUser, testGarment, settingsWithPoses(domain.PoseFace))
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, _, err := svc.Generate(ctx, testUser, testGarment, settingsWithPoses(domain.PoseFace))
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("each orchestration call must produce a distinct listing")
	}
	listings, err := store.ListByUser(ctx, testUser.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
}

type appendFailingRepo struct {
	*storage.FileStore
}

func (r *appendFailingRepo) AppendImage(ctx context.Context, listingID string, img domain.GeneratedImage) error {
	return errors.New("disk full")
}

func TestGeneratePersistenceFailurePropagates(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	svc := NewListingService(&appendFailingRepo{store}, &fakeGenerator{}, zerolog.New(io.Discard))

	_, _, err = svc.Generate(context.Background(), testUser, testGarment, settingsWithPoses(domain.PoseFace))
	if err == nil {
		t.Fatal("store write failures must propagate to the caller")
	}
}

func TestStorageKeyDeterministic(t *testing.T) {
	a := storageKeyFor("l1", domain.PoseFace)
	b := storageKeyFor("l1", domain.PoseFace)
	if a != b {
		t.Fatalf("storage key must be deterministic: %q vs %q", a, b)
	}
	if a == storageKeyFor("l2", domain.PoseFace) || a == storageKeyFor("l1", domain.PoseBack) {
		t.Fatal("storage key must depend on listing and pose")
	}
}
