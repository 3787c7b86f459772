package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"onmodel/internal/domain"
	"onmodel/internal/service"
	"onmodel/pkg/zip"
)

type generateRequest struct {
	Garment  domain.SourceImage         `json:"garment"`
	Settings *domain.GenerationSettings `json:"settings"`
}

type poseOutcomeResponse struct {
	Pose   domain.Pose `json:"pose"`
	Status string      `json:"status"`
	Error  string      `json:"error,omitempty"`
}

type generateResponse struct {
	Listing  *domain.Listing       `json:"listing"`
	Outcomes []poseOutcomeResponse `json:"outcomes"`
}

// GenerateListing runs one orchestration call: draft listing, per-pose
// fan-out, and the reconciled result.
func (a *App) GenerateListing(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	settings, err := a.resolveSettings(r, req.Settings, user.ID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load default settings")
		return
	}

	listing, outcomes, err := a.Service.Generate(r.Context(), user, &req.Garment, settings)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Str("user_id", user.ID).Msg("handlers: generate listing failed")
		a.error(w, http.StatusInternalServerError, "internal", "generation could not be persisted")
		return
	}
	a.json(w, http.StatusCreated, generateResponse{Listing: listing, Outcomes: outcomeResponses(outcomes)})
}

// resolveSettings uses the payload settings when present, otherwise the
// user's stored defaults seed the request.
func (a *App) resolveSettings(r *http.Request, payload *domain.GenerationSettings, userID string) (domain.GenerationSettings, error) {
	if payload != nil {
		return *payload, nil
	}
	return a.Settings.Get(r.Context(), userID)
}

func outcomeResponses(outcomes []service.PoseOutcome) []poseOutcomeResponse {
	out := make([]poseOutcomeResponse, len(outcomes))
	for i, o := range outcomes {
		out[i] = poseOutcomeResponse{Pose: o.Pose, Status: "ok"}
		if !o.OK() {
			out[i].Status = "failed"
			out[i].Error = o.FailureCause()
		}
	}
	return out
}

// ListListings returns the caller's listings, newest first.
func (a *App) ListListings(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	listings, err := a.Listings.ListByUser(r.Context(), user.ID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load listings")
		return
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": listings})
}

// GetListing returns one listing. Listings owned by other users read as
// missing so ownership is never leaked.
func (a *App) GetListing(w http.ResponseWriter, r *http.Request) {
	listing := a.loadListingForCaller(w, r)
	if listing == nil {
		return
	}
	a.json(w, http.StatusOK, listing)
}

// DownloadListing streams the listing's generated images as a zip archive.
func (a *App) DownloadListing(w http.ResponseWriter, r *http.Request) {
	listing := a.loadListingForCaller(w, r)
	if listing == nil {
		return
	}
	assets := make([]zip.Asset, 0, len(listing.GeneratedImages))
	for _, img := range listing.GeneratedImages {
		assets = append(assets, imageAsset(img))
	}
	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=listing-%s.zip", listing.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) loadListingForCaller(w http.ResponseWriter, r *http.Request) *domain.Listing {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil
	}
	listingID := chi.URLParam(r, "listing_id")
	if listingID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "listing_id required")
		return nil
	}
	listing, err := a.Listings.GetByID(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "listing not found")
			return nil
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load listing")
		return nil
	}
	if listing.UserID != user.ID {
		a.error(w, http.StatusNotFound, "not_found", "listing not found")
		return nil
	}
	return listing
}

// imageAsset converts one generated image into an archive entry. Inline data
// URLs are decoded to real bytes; remote URLs are archived as a pointer file.
func imageAsset(img domain.GeneratedImage) zip.Asset {
	name := string(img.Pose)
	if name == "" {
		name = img.ID
	}
	if data, mime, ok := decodeDataURL(img.URL); ok {
		ext := ".png"
		if strings.Contains(mime, "jpeg") {
			ext = ".jpg"
		}
		return zip.Asset{Filename: name + ext, MIME: mime, Data: data}
	}
	return zip.Asset{Filename: name + ".txt", MIME: "text/plain", Data: []byte(img.URL)}
}

func decodeDataURL(raw string) ([]byte, string, bool) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, "", false
	}
	rest := strings.TrimPrefix(raw, "data:")
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", false
	}
	return data, strings.TrimSuffix(meta, ";base64"), true
}
