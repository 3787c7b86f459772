package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"onmodel/internal/domain"
)

// GetSettings returns the caller's default generation settings, falling back
// to the service-wide defaults when none were ever saved.
func (a *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	settings, err := a.Settings.Get(r.Context(), user.ID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load settings")
		return
	}
	a.json(w, http.StatusOK, settings)
}

// SaveSettings validates and writes through the caller's defaults.
func (a *App) SaveSettings(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var settings domain.GenerationSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	settings.Poses = domain.NormalizePoses(settings.Poses)
	if err := settings.Validate(); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to validate settings")
		return
	}
	if err := a.Settings.Save(r.Context(), user.ID, settings); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to save settings")
		return
	}
	a.json(w, http.StatusOK, settings)
}
