package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"onmodel/internal/domain"
	"onmodel/internal/middleware"
	"onmodel/internal/service"
)

// App is the handler container; it owns the collaborators HTTP endpoints
// need.
type App struct {
	Listings domain.ListingRepository
	Settings domain.SettingsRepository
	Service  *service.ListingService
	Logger   zerolog.Logger
}

// NewApp wires the handler container.
func NewApp(listings domain.ListingRepository, settings domain.SettingsRepository, svc *service.ListingService, logger zerolog.Logger) *App {
	return &App{Listings: listings, Settings: settings, Service: svc, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

func (a *App) currentUser(r *http.Request) *domain.User {
	return middleware.UserFromContext(r.Context())
}
