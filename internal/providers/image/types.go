package image

import (
	"context"

	"onmodel/internal/domain"
)

// GenerateRequest describes one render: a garment photo plus settings
// narrowed to a single pose.
type GenerateRequest struct {
	Garment   domain.SourceImage
	Settings  domain.GenerationSettings
	RequestID string
	Locale    string
}

// Result is a successful render. Prompt records the instruction text that
// produced the image.
type Result struct {
	URL    string
	Prompt string
}

// Generator is the contract implemented by external image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Result, error)
}
