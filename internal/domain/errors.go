package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

// GenerationError reports a single pose render failure. It is recoverable:
// the orchestrator logs it and excludes the pose from the listing, but never
// raises it to the caller.
type GenerationError struct {
	Pose  Pose
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for pose %s: %v", e.Pose, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }
