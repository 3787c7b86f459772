package domain

import "time"

// SourceImage is the garment photo a listing was generated from. Immutable
// once attached.
type SourceImage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GeneratedImage is one successfully rendered on-model image.
type GeneratedImage struct {
	ID         string `json:"id"`
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
	Pose       Pose   `json:"pose"`
	Prompt     string `json:"prompt"`
}

// Listing is the persisted unit of work: one garment photo, one settings
// snapshot, and the images generated for it. GeneratedImages grows in
// completion order as pose tasks finish; CoverImageKey is fixed to the
// storage key of the first image ever appended.
type Listing struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	SourceImage     SourceImage        `json:"source_image"`
	Settings        GenerationSettings `json:"settings"`
	GeneratedImages []GeneratedImage   `json:"generated_images"`
	CoverImageKey   string             `json:"cover_image_key,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Clone returns a deep copy so stores can hand out records without aliasing
// their internal state.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	out := *l
	out.GeneratedImages = append([]GeneratedImage(nil), l.GeneratedImages...)
	out.Settings.Poses = append([]Pose(nil), l.Settings.Poses...)
	return &out
}
