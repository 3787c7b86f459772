package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GarmentType enumerates the garment categories the generator understands.
type GarmentType string

const (
	GarmentTypeAuto   GarmentType = "auto"
	GarmentTypeTop    GarmentType = "top"
	GarmentTypeBottom GarmentType = "bottom"
	GarmentTypeFull   GarmentType = "full"
)

// Gender selects the model rendered wearing the garment.
type Gender string

const (
	GenderWoman Gender = "woman"
	GenderMan   Gender = "man"
)

// ModelReferenceType says whether the model look is driven by a reference
// image or a textual description.
type ModelReferenceType string

const (
	ModelReferenceImage       ModelReferenceType = "image"
	ModelReferenceDescription ModelReferenceType = "description"
)

// FlowMode enumerates the supported generation pipelines.
type FlowMode string

const (
	FlowModeClassic    FlowMode = "classic"
	FlowModeSequential FlowMode = "sequential"
	FlowModeBoth       FlowMode = "both"
)

// Pose is a requested viewing angle/stance for a generated image.
type Pose string

const (
	PoseFace         Pose = "face"
	PoseThreeQuarter Pose = "three_quarter"
	PoseProfile      Pose = "profile"
	PoseFullBody     Pose = "full_body"
	PoseBack         Pose = "back"
	PoseSeated       Pose = "seated"
)

// MaxPoses caps how many renders a single request may fan out to.
const MaxPoses = 4

// EnvironmentPreset enumerates the curated backdrop scenes.
type EnvironmentPreset string

const (
	EnvironmentStudio EnvironmentPreset = "studio"
	EnvironmentStreet EnvironmentPreset = "street"
	EnvironmentBeach  EnvironmentPreset = "beach"
	EnvironmentGarden EnvironmentPreset = "garden"
	EnvironmentLoft   EnvironmentPreset = "loft"
	EnvironmentNight  EnvironmentPreset = "night_city"
)

// EnvironmentKind discriminates the Environment union.
type EnvironmentKind string

const (
	EnvironmentKindPreset EnvironmentKind = "preset"
	EnvironmentKindCustom EnvironmentKind = "custom"
)

// Environment is a tagged union: either one of the curated presets or a
// free-form scene description. The two cases are kept distinct so callers
// cannot smuggle arbitrary strings through the preset path.
type Environment struct {
	kind   EnvironmentKind
	preset EnvironmentPreset
	custom string
}

// PresetEnvironment builds the preset variant.
func PresetEnvironment(p EnvironmentPreset) Environment {
	return Environment{kind: EnvironmentKindPreset, preset: p}
}

// CustomEnvironment builds the free-form variant.
func CustomEnvironment(description string) Environment {
	return Environment{kind: EnvironmentKindCustom, custom: strings.TrimSpace(description)}
}

// Kind reports which variant the environment holds.
func (e Environment) Kind() EnvironmentKind {
	if e.kind == "" {
		return EnvironmentKindPreset
	}
	return e.kind
}

// Preset returns the preset value; meaningful only for the preset variant.
func (e Environment) Preset() EnvironmentPreset {
	if e.Kind() != EnvironmentKindPreset {
		return ""
	}
	if e.preset == "" {
		return EnvironmentStudio
	}
	return e.preset
}

// Describe renders the environment as prompt-ready text.
func (e Environment) Describe() string {
	if e.Kind() == EnvironmentKindCustom {
		return e.custom
	}
	return strings.ReplaceAll(string(e.Preset()), "_", " ")
}

type environmentJSON struct {
	Kind   EnvironmentKind   `json:"kind"`
	Preset EnvironmentPreset `json:"preset,omitempty"`
	Custom string            `json:"custom,omitempty"`
}

// MarshalJSON encodes the union with an explicit discriminator.
func (e Environment) MarshalJSON() ([]byte, error) {
	out := environmentJSON{Kind: e.Kind()}
	switch out.Kind {
	case EnvironmentKindCustom:
		out.Custom = e.custom
	default:
		out.Preset = e.Preset()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the union, rejecting unknown discriminators.
func (e *Environment) UnmarshalJSON(data []byte) error {
	var in environmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case EnvironmentKindCustom:
		*e = CustomEnvironment(in.Custom)
	case EnvironmentKindPreset, "":
		*e = PresetEnvironment(in.Preset)
	default:
		return fmt.Errorf("environment: unknown kind %q", in.Kind)
	}
	return nil
}

// GenerationSettings is the full parameter set for one generation request.
type GenerationSettings struct {
	GarmentType        GarmentType        `json:"garment_type"`
	Gender             Gender             `json:"gender"`
	Environment        Environment        `json:"environment"`
	Poses              []Pose             `json:"poses"`
	ExtraInstructions  string             `json:"extra_instructions,omitempty"`
	ModelReferenceType ModelReferenceType `json:"model_reference_type"`
	FlowMode           FlowMode           `json:"flow_mode"`
}

// DefaultSettings seeds new requests when a user has no stored defaults.
func DefaultSettings() GenerationSettings {
	return GenerationSettings{
		GarmentType:        GarmentTypeAuto,
		Gender:             GenderWoman,
		Environment:        PresetEnvironment(EnvironmentStudio),
		Poses:              []Pose{PoseFace, PoseFullBody},
		ModelReferenceType: ModelReferenceDescription,
		FlowMode:           FlowModeClassic,
	}
}

// WithPose returns a copy of the settings narrowed to a single pose. Each
// fan-out task receives one of these.
func (s GenerationSettings) WithPose(p Pose) GenerationSettings {
	out := s
	out.Poses = []Pose{p}
	return out
}

// NormalizePoses drops duplicates (keeping first occurrence) and truncates to
// MaxPoses entries.
func NormalizePoses(poses []Pose) []Pose {
	seen := make(map[Pose]struct{}, len(poses))
	out := make([]Pose, 0, MaxPoses)
	for _, p := range poses {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) == MaxPoses {
			break
		}
	}
	return out
}

// Validate checks enum membership and the pose count bounds.
func (s GenerationSettings) Validate() error {
	switch s.GarmentType {
	case GarmentTypeAuto, GarmentTypeTop, GarmentTypeBottom, GarmentTypeFull:
	default:
		return fmt.Errorf("%w: garment type %q", ErrValidation, s.GarmentType)
	}
	switch s.Gender {
	case GenderWoman, GenderMan:
	default:
		return fmt.Errorf("%w: gender %q", ErrValidation, s.Gender)
	}
	switch s.ModelReferenceType {
	case ModelReferenceImage, ModelReferenceDescription:
	default:
		return fmt.Errorf("%w: model reference type %q", ErrValidation, s.ModelReferenceType)
	}
	switch s.FlowMode {
	case FlowModeClassic, FlowModeSequential, FlowModeBoth:
	default:
		return fmt.Errorf("%w: flow mode %q", ErrValidation, s.FlowMode)
	}
	if s.Environment.Kind() == EnvironmentKindCustom && s.Environment.Describe() == "" {
		return fmt.Errorf("%w: custom environment description is empty", ErrValidation)
	}
	if len(s.Poses) == 0 {
		return fmt.Errorf("%w: at least one pose is required", ErrValidation)
	}
	if len(s.Poses) > MaxPoses {
		return fmt.Errorf("%w: at most %d poses are allowed", ErrValidation, MaxPoses)
	}
	return nil
}
