package image

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"onmodel/internal/domain"
)

// BuildInstruction turns a garment photo and single-pose settings into the
// instruction text sent to the generator. The same text is recorded on the
// generated image for traceability.
func BuildInstruction(req GenerateRequest) string {
	s := req.Settings
	titler := cases.Title(matchLanguage(req.Locale))

	parts := []string{}
	garment := strings.TrimSpace(req.Garment.Name)
	if garment == "" {
		garment = "the garment"
	}
	switch s.GarmentType {
	case domain.GarmentTypeAuto, "":
		parts = append(parts, fmt.Sprintf("Render %q worn by a %s model.", garment, s.Gender))
	default:
		parts = append(parts, fmt.Sprintf("Render %q (%s) worn by a %s model.", garment, s.GarmentType, s.Gender))
	}
	if len(s.Poses) > 0 {
		pose := strings.ReplaceAll(string(s.Poses[0]), "_", " ")
		parts = append(parts, fmt.Sprintf("%s pose.", titler.String(pose)))
	}
	if env := strings.TrimSpace(s.Environment.Describe()); env != "" {
		parts = append(parts, "Setting: "+env+".")
	}
	if s.ModelReferenceType == domain.ModelReferenceImage {
		parts = append(parts, "Match the look of the supplied model reference image.")
	}
	if extra := strings.TrimSpace(s.ExtraInstructions); extra != "" {
		parts = append(parts, "Additional instructions: "+extra+".")
	}
	parts = append(parts, "Keep the original garment shape, fabric and colors intact, natural proportions, no artifacts.")
	return strings.Join(parts, " ")
}

func matchLanguage(locale string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.Und
	}
	return tag
}
