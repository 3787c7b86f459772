package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNormalizePoses(t *testing.T) {
	tests := []struct {
		name  string
		poses []Pose
		want  []Pose
	}{
		{
			name:  "drops duplicates keeping first",
			poses: []Pose{PoseFace, PoseFace, PoseThreeQuarter, PoseFace},
			want:  []Pose{PoseFace, PoseThreeQuarter},
		},
		{
			name:  "caps at four",
			poses: []Pose{PoseFace, PoseThreeQuarter, PoseProfile, PoseFullBody, PoseBack, PoseSeated},
			want:  []Pose{PoseFace, PoseThreeQuarter, PoseProfile, PoseFullBody},
		},
		{
			name:  "empty stays empty",
			poses: nil,
			want:  []Pose{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePoses(tc.poses); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("NormalizePoses() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := DefaultSettings()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default settings should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*GenerationSettings)
	}{
		{"bad garment type", func(s *GenerationSettings) { s.GarmentType = "hat" }},
		{"bad gender", func(s *GenerationSettings) { s.Gender = "robot" }},
		{"bad reference type", func(s *GenerationSettings) { s.ModelReferenceType = "voice" }},
		{"bad flow mode", func(s *GenerationSettings) { s.FlowMode = "turbo" }},
		{"no poses", func(s *GenerationSettings) { s.Poses = nil }},
		{"empty custom environment", func(s *GenerationSettings) { s.Environment = CustomEnvironment("   ") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error %v should wrap ErrValidation", err)
			}
		})
	}
}

func TestEnvironmentJSONUnion(t *testing.T) {
	preset := PresetEnvironment(EnvironmentBeach)
	data, err := json.Marshal(preset)
	if err != nil {
		t.Fatalf("marshal preset: %v", err)
	}
	var decoded Environment
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal preset: %v", err)
	}
	if decoded.Kind() != EnvironmentKindPreset || decoded.Preset() != EnvironmentBeach {
		t.Fatalf("preset lost in round trip: %+v", decoded)
	}

	custom := CustomEnvironment("rooftop at golden hour")
	data, err = json.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom: %v", err)
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal custom: %v", err)
	}
	if decoded.Kind() != EnvironmentKindCustom || decoded.Describe() != "rooftop at golden hour" {
		t.Fatalf("custom lost in round trip: %+v", decoded)
	}

	if err := json.Unmarshal([]byte(`{"kind":"galaxy"}`), &decoded); err == nil {
		t.Fatal("unknown kind should be rejected")
	}
}

func TestWithPoseNarrowsToSinglePose(t *testing.T) {
	s := DefaultSettings()
	s.Poses = []Pose{PoseFace, PoseThreeQuarter}
	narrowed := s.WithPose(PoseThreeQuarter)
	if len(narrowed.Poses) != 1 || narrowed.Poses[0] != PoseThreeQuarter {
		t.Fatalf("WithPose poses = %v", narrowed.Poses)
	}
	if len(s.Poses) != 2 {
		t.Fatalf("original settings mutated: %v", s.Poses)
	}
	if narrowed.Gender != s.Gender || narrowed.GarmentType != s.GarmentType {
		t.Fatal("WithPose should keep all other fields")
	}
}
