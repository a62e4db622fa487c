package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCollection_NewMetadataRecord(t *testing.T) {
	rec := DefaultCollection().NewMetadataRecord(1, FolderImageURI("bafyimages", "1.png"))

	if rec.Name != "MetaCore #1" {
		t.Errorf("expected name 'MetaCore #1', got %q", rec.Name)
	}
	if rec.Image != "ipfs://bafyimages/1.png" {
		t.Errorf("unexpected image uri %q", rec.Image)
	}
	if rec.Description != DefaultDescription {
		t.Errorf("unexpected description %q", rec.Description)
	}
	if len(rec.Attributes) != 1 || rec.Attributes[0].TraitType != "ID" {
		t.Fatalf("unexpected attributes %+v", rec.Attributes)
	}
}

func TestMetadataRecord_Marshal(t *testing.T) {
	rec := DefaultCollection().NewMetadataRecord(42, ImageURI("bafyimage"))

	data, err := rec.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["name"] != "MetaCore #42" {
		t.Errorf("unexpected name %v", decoded["name"])
	}
	if decoded["image"] != "ipfs://bafyimage" {
		t.Errorf("unexpected image %v", decoded["image"])
	}
	attrs := decoded["attributes"].([]any)
	first := attrs[0].(map[string]any)
	if first["value"].(float64) != 42 {
		t.Errorf("expected numeric ID attribute 42, got %v", first["value"])
	}

	again, _ := rec.Marshal()
	if string(again) != string(data) {
		t.Error("marshal output is not deterministic")
	}
}

func TestParseSuffix(t *testing.T) {
	for _, s := range SupportedSuffixes {
		got, err := ParseSuffix(string(s))
		if err != nil || got != s {
			t.Errorf("ParseSuffix(%q) = %q, %v", s, got, err)
		}
	}

	got, err := ParseSuffix(".txt")
	if err == nil {
		t.Error("expected error for unsupported suffix")
	}
	if got != DefaultSuffix {
		t.Errorf("expected fallback to default, got %q", got)
	}
}

func TestMetadataFilename(t *testing.T) {
	tests := []struct {
		name       string
		withSuffix bool
		dual       bool
		configured Suffix
		want       string
	}{
		{"no suffix", false, false, SuffixYAML, "7"},
		{"no suffix dual", false, true, SuffixYAML, "7"},
		{"single configured yaml", true, false, SuffixYAML, "7.yaml"},
		{"single configured yml", true, false, SuffixYML, "7.yml"},
		{"dual ignores configured", true, true, SuffixYML, "7.json"},
		{"dual with empty configured", true, true, SuffixNone, "7.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MetadataFilename("7", tt.withSuffix, tt.dual, tt.configured); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	err := Remote("pin file", "1.png", errors.New("connection reset"))
	if !IsRetryable(err) {
		t.Error("remote errors should be retryable")
	}
	if !IsRetryable(Timeout("pin file", "", errors.New("deadline"))) {
		t.Error("timeout errors should be retryable")
	}
	if IsRetryable(IO("write", "x", errors.New("disk full"))) {
		t.Error("io errors should not be retryable")
	}
	if IsRetryable(Validation("parse", "x", ErrInvalidFilename)) {
		t.Error("validation errors should not be retryable")
	}

	wrapped := Validation("parse token id", "cover.png", ErrInvalidFilename)
	if !errors.Is(wrapped, ErrInvalidFilename) || !errors.Is(wrapped, ErrValidation) {
		t.Errorf("expected both kind and cause to match: %v", wrapped)
	}
	if wrapped.Error() != `validation error: parse token id "cover.png": invalid filename` {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}
