package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metacore/nftup/internal/core/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range DefaultConfig().envBindings() {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Pinner != PinnerPinata {
		t.Errorf("expected default Pinner='pinata', got %q", cfg.Pinner)
	}

	if cfg.MetadataFileSuffix != "" {
		t.Errorf("expected default MetadataFileSuffix='', got %q", cfg.MetadataFileSuffix)
	}

	if cfg.CollectionName != "MetaCore" {
		t.Errorf("expected default CollectionName='MetaCore', got %q", cfg.CollectionName)
	}

	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.InitialDelayMS != 5000 || cfg.Retry.TimeoutSeconds != 300 {
		t.Errorf("unexpected retry defaults: %+v", cfg.Retry)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/nftup.yaml")

	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg.OutputDir != "output" {
		t.Errorf("expected default OutputDir='output', got %q", cfg.OutputDir)
	}
}

func TestSave_And_Load(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nftup.yaml")

	cfg := DefaultConfig()
	cfg.Pinner = PinnerCar
	cfg.CollectionName = "Genesis"
	cfg.MetadataFileSuffix = ".json"
	cfg.Retry.MaxAttempts = 5

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Pinner != PinnerCar {
		t.Errorf("expected Pinner='car', got %q", loaded.Pinner)
	}
	if loaded.CollectionName != "Genesis" {
		t.Errorf("expected CollectionName='Genesis', got %q", loaded.CollectionName)
	}
	if loaded.MetadataFileSuffix != ".json" {
		t.Errorf("expected MetadataFileSuffix='.json', got %q", loaded.MetadataFileSuffix)
	}
	if loaded.Retry.MaxAttempts != 5 {
		t.Errorf("expected MaxAttempts=5, got %d", loaded.Retry.MaxAttempts)
	}
}

func TestLoad_BlankValuesFallBack(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nftup.yaml")
	content := "pinner: \"\"\ncollection_name: \"\"\nretry:\n  max_attempts: 0\n  timeout_seconds: 10\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Pinner != PinnerPinata {
		t.Errorf("expected Pinner fallback 'pinata', got %q", cfg.Pinner)
	}
	if cfg.CollectionName != "MetaCore" {
		t.Errorf("expected CollectionName fallback, got %q", cfg.CollectionName)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts fallback 3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.TimeoutSeconds != 10 {
		t.Errorf("expected TimeoutSeconds=10, got %d", cfg.Retry.TimeoutSeconds)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nftup.yaml")
	if err := os.WriteFile(configPath, []byte("pinner: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "PINATA_API_KEY=file-key\nPINATA_SECRET_KEY=file-secret\nMETADATA_FILE_SUFFIX=.yaml\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PINATA_API_KEY", "env-key")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(envFile); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Pinata.APIKey != "env-key" {
		t.Errorf("expected process env to win, got %q", cfg.Pinata.APIKey)
	}
	if cfg.Pinata.SecretKey != "file-secret" {
		t.Errorf("expected secret from .env file, got %q", cfg.Pinata.SecretKey)
	}
	if cfg.MetadataFileSuffix != ".yaml" {
		t.Errorf("expected suffix from .env file, got %q", cfg.MetadataFileSuffix)
	}
	if !cfg.HasPinataCredentials() {
		t.Error("expected credentials to be complete")
	}
}

func TestApplyEnv_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
	if cfg.HasPinataCredentials() {
		t.Error("expected no credentials")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		raw      string
		want     domain.Suffix
		warnings int
	}{
		{"", domain.SuffixNone, 0},
		{".json", domain.SuffixJSON, 0},
		{".yml", domain.SuffixYML, 0},
		{".txt", domain.SuffixNone, 1},
		{"json", domain.SuffixNone, 1},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.MetadataFileSuffix = tt.raw

		got, warnings := cfg.Resolve()
		if got != tt.want {
			t.Errorf("Resolve(%q): expected %q, got %q", tt.raw, tt.want, got)
		}
		if len(warnings) != tt.warnings {
			t.Errorf("Resolve(%q): expected %d warnings, got %v", tt.raw, tt.warnings, warnings)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}

	cfg.Pinner = "s3"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown pinner")
	}
}

func TestMasked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pinata.APIKey = "abcdefghijkl"
	cfg.Pinata.SecretKey = "short"

	masked := cfg.Masked()
	if masked.Pinata.APIKey != "****ijkl" {
		t.Errorf("expected '****ijkl', got %q", masked.Pinata.APIKey)
	}
	if masked.Pinata.SecretKey != "****" {
		t.Errorf("expected '****', got %q", masked.Pinata.SecretKey)
	}
	if cfg.Pinata.APIKey != "abcdefghijkl" {
		t.Error("Masked must not modify the original")
	}

	data, err := masked.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "abcdefghijkl") {
		t.Error("marshalled config leaked a secret")
	}
}
