package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Storage struct {
		DefaultProvider string `mapstructure:"default_provider"`
		Bucket          string `mapstructure:"bucket"`
	} `mapstructure:"storage"`
	Transcription struct {
		DefaultProvider string `mapstructure:"default_provider"`
	} `mapstructure:"transcription"`
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "storage:\n  default_provider: gcs\n  bucket: case-media\ntranscription:\n  default_provider: gspeech\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := Load("mediakit", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DefaultProvider != "gcs" {
		t.Errorf("expected gcs, got %q", cfg.Storage.DefaultProvider)
	}
	if cfg.Storage.Bucket != "case-media" {
		t.Errorf("expected case-media, got %q", cfg.Storage.Bucket)
	}
	if cfg.Transcription.DefaultProvider != "gspeech" {
		t.Errorf("expected gspeech, got %q", cfg.Transcription.DefaultProvider)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("storage:\n  bucket: from-yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STORAGE_BUCKET", "from-env")

	var cfg testConfig
	if err := Load("mediakit", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Bucket != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Storage.Bucket)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("STORAGE_DEFAULT_PROVIDER")
	want := "storage.default_provider"
	found := false
	for _, v := range variants {
		if v == want {
			found = true
		}
	}
	if !found {
		t.Errorf("expected variant %q in %v", want, variants)
	}
}

func TestLoadMissingConfigFileIsOptional(t *testing.T) {
	var cfg testConfig
	// No config.yml anywhere near the test working directory; Load should
	// still succeed with env-only configuration.
	if err := Load("mediakit", &cfg); err != nil {
		t.Fatalf("Load without config file failed: %v", err)
	}
}
