package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `
server:
  port: 9000
data:
  hic_path: "/data/maps/gm12878.hic"
  genes_path: "/data/genes/hg38.tsv"
cache:
  image_size_mb: 64
render:
  viewport_width: 1024
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Data.HicPath != "/data/maps/gm12878.hic" {
		t.Errorf("unexpected hic_path: %s", cfg.Data.HicPath)
	}
	if cfg.Data.GenesPath != "/data/genes/hg38.tsv" {
		t.Errorf("unexpected genes_path: %s", cfg.Data.GenesPath)
	}
	if cfg.Cache.ImageSizeMB != 64 {
		t.Errorf("expected image cache 64MB, got %d", cfg.Cache.ImageSizeMB)
	}
	if cfg.Render.ViewportWidth != 1024 {
		t.Errorf("expected viewport width 1024, got %d", cfg.Render.ViewportWidth)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	content := `
data:
  hic_path: "/data/maps/test.hic"
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Data.GenomeID != "hg38" {
		t.Errorf("expected default genome hg38, got %q", cfg.Data.GenomeID)
	}
	if cfg.Cache.ImageSizeMB != 256 {
		t.Errorf("expected default image cache 256, got %d", cfg.Cache.ImageSizeMB)
	}
	if cfg.Render.ViewportWidth != 800 || cfg.Render.ViewportHeight != 800 {
		t.Errorf("expected default 800x800 viewport, got %dx%d",
			cfg.Render.ViewportWidth, cfg.Render.ViewportHeight)
	}
	if cfg.Render.DefaultColormap != "reds" {
		t.Errorf("expected default colormap reds, got %q", cfg.Render.DefaultColormap)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
