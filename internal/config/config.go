// Package config handles configuration loading for the contact-map
// server.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DataConfig contains data source settings. HicPath is the contact-map
// container; when it is empty, ChromSizesPath supplies the genome so the
// locus endpoints still work without contact data.
type DataConfig struct {
	HicPath        string `yaml:"hic_path"`
	GenomeID       string `yaml:"genome_id"`
	ChromSizesPath string `yaml:"chrom_sizes_path"`
	GenesPath      string `yaml:"genes_path"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	ImageSizeMB     int `yaml:"image_size_mb"`
	ImageTTLMinutes int `yaml:"image_ttl_minutes"`
	RecordCacheSize int `yaml:"record_cache_size"`
}

// RenderConfig contains rendering settings.
type RenderConfig struct {
	ViewportWidth   int    `yaml:"viewport_width"`
	ViewportHeight  int    `yaml:"viewport_height"`
	DefaultColormap string `yaml:"default_colormap"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Data: DataConfig{
			GenomeID: "hg38",
		},
		Cache: CacheConfig{
			ImageSizeMB:     256,
			ImageTTLMinutes: 10,
			RecordCacheSize: 1000,
		},
		Render: RenderConfig{
			ViewportWidth:   800,
			ViewportHeight:  800,
			DefaultColormap: "reds",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Data.GenomeID == "" {
		cfg.Data.GenomeID = defaults.Data.GenomeID
	}
	if cfg.Cache.ImageSizeMB == 0 {
		cfg.Cache.ImageSizeMB = defaults.Cache.ImageSizeMB
	}
	if cfg.Cache.ImageTTLMinutes == 0 {
		cfg.Cache.ImageTTLMinutes = defaults.Cache.ImageTTLMinutes
	}
	if cfg.Cache.RecordCacheSize == 0 {
		cfg.Cache.RecordCacheSize = defaults.Cache.RecordCacheSize
	}
	if cfg.Render.ViewportWidth == 0 {
		cfg.Render.ViewportWidth = defaults.Render.ViewportWidth
	}
	if cfg.Render.ViewportHeight == 0 {
		cfg.Render.ViewportHeight = defaults.Render.ViewportHeight
	}
	if cfg.Render.DefaultColormap == "" {
		cfg.Render.DefaultColormap = defaults.Render.DefaultColormap
	}
}
