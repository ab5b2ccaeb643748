// Package config loads gompage settings from an optional YAML file and
// GOMPAGE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gompdf/gompage/internal/pagination"
	"gopkg.in/yaml.v3"
)

// Config is the top-level gompage configuration.
type Config struct {
	Pagination PaginationConfig `yaml:"pagination"`
	Layout     LayoutConfig     `yaml:"layout"`
	PDF        PDFConfig        `yaml:"pdf"`
	Verbose    bool             `yaml:"verbose"`
}

// PaginationConfig controls measurement and marker reconciliation.
type PaginationConfig struct {
	PageHeight      float64       `yaml:"page_height"` // px; wins over page_size
	PageSize        string        `yaml:"page_size"`   // A4 | Letter | Legal | A3 | A5
	AutoInsert      *bool         `yaml:"auto_insert"`
	Debounce        time.Duration `yaml:"debounce"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	ChangeDetection string        `yaml:"change_detection"` // plan | count
}

// LayoutConfig controls how blocks are measured.
type LayoutConfig struct {
	ContentWidth float64  `yaml:"content_width"`
	BaseURL      string   `yaml:"base_url"`
	SearchPaths  []string `yaml:"search_paths"`
}

// PDFConfig controls the optional PDF export.
type PDFConfig struct {
	Margin float64 `yaml:"margin"`
	Title  string  `yaml:"title"`
	Author string  `yaml:"author"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file, then applies environment
// overrides and defaults. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	p := &c.Pagination
	p.PageHeight = envFloat("GOMPAGE_PAGE_HEIGHT", p.PageHeight)
	p.PageSize = envOr("GOMPAGE_PAGE_SIZE", p.PageSize)
	if v, ok := os.LookupEnv("GOMPAGE_AUTO_INSERT"); ok && v != "" {
		b := envBool("GOMPAGE_AUTO_INSERT", true)
		p.AutoInsert = &b
	}
	p.Debounce = envDuration("GOMPAGE_DEBOUNCE", p.Debounce)
	p.InitialDelay = envDuration("GOMPAGE_INITIAL_DELAY", p.InitialDelay)
	p.ChangeDetection = envOr("GOMPAGE_CHANGE_DETECTION", p.ChangeDetection)

	c.Layout.ContentWidth = envFloat("GOMPAGE_CONTENT_WIDTH", c.Layout.ContentWidth)
	c.Layout.BaseURL = envOr("GOMPAGE_BASE_URL", c.Layout.BaseURL)
	c.PDF.Margin = envFloat("GOMPAGE_PDF_MARGIN", c.PDF.Margin)
	c.Verbose = envBool("GOMPAGE_VERBOSE", c.Verbose)
}

func (c *Config) applyDefaults() {
	p := &c.Pagination
	if p.PageHeight <= 0 {
		p.PageHeight = pagination.DefaultPageHeight
		if size, err := pagination.LookupPageSize(p.PageSize); err == nil {
			p.PageHeight = size.HeightPx()
		}
	}
	if p.AutoInsert == nil {
		on := true
		p.AutoInsert = &on
	}
	if p.Debounce <= 0 {
		p.Debounce = pagination.DefaultDebounce
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = pagination.DefaultInitialDelay
	}
	if p.ChangeDetection == "" {
		p.ChangeDetection = string(pagination.DetectPlan)
	}
	if c.Layout.ContentWidth <= 0 {
		c.Layout.ContentWidth = 794
	}
	if c.PDF.Margin <= 0 {
		c.PDF.Margin = 48
	}
}

// AutoInsert reports whether markers are written automatically.
func (c *Config) AutoInsert() bool {
	return c.Pagination.AutoInsert == nil || *c.Pagination.AutoInsert
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := pagination.ParseChangeDetection(c.Pagination.ChangeDetection); err != nil {
		return err
	}
	if c.Pagination.PageSize != "" {
		if _, err := pagination.LookupPageSize(c.Pagination.PageSize); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
