// Package config loads the dashboard configuration.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// SlotCount is the number of line-chart toggles per metal.
const SlotCount = 6

//go:embed dashboard.default.yaml
var defaultYAML []byte

// Slot binds one UI toggle to a category.
type Slot struct {
	Label    string `yaml:"label"`
	Category string `yaml:"category"`
	Spot     bool   `yaml:"spot"`
}

// Config holds all dashboard configuration.
type Config struct {
	Server struct {
		Port             string   `yaml:"port"`
		CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	} `yaml:"server"`
	Vendors          []string          `yaml:"vendors"`
	DefaultVendor    string            `yaml:"default_vendor"`
	DefaultMetal     string            `yaml:"default_metal"`
	Palette          []string          `yaml:"palette"`
	Metals           map[string][]Slot `yaml:"metals"`
	InitiallyChecked []int             `yaml:"initially_checked"`
	History          map[string]string `yaml:"history"`
	Average          struct {
		ExcludedCategories []string `yaml:"excluded_categories"`
	} `yaml:"average"`
	Cache struct {
		Namespace   string `yaml:"namespace"`
		RefreshHour int    `yaml:"refresh_hour"`
		Location    string `yaml:"location"`
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"cache"`
}

// Load reads the embedded defaults, overlays the YAML file at path (if it
// exists), then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultYAML, cfg); err != nil {
		return nil, fmt.Errorf("parse default config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CACHE_REFRESH_CRON"); v != "" {
		cfg.Cache.RefreshCron = v
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.Server.CORSAllowOrigins = splitList(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the metal variants and schedule are usable.
func (c *Config) Validate() error {
	if len(c.Palette) < SlotCount {
		return fmt.Errorf("palette needs %d colors, got %d", SlotCount, len(c.Palette))
	}
	for _, metal := range []string{"gold", "silver"} {
		slots, ok := c.Metals[metal]
		if !ok {
			return fmt.Errorf("metals.%s is required", metal)
		}
		if len(slots) != SlotCount {
			return fmt.Errorf("metals.%s needs %d slots, got %d", metal, SlotCount, len(slots))
		}
		for i, s := range slots {
			if strings.TrimSpace(s.Category) == "" {
				return fmt.Errorf("metals.%s[%d].category is required", metal, i)
			}
		}
	}
	if _, ok := c.Metals[c.DefaultMetal]; !ok {
		return fmt.Errorf("default_metal %q is not a configured metal", c.DefaultMetal)
	}
	if len(c.Vendors) == 0 {
		return fmt.Errorf("vendors must not be empty")
	}
	if c.DefaultVendor == "" {
		c.DefaultVendor = c.Vendors[0]
	}
	for _, n := range c.InitiallyChecked {
		if n < 1 || n > SlotCount {
			return fmt.Errorf("initially_checked: slot %d out of range", n)
		}
	}
	if c.Cache.RefreshHour < 0 || c.Cache.RefreshHour > 23 {
		return fmt.Errorf("cache.refresh_hour must be 0-23, got %d", c.Cache.RefreshHour)
	}
	if _, err := c.RefreshLocation(); err != nil {
		return err
	}
	return nil
}

// RefreshLocation resolves cache.location; empty means UTC.
func (c *Config) RefreshLocation() (*time.Location, error) {
	if c.Cache.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Cache.Location)
	if err != nil {
		return nil, fmt.Errorf("cache.location: %w", err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
