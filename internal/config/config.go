// Package config loads the run configuration: the pause flag, the catalog
// window defaults, and the ordered theater list.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/drewfead/pdx-indie-showtimes/internal"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoTheaters  = errors.New("config: no theaters defined")
	ErrTheaterID   = errors.New("config: theater is missing an id")
	ErrTheaterURL  = errors.New("config: theater is missing a url")
	ErrDuplicateID = errors.New("config: duplicate theater id")
)

const (
	defaultNumDays  = 7
	defaultTimezone = "America/Los_Angeles"
)

// Config is the parsed run configuration.
type Config struct {
	// Enabled pauses the whole run when false (overridable with --force).
	Enabled *bool `yaml:"enabled"`
	// NumDays is the catalog window length; defaults to 7.
	NumDays int `yaml:"num_days"`
	// Timezone is the IANA zone the start date is computed in; all
	// configured theaters share one region.
	Timezone string `yaml:"timezone"`
	// Theaters is the ordered source list; id is the aggregation key.
	Theaters []internal.Theater `yaml:"theaters"`
}

// IsEnabled reports the pause flag; an absent flag means enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Location resolves the configured timezone, falling back to UTC if the
// zone database does not know it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates raw YAML configuration.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.NumDays <= 0 {
		cfg.NumDays = defaultNumDays
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if err := validateTheaters(cfg.Theaters); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateTheaters(theaters []internal.Theater) error {
	if len(theaters) == 0 {
		return ErrNoTheaters
	}
	seen := make(map[string]struct{}, len(theaters))
	for _, th := range theaters {
		if th.ID == "" {
			return fmt.Errorf("%w: %q", ErrTheaterID, th.Name)
		}
		if th.URL == "" {
			return fmt.Errorf("%w: %q", ErrTheaterURL, th.ID)
		}
		if _, ok := seen[th.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, th.ID)
		}
		seen[th.ID] = struct{}{}
	}
	return nil
}
