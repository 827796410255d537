package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BrandProfile is the optional YAML file that overrides brand related settings
type BrandProfile struct {
	BrandName          string   `yaml:"brand_name"`
	Platforms          []string `yaml:"platforms"`
	DaysBack           int      `yaml:"days_back"`
	MaxResults         int      `yaml:"max_results"`
	WebMaxResults      int      `yaml:"web_max_results"`
	RelevanceThreshold *float64 `yaml:"relevance_threshold"`
}

// LoadBrandProfile reads a brand profile from path
func LoadBrandProfile(path string) (*BrandProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var profile BrandProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &profile, nil
}

// Apply copies every set field of the profile onto cfg
func (p *BrandProfile) Apply(cfg *Config) {
	if p.BrandName != "" {
		cfg.BrandName = p.BrandName
	}
	if len(p.Platforms) > 0 {
		cfg.Platforms = p.Platforms
	}
	if p.DaysBack > 0 {
		cfg.DaysBack = p.DaysBack
	}
	if p.MaxResults > 0 {
		cfg.MaxResults = p.MaxResults
	}
	if p.WebMaxResults > 0 {
		cfg.WebMaxResults = p.WebMaxResults
	}
	if p.RelevanceThreshold != nil {
		cfg.RelevanceThreshold = *p.RelevanceThreshold
	}
}
