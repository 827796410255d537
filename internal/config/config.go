package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Brand being tracked
	BrandName string
	Platforms []string

	// API keys and credentials
	ScrapeCreatorsAPIKey string
	ExaAPIKey            string
	OpenRouterAPIKey     string
	OpenRouterModel      string

	// Sentiment analysis
	EnableSentimentAnalysis bool
	EnableVader             bool

	// Fetch defaults
	MaxResults         int
	WebMaxResults      int
	DaysBack           int
	RelevanceThreshold float64
	RefreshTimeout     time.Duration

	// Cache configuration
	CacheBackend     string // "file", "memory", "azure" or "redis"
	CacheDir         string
	CacheFile        string
	CacheMaxAge      time.Duration
	StorageAccount   string
	StorageContainer string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Google Analytics 4
	GA4PropertyID      string
	GA4CredentialsFile string
	GA4CredentialsJSON string

	// Estimation multipliers used when analytics data is unavailable
	BrandedSearchMultiplier float64
	DirectTrafficMultiplier float64
	BrandedOrganicShare     float64

	// Schedule configuration
	RefreshSchedule string // cron expression with seconds, empty disables
	TimeZone        string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		BrandName: getEnv("BRAND_NAME", "YourBrand"),
		Platforms: getSliceEnv("PLATFORMS", []string{"tiktok", "youtube", "reddit", "web"}),

		ScrapeCreatorsAPIKey: getEnv("SCRAPE_CREATORS_API_KEY", ""),
		ExaAPIKey:            getEnv("EXA_API_KEY", ""),
		OpenRouterAPIKey:     getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:      getEnv("OPENROUTER_MODEL", "google/gemini-2.0-flash-exp"),

		EnableSentimentAnalysis: getBoolEnv("ENABLE_SENTIMENT_ANALYSIS", true),
		EnableVader:             getBoolEnv("ENABLE_VADER", false),

		MaxResults:         getIntEnv("MAX_RESULTS", 100),
		WebMaxResults:      getIntEnv("WEB_MAX_RESULTS", 50),
		DaysBack:           getIntEnv("DAYS_BACK", 7),
		RelevanceThreshold: getFloatEnv("RELEVANCE_THRESHOLD", 0.3),
		RefreshTimeout:     getDurationEnv("REFRESH_TIMEOUT", 15*time.Minute),

		CacheBackend:     strings.ToLower(getEnv("CACHE_BACKEND", "file")),
		CacheDir:         getEnv("CACHE_DIR", "data_cache"),
		CacheFile:        getEnv("CACHE_FILE", "mentions_cache.json"),
		CacheMaxAge:      getDurationEnv("CACHE_MAX_AGE", 24*time.Hour),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "mentions"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),

		GA4PropertyID:      getEnv("GA4_PROPERTY_ID", ""),
		GA4CredentialsFile: getEnv("GA4_CREDENTIALS_FILE", ""),
		GA4CredentialsJSON: getEnv("GA4_CREDENTIALS_JSON", ""),

		BrandedSearchMultiplier: getFloatEnv("BRANDED_SEARCH_MULTIPLIER", 15),
		DirectTrafficMultiplier: getFloatEnv("DIRECT_TRAFFIC_MULTIPLIER", 8),
		BrandedOrganicShare:     getFloatEnv("BRANDED_ORGANIC_SHARE", 0.3),

		RefreshSchedule: getEnv("REFRESH_SCHEDULE", ""),
		TimeZone:        getEnv("TIMEZONE", "UTC"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if path := getEnv("BRAND_CONFIG_FILE", ""); path != "" {
		profile, err := LoadBrandProfile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load brand profile: %w", err)
		}
		profile.Apply(cfg)
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BrandName) == "" {
		return fmt.Errorf("BRAND_NAME must not be empty")
	}

	switch c.CacheBackend {
	case "file", "memory":
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when CACHE_BACKEND is 'azure'")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is 'redis'")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of 'file', 'memory', 'azure' or 'redis'")
	}

	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("RELEVANCE_THRESHOLD must be between 0 and 1")
	}

	if c.BrandedSearchMultiplier <= 0 || c.DirectTrafficMultiplier <= 0 || c.BrandedOrganicShare <= 0 {
		return fmt.Errorf("estimation multipliers must be positive")
	}

	if c.MaxResults <= 0 || c.WebMaxResults <= 0 {
		return fmt.Errorf("MAX_RESULTS and WEB_MAX_RESULTS must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// NotificationsEnabled reports whether at least one report channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// GA4Enabled reports whether the analytics collaborator can be built
func (c *Config) GA4Enabled() bool {
	return c.GA4PropertyID != ""
}

// Credentials returns the environment-level provider keys
func (c *Config) Credentials() Credentials {
	return Credentials{
		ScrapeCreatorsKey: c.ScrapeCreatorsAPIKey,
		ExaKey:            c.ExaAPIKey,
		OpenRouterKey:     c.OpenRouterAPIKey,
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
