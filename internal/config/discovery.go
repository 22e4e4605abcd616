package config

import (
	"strings"
	"time"
)

// DiscoveryConfig carries the global defaults used when a request has no page
// slug, or when the page configuration leaves a value unset.
type DiscoveryConfig struct {
	APIKey             string
	OrgIDs             []string
	TTLFull            time.Duration
	TTLAvailability    time.Duration
	OrgConcurrency     int // organizations and programs in flight
	SessionConcurrency int // sessions and segments in flight
}

// LoadDiscoveryConfig reads the DISCOVERY_* variables.
func LoadDiscoveryConfig() DiscoveryConfig {
	v := newEnv()
	v.SetDefault("discovery_ttl_full", "15m")
	v.SetDefault("discovery_ttl_availability", "1m")
	v.SetDefault("discovery_org_concurrency", 3)
	v.SetDefault("discovery_session_concurrency", 5)

	cfg := DiscoveryConfig{
		APIKey:             strings.TrimSpace(v.GetString("discovery_api_key")),
		OrgIDs:             parseList(v.GetString("discovery_org_ids")),
		TTLFull:            parseDur(v.GetString("discovery_ttl_full"), 15*time.Minute),
		TTLAvailability:    parseDur(v.GetString("discovery_ttl_availability"), time.Minute),
		OrgConcurrency:     v.GetInt("discovery_org_concurrency"),
		SessionConcurrency: v.GetInt("discovery_session_concurrency"),
	}
	if cfg.OrgConcurrency < 1 {
		cfg.OrgConcurrency = 3
	}
	if cfg.SessionConcurrency < 1 {
		cfg.SessionConcurrency = 5
	}
	return cfg
}

// CatalogConfig configures the HTTP client for the upstream catalog API.
type CatalogConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        float64 // sustained requests per second across all fan-out lanes
	Burst      int
	MaxRetries uint64
	PageSize   int
}

// LoadCatalogConfig reads the CATALOG_* variables.
func LoadCatalogConfig() CatalogConfig {
	v := newEnv()
	v.SetDefault("catalog_base_url", "https://public.api.bondsports.co")
	v.SetDefault("catalog_timeout", "15s")
	v.SetDefault("catalog_rps", 10.0)
	v.SetDefault("catalog_burst", 10)
	v.SetDefault("catalog_max_retries", 3)
	v.SetDefault("catalog_page_size", 100)

	cfg := CatalogConfig{
		BaseURL:    strings.TrimRight(strings.TrimSpace(v.GetString("catalog_base_url")), "/"),
		Timeout:    parseDur(v.GetString("catalog_timeout"), 15*time.Second),
		RPS:        v.GetFloat64("catalog_rps"),
		Burst:      v.GetInt("catalog_burst"),
		MaxRetries: v.GetUint64("catalog_max_retries"),
		PageSize:   v.GetInt("catalog_page_size"),
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 100
	}
	return cfg
}

// WarmerConfig configures periodic cache warming.  An empty Schedule disables
// the warmer; DISCOVERY_WARM_CRON=off produces one.
type WarmerConfig struct {
	Schedule string
	Timeout  time.Duration
}

// LoadWarmerConfig reads DISCOVERY_WARM_CRON and DISCOVERY_WARM_TIMEOUT.
func LoadWarmerConfig() WarmerConfig {
	v := newEnv()
	v.SetDefault("discovery_warm_cron", "*/10 * * * *")
	v.SetDefault("discovery_warm_timeout", "2m")
	cfg := WarmerConfig{
		Schedule: strings.TrimSpace(v.GetString("discovery_warm_cron")),
		Timeout:  parseDur(v.GetString("discovery_warm_timeout"), 2*time.Minute),
	}
	switch strings.ToLower(cfg.Schedule) {
	case "off", "disabled", "none":
		cfg.Schedule = ""
	}
	return cfg
}
