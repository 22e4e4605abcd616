package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the discovery payload cache.
// When Enabled is false or no Redis client is reachable, payloads are kept in an
// in-process LRU instead.  Prefix namespaces every key so several deployments can
// share one Redis database.  MemoryEntries bounds the in-process fallback.
type CacheConfig struct {
	Enabled       bool
	Prefix        string
	MemoryEntries int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	v := newEnv()
	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_prefix", "discovery")
	v.SetDefault("cache_memory_entries", 512)

	cfg := CacheConfig{
		Enabled:       v.GetBool("cache_enabled"),
		Prefix:        strings.TrimSpace(v.GetString("cache_prefix")),
		MemoryEntries: v.GetInt("cache_memory_entries"),
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "discovery"
	}
	if cfg.MemoryEntries < 1 {
		cfg.MemoryEntries = 512
	}
	return cfg
}

// parseList splits a comma separated value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
