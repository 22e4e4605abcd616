package discovery

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// CacheKey derives the store key for fc.  Two contexts that would produce
// different payloads never share a key, and the same context always yields
// the same key.  The API key only contributes a short hash.  Caller-supplied
// values are query-escaped so none of them can forge a separator.
func CacheKey(prefix string, fc FetchContext) string {
	scope := "global"
	if fc.Slug != "" {
		scope = url.QueryEscape(fc.Slug)
	}
	window := "future"
	if fc.IncludePast {
		window = "past"
	}
	filterMode := string(fc.ProgramFilter.Mode)
	if filterMode == "" {
		filterMode = "all"
	}

	parts := []string{
		"orgs=" + joinSorted(fc.OrgIDs, ""),
		"facility=" + orDefault(url.QueryEscape(fc.FacilityID), "all"),
		window,
		"start=" + orDefault(fc.StartDateFilter, "none"),
		"end=" + orDefault(fc.EndDateFilter, "none"),
		"filter=" + filterMode,
		"inc=" + joinSorted(fc.ProgramFilter.Included, "none"),
		"exc=" + joinSorted(fc.ProgramFilter.Excluded, "none"),
		"key=" + keyFingerprint(fc.APIKey),
	}
	return fmt.Sprintf("%s:%s:%s:%s", prefix, fc.Mode, scope, strings.Join(parts, "|"))
}

func keyFingerprint(apiKey string) string {
	if apiKey == "" {
		return "nokey"
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(apiKey))[:8]
}

func joinSorted(ids []string, empty string) string {
	if len(ids) == 0 {
		return empty
	}
	sorted := make([]string, len(ids))
	for i, id := range ids {
		sorted[i] = url.QueryEscape(id)
	}
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
