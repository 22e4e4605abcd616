package model

import "time"

// ProgramFilterMode governs which programs are eligible before their sessions
// are fetched.
type ProgramFilterMode string

const (
	ProgramFilterAll     ProgramFilterMode = "all"
	ProgramFilterInclude ProgramFilterMode = "include"
	ProgramFilterExclude ProgramFilterMode = "exclude"
)

// ParseProgramFilterMode returns the mode named by s, or "" when s names none.
func ParseProgramFilterMode(s string) ProgramFilterMode {
	switch ProgramFilterMode(s) {
	case ProgramFilterAll, ProgramFilterInclude, ProgramFilterExclude:
		return ProgramFilterMode(s)
	}
	return ""
}

// PageConfig holds the per-page overrides an admin configures for a discovery
// page.  Zero values mean "not configured" and let the request or the global
// defaults decide.
type PageConfig struct {
	Slug                 string            `json:"slug" yaml:"slug"`
	APIKey               string            `json:"-" yaml:"api_key"`
	OrgIDs               []string          `json:"orgIds" yaml:"org_ids"`
	FacilityID           string            `json:"facilityId,omitempty" yaml:"facility_id"`
	CacheTTLFull         time.Duration     `json:"cacheTtlFull" yaml:"cache_ttl_full"`
	CacheTTLAvailability time.Duration     `json:"cacheTtlAvailability" yaml:"cache_ttl_availability"`
	ProgramFilterMode    ProgramFilterMode `json:"programFilterMode" yaml:"program_filter_mode"`
	IncludedProgramIDs   []string          `json:"includedProgramIds" yaml:"included_program_ids"`
	ExcludedProgramIDs   []string          `json:"excludedProgramIds" yaml:"excluded_program_ids"`
	UpdatedAt            time.Time         `json:"updatedAt" yaml:"-"`
}
