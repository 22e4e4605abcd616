// Package discovery turns a page request into a payload of schedule events.
//
// A request is first resolved into an immutable FetchContext (page overrides,
// then request values, then global defaults).  The context keys the cache and
// drives the fan-out over organizations, programs, sessions and segments.
// Every event that survives projection ends up in one EventsPayload whose
// record shape is chosen by the context's mode.
package discovery

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/program-discovery/internal/config"
	"github.com/iliyamo/program-discovery/internal/model"
	"github.com/iliyamo/program-discovery/internal/repository"
)

const dateLayout = "2006-01-02"

// Request is what a caller asks for.  Every field is optional.
type Request struct {
	Slug            string
	APIKey          string
	OrgIDs          []string
	FacilityID      string
	IncludePast     bool
	StartDateFilter string // YYYY-MM-DD, inclusive
	EndDateFilter   string // YYYY-MM-DD, inclusive
	Mode            model.Mode
	ForceFresh      bool
}

// ProgramFilter decides which programs are eligible before their sessions are
// fetched.
type ProgramFilter struct {
	Mode     model.ProgramFilterMode
	Included []string
	Excluded []string
}

// Allows reports whether programID passes the filter.  An include policy with
// an empty list admits every program.
func (f ProgramFilter) Allows(programID string) bool {
	switch f.Mode {
	case model.ProgramFilterInclude:
		return len(f.Included) == 0 || slices.Contains(f.Included, programID)
	case model.ProgramFilterExclude:
		return !slices.Contains(f.Excluded, programID)
	default:
		return true
	}
}

// FetchContext is the fully resolved set of parameters for one fetch.  It is
// built once per request and treated as read-only afterwards; the builder
// copies every slice it stores.
type FetchContext struct {
	Slug            string
	APIKey          string
	OrgIDs          []string
	FacilityID      string
	IncludePast     bool
	StartDateFilter string
	EndDateFilter   string
	Mode            model.Mode
	ProgramFilter   ProgramFilter
	TTLFull         time.Duration
	TTLAvailability time.Duration
}

// TTL returns the cache lifetime for the context's mode.
func (fc FetchContext) TTL() time.Duration {
	if fc.Mode == model.ModeAvailability {
		return fc.TTLAvailability
	}
	return fc.TTLFull
}

// ConfigResolver looks up page overrides by slug.  Implementations return
// repository.ErrPageConfigNotFound when the slug is unknown.
type ConfigResolver interface {
	GetConfigBySlug(ctx context.Context, slug string) (*model.PageConfig, error)
}

// ContextBuilder merges page configuration, request values and global
// defaults into a FetchContext.
type ContextBuilder struct {
	resolver ConfigResolver
	defaults config.DiscoveryConfig
	log      *slog.Logger
}

// NewContextBuilder returns a builder.  resolver may be nil, in which case
// every slug resolves to the defaults.
func NewContextBuilder(resolver ConfigResolver, defaults config.DiscoveryConfig, log *slog.Logger) *ContextBuilder {
	if log == nil {
		log = slog.Default()
	}
	return &ContextBuilder{resolver: resolver, defaults: defaults, log: log}
}

// Build resolves req.  It never fails: a missing or unreadable page config
// degrades to request values and defaults.
func (b *ContextBuilder) Build(ctx context.Context, req Request) FetchContext {
	slug := strings.TrimSpace(req.Slug)
	pc := b.lookup(ctx, slug)

	mode := req.Mode
	if mode != model.ModeAvailability {
		mode = model.ModeFull
	}
	fc := FetchContext{
		Slug:            slug,
		IncludePast:     req.IncludePast,
		Mode:            mode,
		StartDateFilter: b.dateFilter("startDate", req.StartDateFilter),
		EndDateFilter:   b.dateFilter("endDate", req.EndDateFilter),
		ProgramFilter:   ProgramFilter{Mode: model.ProgramFilterAll},
		TTLFull:         b.defaults.TTLFull,
		TTLAvailability: b.defaults.TTLAvailability,
	}

	fc.APIKey = firstNonEmpty(pc.APIKey, strings.TrimSpace(req.APIKey), b.defaults.APIKey)
	fc.FacilityID = firstNonEmpty(strings.TrimSpace(req.FacilityID), pc.FacilityID)

	switch orgs := cleanIDs(pc.OrgIDs); {
	case len(orgs) > 0:
		fc.OrgIDs = orgs
	case len(cleanIDs(req.OrgIDs)) > 0:
		fc.OrgIDs = cleanIDs(req.OrgIDs)
	default:
		fc.OrgIDs = cleanIDs(b.defaults.OrgIDs)
	}

	if pc.CacheTTLFull > 0 {
		fc.TTLFull = pc.CacheTTLFull
	}
	if pc.CacheTTLAvailability > 0 {
		fc.TTLAvailability = pc.CacheTTLAvailability
	}
	if m := model.ParseProgramFilterMode(string(pc.ProgramFilterMode)); m != "" {
		fc.ProgramFilter = ProgramFilter{
			Mode:     m,
			Included: cleanIDs(pc.IncludedProgramIDs),
			Excluded: cleanIDs(pc.ExcludedProgramIDs),
		}
	}
	return fc
}

// lookup returns the page config for slug, or an empty one.
func (b *ContextBuilder) lookup(ctx context.Context, slug string) model.PageConfig {
	if slug == "" || b.resolver == nil {
		return model.PageConfig{}
	}
	pc, err := b.resolver.GetConfigBySlug(ctx, slug)
	switch {
	case errors.Is(err, repository.ErrPageConfigNotFound):
		b.log.Debug("no page config, using defaults", "slug", slug)
		return model.PageConfig{}
	case err != nil:
		b.log.Warn("page config lookup failed, using defaults", "slug", slug, "err", err)
		return model.PageConfig{}
	case pc == nil:
		return model.PageConfig{}
	}
	return *pc
}

func (b *ContextBuilder) dateFilter(name, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !ValidDate(value) {
		b.log.Warn("ignoring malformed date filter", "filter", name, "value", value)
		return ""
	}
	return value
}

// ValidDate reports whether s is a calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// cleanIDs trims, drops blanks and de-duplicates while keeping order.  The
// result never aliases ids.
func cleanIDs(ids []string) []string {
	out := lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
