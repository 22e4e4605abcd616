package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/program-discovery/internal/model"
)

// FilePageConfigs serves page configurations from a YAML file for
// deployments without a database.  The file is read once at load time.
//
//	pages:
//	  - slug: downtown
//	    api_key: "..."
//	    org_ids: ["12", "14"]
//	    cache_ttl_full: 30m
//	    program_filter_mode: exclude
//	    excluded_program_ids: ["99"]
type FilePageConfigs struct {
	pages map[string]model.PageConfig
}

type pagesFile struct {
	Pages []model.PageConfig `yaml:"pages"`
}

// LoadPageConfigFile parses the YAML file at path.
func LoadPageConfigFile(path string) (*FilePageConfigs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pages file: %w", err)
	}
	return ParsePageConfigs(data)
}

// ParsePageConfigs builds a FilePageConfigs from YAML bytes.  Duplicate slugs
// are rejected.
func ParsePageConfigs(data []byte) (*FilePageConfigs, error) {
	var f pagesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing pages yaml: %w", err)
	}
	out := &FilePageConfigs{pages: make(map[string]model.PageConfig, len(f.Pages))}
	for i, p := range f.Pages {
		p.Slug = strings.TrimSpace(p.Slug)
		if p.Slug == "" {
			return nil, fmt.Errorf("pages[%d]: slug is empty", i)
		}
		if _, dup := out.pages[p.Slug]; dup {
			return nil, fmt.Errorf("pages[%d]: duplicate slug %q", i, p.Slug)
		}
		if p.ProgramFilterMode != "" && model.ParseProgramFilterMode(string(p.ProgramFilterMode)) == "" {
			return nil, fmt.Errorf("pages[%d]: unknown program_filter_mode %q", i, p.ProgramFilterMode)
		}
		out.pages[p.Slug] = p
	}
	return out, nil
}

// GetConfigBySlug returns a copy of the page configuration for slug.
func (f *FilePageConfigs) GetConfigBySlug(_ context.Context, slug string) (*model.PageConfig, error) {
	p, ok := f.pages[strings.TrimSpace(slug)]
	if !ok {
		return nil, ErrPageConfigNotFound
	}
	p.OrgIDs = append([]string(nil), p.OrgIDs...)
	p.IncludedProgramIDs = append([]string(nil), p.IncludedProgramIDs...)
	p.ExcludedProgramIDs = append([]string(nil), p.ExcludedProgramIDs...)
	return &p, nil
}

// ListSlugs returns the configured slugs ordered alphabetically.
func (f *FilePageConfigs) ListSlugs(context.Context) ([]string, error) {
	out := make([]string, 0, len(f.pages))
	for s := range f.pages {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
