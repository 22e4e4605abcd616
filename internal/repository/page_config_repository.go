package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/program-discovery/internal/model"
)

// PageConfigRepo reads and writes discovery page configurations stored in the
// page_configs table.  The SQL sticks to the subset MySQL and SQLite share so
// the same repo runs against either driver.
type PageConfigRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPageConfigRepo constructs a PageConfigRepo with the provided DB handle.
func NewPageConfigRepo(db *sql.DB) *PageConfigRepo {
	return &PageConfigRepo{db: db, now: time.Now}
}

const pageConfigColumns = `slug, api_key, org_ids, facility_id, cache_ttl_full_sec,
	cache_ttl_avail_sec, program_filter_mode, included_program_ids,
	excluded_program_ids, updated_at_unix`

// GetConfigBySlug fetches the configuration of one discovery page.  It returns
// ErrPageConfigNotFound if no row matches.
func (r *PageConfigRepo) GetConfigBySlug(ctx context.Context, slug string) (*model.PageConfig, error) {
	q := "SELECT " + pageConfigColumns + " FROM page_configs WHERE slug = ?"
	var (
		pc                         model.PageConfig
		orgs, included, excluded   string
		ttlFull, ttlAvail, updated int64
		filterMode                 string
	)
	err := r.db.QueryRowContext(ctx, q, strings.TrimSpace(slug)).Scan(
		&pc.Slug, &pc.APIKey, &orgs, &pc.FacilityID, &ttlFull,
		&ttlAvail, &filterMode, &included, &excluded, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPageConfigNotFound
		}
		return nil, err
	}
	if pc.OrgIDs, err = decodeIDs(orgs); err != nil {
		return nil, fmt.Errorf("page %s org_ids: %w", pc.Slug, err)
	}
	if pc.IncludedProgramIDs, err = decodeIDs(included); err != nil {
		return nil, fmt.Errorf("page %s included_program_ids: %w", pc.Slug, err)
	}
	if pc.ExcludedProgramIDs, err = decodeIDs(excluded); err != nil {
		return nil, fmt.Errorf("page %s excluded_program_ids: %w", pc.Slug, err)
	}
	pc.CacheTTLFull = time.Duration(ttlFull) * time.Second
	pc.CacheTTLAvailability = time.Duration(ttlAvail) * time.Second
	pc.ProgramFilterMode = model.ParseProgramFilterMode(filterMode)
	if updated > 0 {
		pc.UpdatedAt = time.Unix(updated, 0).UTC()
	}
	return &pc, nil
}

// ListSlugs returns every configured slug ordered alphabetically.
func (r *PageConfigRepo) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT slug FROM page_configs ORDER BY slug")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert creates or replaces the configuration for pc.Slug.  UpdatedAt is
// set to the current time on success.
func (r *PageConfigRepo) Upsert(ctx context.Context, pc *model.PageConfig) error {
	slug := strings.TrimSpace(pc.Slug)
	if slug == "" {
		return errors.New("page config slug is empty")
	}
	orgs, err := encodeIDs(pc.OrgIDs)
	if err != nil {
		return err
	}
	included, err := encodeIDs(pc.IncludedProgramIDs)
	if err != nil {
		return err
	}
	excluded, err := encodeIDs(pc.ExcludedProgramIDs)
	if err != nil {
		return err
	}
	now := r.now().UTC().Truncate(time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM page_configs WHERE slug = ?", slug).Scan(&n); err != nil {
		return err
	}
	args := []any{
		pc.APIKey, orgs, pc.FacilityID,
		int64(pc.CacheTTLFull / time.Second), int64(pc.CacheTTLAvailability / time.Second),
		string(pc.ProgramFilterMode), included, excluded, now.Unix(), slug,
	}
	if n == 0 {
		const qInsert = `INSERT INTO page_configs (api_key, org_ids, facility_id, cache_ttl_full_sec,
			cache_ttl_avail_sec, program_filter_mode, included_program_ids, excluded_program_ids,
			updated_at_unix, slug) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err = tx.ExecContext(ctx, qInsert, args...)
	} else {
		const qUpdate = `UPDATE page_configs SET api_key = ?, org_ids = ?, facility_id = ?,
			cache_ttl_full_sec = ?, cache_ttl_avail_sec = ?, program_filter_mode = ?,
			included_program_ids = ?, excluded_program_ids = ?, updated_at_unix = ?
			WHERE slug = ?`
		_, err = tx.ExecContext(ctx, qUpdate, args...)
	}
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	pc.Slug = slug
	pc.UpdatedAt = now
	return nil
}

// Delete removes a page configuration.  It returns ErrPageConfigNotFound when
// nothing was deleted.
func (r *PageConfigRepo) Delete(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM page_configs WHERE slug = ?", strings.TrimSpace(slug))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPageConfigNotFound
	}
	return nil
}

// id lists are stored as JSON arrays so ids containing commas survive.
func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeIDs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}
