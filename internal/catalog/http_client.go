package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/iliyamo/program-discovery/internal/config"
	"github.com/iliyamo/program-discovery/internal/model"
)

// ErrStatus is wrapped by StatusError for non-2xx catalog responses.
var ErrStatus = errors.New("unexpected catalog status")

// StatusError reports the HTTP status and a body excerpt of a failed call.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

const maxBodyBytes = 32 << 20

// HTTPClient is the catalog Client over the public REST API.  Clients built by
// the same factory share one rate limiter, so the whole fan-out stays under
// the configured request rate regardless of how many lanes are busy.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	retryBase  time.Duration
	pageSize   int
}

// NewFactory builds a Factory sharing one http.Client and rate limiter.
func NewFactory(cfg config.CatalogConfig) Factory {
	hc := &http.Client{Timeout: cfg.Timeout}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	return func(apiKey string) Client {
		return &HTTPClient{
			baseURL:    cfg.BaseURL,
			apiKey:     apiKey,
			http:       hc,
			limiter:    limiter,
			maxRetries: cfg.MaxRetries,
			retryBase:  250 * time.Millisecond,
			pageSize:   cfg.PageSize,
		}
	}
}

func (c *HTTPClient) ListPrograms(ctx context.Context, orgID string, q ProgramQuery) ([]model.Program, error) {
	params := url.Values{}
	expand := q.Expand
	if len(expand) == 0 {
		expand = DefaultProgramExpand
	}
	params.Set("expand", strings.Join(expand, ","))
	if q.FacilityID != "" {
		params.Set("facilityId", q.FacilityID)
	}
	path := fmt.Sprintf("/v4/organization/%s/programs", url.PathEscape(orgID))
	raw, err := getPaged[RawProgram](ctx, c, path, params)
	if err != nil {
		return nil, err
	}
	out := make([]model.Program, 0, len(raw))
	for _, rp := range raw {
		out = append(out, NormalizeProgram(rp))
	}
	return out, nil
}

func (c *HTTPClient) ListSessionEvents(ctx context.Context, orgID, programID, sessionID string, q EventQuery) ([]model.RawEvent, error) {
	path := fmt.Sprintf("/v4/organization/%s/programs/%s/sessions/%s/events",
		url.PathEscape(orgID), url.PathEscape(programID), url.PathEscape(sessionID))
	return c.listEvents(ctx, path, q)
}

func (c *HTTPClient) ListSegments(ctx context.Context, orgID, programID, sessionID string) ([]model.Segment, error) {
	path := fmt.Sprintf("/v4/organization/%s/programs/%s/sessions/%s/segments",
		url.PathEscape(orgID), url.PathEscape(programID), url.PathEscape(sessionID))
	raw, err := getPaged[rawSegment](ctx, c, path, url.Values{})
	if err != nil {
		return nil, err
	}
	out := make([]model.Segment, 0, len(raw))
	for _, s := range raw {
		out = append(out, model.Segment{ID: string(s.ID), Name: s.Name})
	}
	return out, nil
}

func (c *HTTPClient) ListSegmentEvents(ctx context.Context, orgID, programID, sessionID, segmentID string, q EventQuery) ([]model.RawEvent, error) {
	path := fmt.Sprintf("/v4/organization/%s/programs/%s/sessions/%s/segments/%s/events",
		url.PathEscape(orgID), url.PathEscape(programID), url.PathEscape(sessionID), url.PathEscape(segmentID))
	return c.listEvents(ctx, path, q)
}

func (c *HTTPClient) listEvents(ctx context.Context, path string, q EventQuery) ([]model.RawEvent, error) {
	params := url.Values{}
	if q.StartDate != "" {
		params.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("endDate", q.EndDate)
	}
	raw, err := getPaged[rawEvent](ctx, c, path, params)
	if err != nil {
		return nil, err
	}
	out := make([]model.RawEvent, 0, len(raw))
	for _, re := range raw {
		out = append(out, normalizeEvent(re, q.Timezone))
	}
	return out, nil
}

type pageMeta struct {
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

// getPaged walks every page of a listing.  A bare JSON array is treated as a
// single, complete page.
func getPaged[T any](ctx context.Context, c *HTTPClient, path string, params url.Values) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))
		params.Set("itemsPerPage", strconv.Itoa(c.pageSize))
		body, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var items []T
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", path, err)
			}
			return append(out, items...), nil
		}
		var env struct {
			Data []T      `json:"data"`
			Meta pageMeta `json:"meta"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		out = append(out, env.Data...)
		if len(env.Data) == 0 || page >= env.Meta.TotalPages {
			return out, nil
		}
	}
}

// get performs one throttled GET with retries on transport errors, 429 and
// 5xx responses.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(fmt.Errorf("GET %s: %w", path, err))
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("reading %s: %w", path, err))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{Code: resp.StatusCode, Body: excerpt(b)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return retry.RetryableError(serr)
			}
			return serr
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func excerpt(b []byte) string {
	const n = 256
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
