// Package catalog talks to the upstream program catalog.  The Client
// interface is what the discovery pipeline depends on; HTTPClient is the
// production implementation and owns retries, throttling and paging.
package catalog

import (
	"context"

	"github.com/iliyamo/program-discovery/internal/model"
)

// DefaultProgramExpand asks the catalog to inline sessions, products and
// prices so one call per organization is enough to filter programs.
var DefaultProgramExpand = []string{"sessions", "sessions.products", "sessions.products.prices"}

// ProgramQuery narrows a program listing.  FacilityID is a hint the catalog
// may honor; callers still filter locally.
type ProgramQuery struct {
	FacilityID string
	Expand     []string
}

// EventQuery carries optional local-date bounds (YYYY-MM-DD) as a hint to the
// catalog.  Callers filter again after projection.  Timezone is the owning
// session's zone; event times without an offset are read in it when the
// event names no zone of its own.
type EventQuery struct {
	StartDate string
	EndDate   string
	Timezone  string
}

// Client lists catalog entities for one credential, already normalized.
// Every call may fail; absorbing failures is the caller's job.
type Client interface {
	ListPrograms(ctx context.Context, orgID string, q ProgramQuery) ([]model.Program, error)
	ListSessionEvents(ctx context.Context, orgID, programID, sessionID string, q EventQuery) ([]model.RawEvent, error)
	ListSegments(ctx context.Context, orgID, programID, sessionID string) ([]model.Segment, error)
	ListSegmentEvents(ctx context.Context, orgID, programID, sessionID, segmentID string, q EventQuery) ([]model.RawEvent, error)
}

// Factory returns a Client bound to apiKey.
type Factory func(apiKey string) Client
