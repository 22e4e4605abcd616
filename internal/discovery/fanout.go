package discovery

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/iliyamo/program-discovery/internal/catalog"
	"github.com/iliyamo/program-discovery/internal/config"
	"github.com/iliyamo/program-discovery/internal/model"
)

// Fetcher computes a fresh payload for a context.
type Fetcher interface {
	Fetch(ctx context.Context, fc FetchContext) (*model.EventsPayload, error)
}

// Aggregator walks organizations, programs, sessions and segments with bounded
// concurrency and projects every event it finds.  A failed unit contributes
// nothing; only cancellation fails the fetch.
type Aggregator struct {
	clients      catalog.Factory
	projector    Projector
	orgLimit     int
	sessionLimit int
	now          func() time.Time
	log          *slog.Logger
}

// NewAggregator returns an Aggregator that opens catalog clients through
// clients and takes its lane widths from cfg.
func NewAggregator(clients catalog.Factory, cfg config.DiscoveryConfig, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	a := &Aggregator{
		clients:      clients,
		orgLimit:     cfg.OrgConcurrency,
		sessionLimit: cfg.SessionConcurrency,
		now:          time.Now,
		log:          log,
	}
	a.projector = Projector{Now: func() time.Time { return a.now() }}
	return a
}

// Fetch builds the payload for fc.
func (a *Aggregator) Fetch(ctx context.Context, fc FetchContext) (*model.EventsPayload, error) {
	started := a.now()
	run := &fetchRun{
		client: a.clients(fc.APIKey),
		fc:     fc,
		lane:   semaphore.NewWeighted(int64(max(1, a.sessionLimit))),
	}

	results := MapOrdered(ctx, fc.OrgIDs, a.orgLimit, func(ctx context.Context, _ int, orgID string) []Projection {
		return a.fetchOrganization(ctx, run, orgID)
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch interrupted: %w", err)
	}

	var events []Projection
	for _, r := range results {
		events = append(events, r...)
	}

	if fc.Mode == model.ModeFull {
		slices.SortStableFunc(events, func(x, y Projection) int {
			if c := x.Start.Compare(y.Start); c != 0 {
				return c
			}
			return cmp.Compare(x.ID, y.ID)
		})
	}

	finished := a.now()
	payload := &model.EventsPayload{
		Meta: model.PayloadMeta{
			TotalEvents:       len(events),
			OrganizationCount: len(fc.OrgIDs),
			FetchDurationMs:   finished.Sub(started).Milliseconds(),
			CachedAt:          finished,
			Mode:              fc.Mode,
		},
	}
	if fc.Mode == model.ModeAvailability {
		payload.Availability = make([]model.AvailabilityEvent, 0, len(events))
		for _, e := range events {
			payload.Availability = append(payload.Availability, *e.Availability)
		}
	} else {
		payload.Full = make([]model.FullEvent, 0, len(events))
		for _, e := range events {
			payload.Full = append(payload.Full, *e.Full)
		}
	}
	return payload, nil
}

// fetchRun is the state shared by every unit of one Fetch.  lane caps the
// session-level catalog calls across all organizations and programs; program
// listings are already capped by the organization runner.
type fetchRun struct {
	client catalog.Client
	fc     FetchContext
	lane   *semaphore.Weighted
}

// call runs fn while holding a session lane slot.
func (r *fetchRun) call(ctx context.Context, fn func() error) error {
	if err := r.lane.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.lane.Release(1)
	return fn()
}

func (a *Aggregator) fetchOrganization(ctx context.Context, run *fetchRun, orgID string) []Projection {
	fc := run.fc
	programs, err := run.client.ListPrograms(ctx, orgID, catalog.ProgramQuery{FacilityID: fc.FacilityID})
	if err != nil {
		a.log.Warn("list programs failed", "org", orgID, "err", err)
		return nil
	}
	programs = slices.DeleteFunc(programs, func(p model.Program) bool {
		return !fc.ProgramFilter.Allows(p.ID)
	})

	perProgram := MapOrdered(ctx, programs, a.sessionLimit, func(ctx context.Context, _ int, p model.Program) []Projection {
		return a.fetchProgram(ctx, run, orgID, &p)
	})
	return slices.Concat(perProgram...)
}

func (a *Aggregator) fetchProgram(ctx context.Context, run *fetchRun, orgID string, p *model.Program) []Projection {
	fc := run.fc
	sessions := slices.DeleteFunc(slices.Clone(p.Sessions), func(s model.Session) bool {
		if !fc.IncludePast && a.projector.SessionEnded(&s) {
			return true
		}
		return fc.FacilityID != "" && s.FacilityID != "" && s.FacilityID != fc.FacilityID
	})

	perSession := MapOrdered(ctx, sessions, a.sessionLimit, func(ctx context.Context, _ int, s model.Session) []Projection {
		owner := Owner{OrganizationID: orgID, Program: p, Session: &s}
		if s.IsSegmented {
			return a.fetchSegmented(ctx, run, owner)
		}
		var events []model.RawEvent
		err := run.call(ctx, func() (err error) {
			events, err = run.client.ListSessionEvents(ctx, orgID, p.ID, s.ID, eventQuery(fc, &s))
			return err
		})
		if err != nil {
			a.log.Warn("list session events failed", "org", orgID, "program", p.ID, "session", s.ID, "err", err)
			return nil
		}
		return a.project(fc, events, owner)
	})
	return slices.Concat(perSession...)
}

func (a *Aggregator) fetchSegmented(ctx context.Context, run *fetchRun, owner Owner) []Projection {
	orgID, programID, sessionID := owner.OrganizationID, owner.Program.ID, owner.Session.ID
	var segments []model.Segment
	err := run.call(ctx, func() (err error) {
		segments, err = run.client.ListSegments(ctx, orgID, programID, sessionID)
		return err
	})
	if err != nil {
		a.log.Warn("list segments failed", "org", orgID, "program", programID, "session", sessionID, "err", err)
		return nil
	}
	perSegment := MapOrdered(ctx, segments, a.sessionLimit, func(ctx context.Context, _ int, seg model.Segment) []Projection {
		var events []model.RawEvent
		err := run.call(ctx, func() (err error) {
			events, err = run.client.ListSegmentEvents(ctx, orgID, programID, sessionID, seg.ID, eventQuery(run.fc, owner.Session))
			return err
		})
		if err != nil {
			a.log.Warn("list segment events failed", "org", orgID, "program", programID,
				"session", sessionID, "segment", seg.ID, "err", err)
			return nil
		}
		o := owner
		o.Segment = &seg
		return a.project(run.fc, events, o)
	})
	return slices.Concat(perSegment...)
}

func (a *Aggregator) project(fc FetchContext, events []model.RawEvent, o Owner) []Projection {
	var out []Projection
	for _, ev := range events {
		if p, ok := a.projector.Project(fc, ev, o); ok {
			out = append(out, p)
		}
	}
	return out
}

// eventQuery passes the date bounds and the session zone, which the catalog
// client uses to read event times that carry no offset.
func eventQuery(fc FetchContext, s *model.Session) catalog.EventQuery {
	return catalog.EventQuery{StartDate: fc.StartDateFilter, EndDate: fc.EndDateFilter, Timezone: s.Timezone}
}
