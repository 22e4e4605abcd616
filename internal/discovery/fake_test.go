package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/program-discovery/internal/catalog"
	"github.com/iliyamo/program-discovery/internal/model"
)

var errUpstream = errors.New("upstream down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// fakeCatalog is an in-memory catalog.  It counts calls and tracks how many
// are in flight so tests can assert lane bounds.
type fakeCatalog struct {
	mu            sync.Mutex
	programs      map[string][]model.Program  // org -> programs
	events        map[string][]model.RawEvent // session id or segment id -> events
	segments      map[string][]model.Segment  // session id -> segments
	failOrgs      map[string]bool
	failSessions  map[string]bool
	delay         time.Duration
	calls         atomic.Int64
	inFlight      atomic.Int64
	maxInFlight   atomic.Int64
	programCalls  atomic.Int64
	sessionCalls  atomic.Int64
	maxSession    atomic.Int64
	lastAPIKey    string
	lastEventArgs catalog.EventQuery
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		programs:     map[string][]model.Program{},
		events:       map[string][]model.RawEvent{},
		segments:     map[string][]model.Segment{},
		failOrgs:     map[string]bool{},
		failSessions: map[string]bool{},
	}
}

func (f *fakeCatalog) factory() catalog.Factory {
	return func(apiKey string) catalog.Client {
		f.mu.Lock()
		f.lastAPIKey = apiKey
		f.mu.Unlock()
		return f
	}
}

func trackPeak(cur, peak *atomic.Int64) {
	n := cur.Add(1)
	for {
		p := peak.Load()
		if n <= p || peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (f *fakeCatalog) enter() func() {
	f.calls.Add(1)
	trackPeak(&f.inFlight, &f.maxInFlight)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeCatalog) enterSession() func() {
	trackPeak(&f.sessionCalls, &f.maxSession)
	leave := f.enter()
	return func() {
		leave()
		f.sessionCalls.Add(-1)
	}
}

func (f *fakeCatalog) ListPrograms(_ context.Context, orgID string, _ catalog.ProgramQuery) ([]model.Program, error) {
	defer f.enter()()
	f.programCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOrgs[orgID] {
		return nil, errUpstream
	}
	return f.programs[orgID], nil
}

func (f *fakeCatalog) ListSessionEvents(_ context.Context, _, _, sessionID string, q catalog.EventQuery) ([]model.RawEvent, error) {
	defer f.enterSession()()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEventArgs = q
	if f.failSessions[sessionID] {
		return nil, errUpstream
	}
	return f.events[sessionID], nil
}

func (f *fakeCatalog) ListSegments(_ context.Context, _, _, sessionID string) ([]model.Segment, error) {
	defer f.enterSession()()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSessions[sessionID] {
		return nil, errUpstream
	}
	return f.segments[sessionID], nil
}

func (f *fakeCatalog) ListSegmentEvents(_ context.Context, _, _, _, segmentID string, _ catalog.EventQuery) ([]model.RawEvent, error) {
	defer f.enterSession()()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[segmentID], nil
}
