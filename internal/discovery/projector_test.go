package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/program-discovery/internal/model"
)

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedProjector() Projector {
	return Projector{Now: func() time.Time { return fixedNow }}
}

func testOwner() Owner {
	return Owner{
		OrganizationID: "1",
		Program:        &model.Program{ID: "p1", Name: "Youth Soccer", Sport: "soccer"},
		Session:        &model.Session{ID: "s1", Name: "Spring", Timezone: "UTC"},
	}
}

func fullContext() FetchContext {
	return FetchContext{Mode: model.ModeFull, ProgramFilter: ProgramFilter{Mode: model.ProgramFilterAll}}
}

func TestToday_UsesGivenZone(t *testing.T) {
	auckland := resolveLocation("Pacific/Auckland")
	la := resolveLocation("America/Los_Angeles")
	assert.Equal(t, "2026-05-11", Today(fixedNow, auckland))
	assert.Equal(t, "2026-05-10", Today(fixedNow, la))
	assert.Equal(t, "2026-05-10", Today(fixedNow, nil))
}

func TestResolveLocation_FallsBack(t *testing.T) {
	assert.Equal(t, "Europe/Berlin", resolveLocation("", "Europe/Berlin").String())
	assert.Equal(t, "Europe/Berlin", resolveLocation("Mars/Olympus", "Europe/Berlin").String())
	assert.Equal(t, time.UTC, resolveLocation("", ""))
}

func TestProject_PastFilterUsesEventZone(t *testing.T) {
	p := fixedProjector()
	o := testOwner()

	// 22:00 on May 9 in Los Angeles, already May 10 in UTC.
	ev := model.RawEvent{ID: "e1", Start: time.Date(2026, 5, 10, 5, 0, 0, 0, time.UTC), Timezone: "America/Los_Angeles"}
	_, ok := p.Project(fullContext(), ev, o)
	assert.False(t, ok, "yesterday in the event's zone is past")

	ev.Timezone = "UTC"
	_, ok = p.Project(fullContext(), ev, o)
	assert.True(t, ok, "earlier today is not past")

	ev.Timezone = "America/Los_Angeles"
	fc := fullContext()
	fc.IncludePast = true
	_, ok = p.Project(fc, ev, o)
	assert.True(t, ok)
}

func TestProject_DateFiltersAreInclusive(t *testing.T) {
	p := fixedProjector()
	fc := fullContext()
	fc.StartDateFilter = "2026-05-20"
	fc.EndDateFilter = "2026-05-20"

	at := func(day int) model.RawEvent {
		return model.RawEvent{ID: "e", Start: time.Date(2026, 5, day, 23, 30, 0, 0, time.UTC), Timezone: "UTC"}
	}
	_, ok := p.Project(fc, at(19), testOwner())
	assert.False(t, ok)
	_, ok = p.Project(fc, at(20), testOwner())
	assert.True(t, ok)
	_, ok = p.Project(fc, at(21), testOwner())
	assert.False(t, ok)
}

func TestProject_FullRecord(t *testing.T) {
	p := fixedProjector()
	o := testOwner()
	o.Session.Timezone = "America/New_York"
	o.Session.FacilityName = "Main Field"
	o.Session.Products = []model.Product{
		{ID: "a", Prices: []float64{40, 35}},
		{ID: "b", Prices: []float64{20}, IsMemberProduct: true},
		{ID: "c"},
	}
	ev := model.RawEvent{
		ID:                  "e1",
		Start:               time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC),
		End:                 time.Date(2026, 5, 12, 15, 0, 0, 0, time.UTC),
		MaxParticipants:     intPtr(10),
		CurrentParticipants: 12,
		SpaceName:           "Court 2",
	}

	got, ok := p.Project(fullContext(), ev, o)
	require.True(t, ok)
	require.NotNil(t, got.Full)
	assert.Nil(t, got.Availability)

	e := got.Full
	assert.Equal(t, "America/New_York", e.Timezone)
	assert.Equal(t, "2026-05-12", e.LocalDate)
	assert.Equal(t, "Spring", e.Name)
	assert.Equal(t, "Main Field", e.FacilityName)
	assert.Equal(t, "Court 2", e.SpaceName)
	assert.Equal(t, "soccer", e.Sport)
	assert.Equal(t, 0, *e.SpotsRemaining, "overbooked events never go negative")
	assert.Equal(t, 35.0, *e.StartingPrice)
	assert.Equal(t, 20.0, *e.MemberPrice)
	assert.Equal(t, model.RegistrationOpen, e.RegistrationStatus)
	assert.False(t, e.IsSegmented)
}

func TestProject_AvailabilityRecord(t *testing.T) {
	p := fixedProjector()
	fc := fullContext()
	fc.Mode = model.ModeAvailability
	o := testOwner()
	o.Segment = &model.Segment{ID: "seg1", Name: "Week 1"}
	ev := model.RawEvent{ID: "e1", Start: fixedNow.Add(time.Hour), MaxParticipants: intPtr(8), CurrentParticipants: 3}

	got, ok := p.Project(fc, ev, o)
	require.True(t, ok)
	assert.Nil(t, got.Full)
	require.NotNil(t, got.Availability)
	assert.Equal(t, "s1", got.Availability.SessionID)
	assert.Equal(t, "seg1", got.Availability.SegmentID)
	assert.Equal(t, 5, *got.Availability.SpotsRemaining)

	ev.MaxParticipants = nil
	got, _ = p.Project(fc, ev, o)
	assert.Nil(t, got.Availability.SpotsRemaining)
}

func TestRegistrationStatus(t *testing.T) {
	p := fixedProjector()
	day := func(d int) *time.Time { return timePtr(time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)) }

	tests := []struct {
		name       string
		start, end *time.Time
		want       model.RegistrationStatus
	}{
		{"no window", nil, nil, model.RegistrationOpen},
		{"opens tomorrow", day(11), nil, model.RegistrationNotOpenedYet},
		{"opened today", day(10), day(20), model.RegistrationOpen},
		{"closes today", day(1), day(10), model.RegistrationOpen},
		{"closed yesterday", day(1), day(9), model.RegistrationClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &model.Session{Timezone: "UTC", RegistrationStart: tt.start, RegistrationEnd: tt.end}
			assert.Equal(t, tt.want, p.registrationStatus(s))
		})
	}
}

func TestSummarizePrices_NoCandidates(t *testing.T) {
	starting, member := summarizePrices([]model.Product{{ID: "free"}})
	assert.Nil(t, starting)
	assert.Nil(t, member)
}

func TestSessionEnded(t *testing.T) {
	p := fixedProjector()
	assert.False(t, p.SessionEnded(&model.Session{}))
	assert.False(t, p.SessionEnded(&model.Session{Timezone: "UTC", EndDate: timePtr(time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))}))
	assert.True(t, p.SessionEnded(&model.Session{Timezone: "UTC", EndDate: timePtr(time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC))}))
}
