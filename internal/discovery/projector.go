package discovery

import (
	"sync"
	"time"

	"github.com/iliyamo/program-discovery/internal/catalog"
	"github.com/iliyamo/program-discovery/internal/model"
)

// LocalDate is the calendar date of t in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	return LocalDate(now, loc)
}

var locations sync.Map // name -> *time.Location, nil for unknown names

func location(name string) *time.Location {
	if name == "" {
		return nil
	}
	if v, ok := locations.Load(name); ok {
		return v.(*time.Location)
	}
	loc := catalog.LoadLocation(name)
	locations.Store(name, loc)
	return loc
}

// resolveLocation picks the event's timezone, then the session's, then UTC.
func resolveLocation(names ...string) *time.Location {
	for _, n := range names {
		if loc := location(n); loc != nil {
			return loc
		}
	}
	return time.UTC
}

// Owner is the catalog hierarchy an event was listed under.  Segment is nil
// for events of unsegmented sessions.
type Owner struct {
	OrganizationID string
	Program        *model.Program
	Session        *model.Session
	Segment        *model.Segment
}

// Projection is one event that passed the filters, shaped for the context's
// mode.  Exactly one of Full and Availability is set.
type Projection struct {
	Start        time.Time
	ID           string
	Full         *model.FullEvent
	Availability *model.AvailabilityEvent
}

// Projector filters raw events by local date and shapes the survivors.
type Projector struct {
	Now func() time.Time
}

func (p Projector) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// SessionEnded reports whether the session's last day is before today in the
// session's own timezone.  Sessions without an end date never end.
func (p Projector) SessionEnded(s *model.Session) bool {
	if s.EndDate == nil {
		return false
	}
	loc := resolveLocation(s.Timezone)
	return LocalDate(*s.EndDate, loc) < Today(p.now(), loc)
}

// Project applies the past and date-range filters to ev and builds the record
// for fc.Mode.  It returns false when the event is filtered out.
func (p Projector) Project(fc FetchContext, ev model.RawEvent, o Owner) (Projection, bool) {
	loc := resolveLocation(ev.Timezone, o.Session.Timezone)
	day := LocalDate(ev.Start, loc)

	if !fc.IncludePast && day < Today(p.now(), loc) {
		return Projection{}, false
	}
	if fc.StartDateFilter != "" && day < fc.StartDateFilter {
		return Projection{}, false
	}
	if fc.EndDateFilter != "" && day > fc.EndDateFilter {
		return Projection{}, false
	}

	spots := spotsRemaining(ev)
	var segmentID, segmentName string
	if o.Segment != nil {
		segmentID, segmentName = o.Segment.ID, o.Segment.Name
	}
	out := Projection{Start: ev.Start, ID: ev.ID}

	if fc.Mode == model.ModeAvailability {
		out.Availability = &model.AvailabilityEvent{
			ID:                  ev.ID,
			SessionID:           o.Session.ID,
			MaxParticipants:     ev.MaxParticipants,
			CurrentParticipants: ev.CurrentParticipants,
			SpotsRemaining:      spots,
			WaitlistEnabled:     ev.WaitlistEnabled,
			WaitlistCount:       ev.WaitlistCount,
			SegmentID:           segmentID,
		}
		return out, true
	}

	starting, member := summarizePrices(o.Session.Products)
	out.Full = &model.FullEvent{
		ID:                  ev.ID,
		Name:                orDefault(ev.Name, o.Session.Name),
		Start:               ev.Start,
		End:                 ev.End,
		Timezone:            loc.String(),
		LocalDate:           day,
		OrganizationID:      o.OrganizationID,
		ProgramID:           o.Program.ID,
		ProgramName:         o.Program.Name,
		SessionID:           o.Session.ID,
		SessionName:         o.Session.Name,
		FacilityName:        orDefault(ev.FacilityName, o.Session.FacilityName),
		SpaceName:           orDefault(ev.SpaceName, o.Session.SpaceName),
		Sport:               o.Program.Sport,
		Type:                o.Program.Type,
		RegistrationURL:     o.Session.RegistrationURL,
		RegistrationStatus:  p.registrationStatus(o.Session),
		MaxParticipants:     ev.MaxParticipants,
		CurrentParticipants: ev.CurrentParticipants,
		SpotsRemaining:      spots,
		StartingPrice:       starting,
		MemberPrice:         member,
		WaitlistEnabled:     ev.WaitlistEnabled,
		WaitlistCount:       ev.WaitlistCount,
		IsSegmented:         o.Segment != nil,
		SegmentID:           segmentID,
		SegmentName:         segmentName,
	}
	return out, true
}

// registrationStatus compares today with the registration window, all as
// local dates in the session's timezone.
func (p Projector) registrationStatus(s *model.Session) model.RegistrationStatus {
	loc := resolveLocation(s.Timezone)
	today := Today(p.now(), loc)
	if s.RegistrationStart != nil && today < LocalDate(*s.RegistrationStart, loc) {
		return model.RegistrationNotOpenedYet
	}
	if s.RegistrationEnd != nil && today > LocalDate(*s.RegistrationEnd, loc) {
		return model.RegistrationClosed
	}
	return model.RegistrationOpen
}

func spotsRemaining(ev model.RawEvent) *int {
	if ev.MaxParticipants == nil {
		return nil
	}
	n := max(0, *ev.MaxParticipants-ev.CurrentParticipants)
	return &n
}

// summarizePrices returns the lowest non-member and the lowest member price.
func summarizePrices(products []model.Product) (starting, member *float64) {
	for _, prod := range products {
		low, ok := prod.LowestPrice()
		if !ok {
			continue
		}
		dst := &starting
		if prod.IsMember() {
			dst = &member
		}
		if *dst == nil || low < **dst {
			v := low
			*dst = &v
		}
	}
	return starting, member
}
