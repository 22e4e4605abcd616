package catalog

import (
	"strings"
	"time"
	_ "time/tzdata" // sessions carry IANA names; do not depend on the host zoneinfo

	"github.com/iliyamo/program-discovery/internal/model"
)

// layouts accepted for catalog timestamps, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeProgram converts a raw catalog program into the model entity the
// discovery pipeline works on.  It is pure; nothing downstream inspects raw
// shapes again.
func NormalizeProgram(raw RawProgram) model.Program {
	p := model.Program{
		ID:             string(raw.ID),
		OrganizationID: string(raw.OrganizationID),
		Name:           strings.TrimSpace(raw.Name),
		Sport:          raw.Sport,
		Type:           raw.Type,
		FacilityID:     string(raw.FacilityID),
		Sessions:       make([]model.Session, 0, len(raw.Sessions)),
	}
	for _, rs := range raw.Sessions {
		p.Sessions = append(p.Sessions, normalizeSession(rs, p.ID))
	}
	return p
}

func normalizeSession(rs rawSession, programID string) model.Session {
	loc := LoadLocation(rs.Timezone)
	s := model.Session{
		ID:                string(rs.ID),
		ProgramID:         programID,
		Name:              strings.TrimSpace(rs.Name),
		Timezone:          rs.Timezone,
		StartDate:         parseTime(rs.StartDate, loc),
		EndDate:           parseTime(rs.EndDate, loc),
		RegistrationStart: parseTime(rs.RegistrationStartDate, loc),
		RegistrationEnd:   parseTime(rs.RegistrationEndDate, loc),
		IsSegmented:       rs.IsSegmented,
		FacilityID:        string(rs.FacilityID),
		RegistrationURL:   rs.RegistrationURL,
	}
	if rs.Facility != nil {
		s.FacilityName = rs.Facility.Name
		if s.FacilityID == "" {
			s.FacilityID = string(rs.Facility.ID)
		}
	}
	if rs.Space != nil {
		s.SpaceName = rs.Space.Name
	}
	for _, rp := range rs.Products {
		prod := model.Product{
			ID:                 string(rp.ID),
			Name:               rp.Name,
			MembershipRequired: rp.MembershipRequired,
			IsMemberProduct:    rp.IsMemberProduct,
		}
		for _, pr := range rp.Prices {
			if pr.Price.Valid {
				prod.Prices = append(prod.Prices, pr.Price.Value)
			}
		}
		s.Products = append(s.Products, prod)
	}
	return s
}

// normalizeEvent reads offset-less times in the event zone, then sessionTZ,
// then UTC.  The projector derives local dates in the same order.
func normalizeEvent(re rawEvent, sessionTZ string) model.RawEvent {
	loc := LoadLocation(re.Timezone)
	if loc == nil {
		loc = LoadLocation(sessionTZ)
	}
	ev := model.RawEvent{
		ID:                  string(re.ID),
		Name:                re.Name,
		Timezone:            re.Timezone,
		MaxParticipants:     re.MaxParticipants,
		CurrentParticipants: re.CurrentParticipants,
		WaitlistEnabled:     re.WaitlistEnabled,
		WaitlistCount:       re.WaitlistCount,
	}
	if t := parseTime(re.StartDate, loc); t != nil {
		ev.Start = *t
	}
	if t := parseTime(re.EndDate, loc); t != nil {
		ev.End = *t
	}
	if re.Facility != nil {
		ev.FacilityName = re.Facility.Name
	}
	if re.Space != nil {
		ev.SpaceName = re.Space.Name
	}
	return ev
}

// LoadLocation resolves an IANA name, returning nil for empty or unknown names.
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil
	}
	return loc
}

// parseTime reads a catalog timestamp.  Values without an offset are read in
// loc (UTC when loc is nil) so a date-only value stays on its calendar day.
func parseTime(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return &t
		}
	}
	return nil
}
