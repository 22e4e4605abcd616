package model

import "time"

// Program is a bookable offering of an organization as exposed by the upstream
// catalog after normalization.  A program owns one or more sessions.
//
// Fields:
//  ID             – catalog identifier of the program.
//  OrganizationID – tenant the program belongs to.
//  Name           – display name.
//  Sport, Type    – free-form tags used by the discovery filters.
//  FacilityID     – facility the program is run at, when the catalog says so.
//  Sessions       – sessions expanded in the same catalog call.
type Program struct {
	ID             string
	OrganizationID string
	Name           string
	Sport          string
	Type           string
	FacilityID     string
	Sessions       []Session
}

// Session is a scheduled run of a program.  When IsSegmented is true its events
// live under segments instead of directly under the session.
type Session struct {
	ID                string
	ProgramID         string
	Name              string
	Timezone          string     // IANA name, may be empty
	StartDate         *time.Time // first day of the session
	EndDate           *time.Time // last day of the session
	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
	IsSegmented       bool
	FacilityID        string
	FacilityName      string
	SpaceName         string
	RegistrationURL   string
	Products          []Product
}

// Product is something a visitor can buy to join a session.
type Product struct {
	ID                 string
	Name               string
	Prices             []float64
	MembershipRequired bool
	IsMemberProduct    bool
}

// IsMember reports whether the product is reserved to members.
func (p Product) IsMember() bool {
	return p.MembershipRequired || p.IsMemberProduct
}

// LowestPrice returns the smallest price attached to the product.
func (p Product) LowestPrice() (float64, bool) {
	if len(p.Prices) == 0 {
		return 0, false
	}
	low := p.Prices[0]
	for _, v := range p.Prices[1:] {
		if v < low {
			low = v
		}
	}
	return low, true
}

// Segment is a slice of a segmented session (e.g. one week of a camp).
type Segment struct {
	ID   string
	Name string
}

// RawEvent is one calendar occurrence as returned by the catalog.  Start and End
// are instants; Timezone (when present) decides which local day they fall on.
type RawEvent struct {
	ID                  string
	Name                string
	Start               time.Time
	End                 time.Time
	Timezone            string
	FacilityName        string
	SpaceName           string
	MaxParticipants     *int
	CurrentParticipants int
	WaitlistEnabled     bool
	WaitlistCount       int
}
