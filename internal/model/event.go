package model

import (
	"strings"
	"time"
)

// Mode selects which output record shape a request produces.
type Mode string

const (
	ModeFull         Mode = "full"
	ModeAvailability Mode = "availability"
)

// ParseMode maps a query value onto a Mode.  Anything that is not
// "availability" resolves to full.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeAvailability)) {
		return ModeAvailability
	}
	return ModeFull
}

// RegistrationStatus describes where today falls relative to a session's
// registration window.
type RegistrationStatus string

const (
	RegistrationNotOpenedYet RegistrationStatus = "not_opened_yet"
	RegistrationOpen         RegistrationStatus = "open"
	RegistrationClosed       RegistrationStatus = "closed"
)

// FullEvent is the display record used by the schedule view.
type FullEvent struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name,omitempty"`
	Start               time.Time          `json:"start"`
	End                 time.Time          `json:"end"`
	Timezone            string             `json:"timezone"`
	LocalDate           string             `json:"localDate"`
	OrganizationID      string             `json:"organizationId"`
	ProgramID           string             `json:"programId"`
	ProgramName         string             `json:"programName"`
	SessionID           string             `json:"sessionId"`
	SessionName         string             `json:"sessionName"`
	FacilityName        string             `json:"facilityName,omitempty"`
	SpaceName           string             `json:"spaceName,omitempty"`
	Sport               string             `json:"sport,omitempty"`
	Type                string             `json:"type,omitempty"`
	RegistrationURL     string             `json:"registrationUrl,omitempty"`
	RegistrationStatus  RegistrationStatus `json:"registrationStatus"`
	MaxParticipants     *int               `json:"maxParticipants,omitempty"`
	CurrentParticipants int                `json:"currentParticipants"`
	SpotsRemaining      *int               `json:"spotsRemaining,omitempty"`
	StartingPrice       *float64           `json:"startingPrice,omitempty"`
	MemberPrice         *float64           `json:"memberPrice,omitempty"`
	WaitlistEnabled     bool               `json:"waitlistEnabled"`
	WaitlistCount       int                `json:"waitlistCount"`
	IsSegmented         bool               `json:"isSegmented"`
	SegmentID           string             `json:"segmentId,omitempty"`
	SegmentName         string             `json:"segmentName,omitempty"`
}

// AvailabilityEvent is the light record polled by the schedule view to refresh
// capacity badges.  It deliberately carries no pricing or display text.
type AvailabilityEvent struct {
	ID                  string `json:"id"`
	SessionID           string `json:"sessionId"`
	MaxParticipants     *int   `json:"maxParticipants,omitempty"`
	CurrentParticipants int    `json:"currentParticipants"`
	SpotsRemaining      *int   `json:"spotsRemaining,omitempty"`
	WaitlistEnabled     bool   `json:"waitlistEnabled"`
	WaitlistCount       int    `json:"waitlistCount"`
	SegmentID           string `json:"segmentId,omitempty"`
}
