package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString decodes JSON strings and numbers alike; the catalog is not
// consistent about id types across endpoints.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexFloat decodes prices sent either as numbers or numeric strings.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = flexFloat{}
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = flexFloat{}
		return nil
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}

// list decodes nested collections that arrive either bare ([...]) or
// wrapped ({"data": [...]}).
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Data
	return nil
}

type namedRef struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
}

// RawProgram is a program exactly as the catalog returns it, with sessions,
// products and prices expanded.  Run it through NormalizeProgram before use.
type RawProgram struct {
	ID             flexString       `json:"id"`
	OrganizationID flexString       `json:"organizationId"`
	Name           string           `json:"name"`
	Sport          string           `json:"sport"`
	Type           string           `json:"type"`
	FacilityID     flexString       `json:"facilityId"`
	Sessions       list[rawSession] `json:"sessions"`
}

type rawSession struct {
	ID                    flexString       `json:"id"`
	Name                  string           `json:"name"`
	Timezone              string           `json:"timezone"`
	StartDate             string           `json:"startDate"`
	EndDate               string           `json:"endDate"`
	RegistrationStartDate string           `json:"registrationStartDate"`
	RegistrationEndDate   string           `json:"registrationEndDate"`
	IsSegmented           bool             `json:"isSegmented"`
	FacilityID            flexString       `json:"facilityId"`
	Facility              *namedRef        `json:"facility"`
	Space                 *namedRef        `json:"space"`
	RegistrationURL       string           `json:"registrationUrl"`
	Products              list[rawProduct] `json:"products"`
}

type rawProduct struct {
	ID                 flexString     `json:"id"`
	Name               string         `json:"name"`
	MembershipRequired bool           `json:"membershipRequired"`
	IsMemberProduct    bool           `json:"isMemberProduct"`
	Prices             list[rawPrice] `json:"prices"`
}

type rawPrice struct {
	Price flexFloat `json:"price"`
}

type rawEvent struct {
	ID                  flexString `json:"id"`
	Name                string     `json:"title"`
	StartDate           string     `json:"startDate"`
	EndDate             string     `json:"endDate"`
	Timezone            string     `json:"timezone"`
	Facility            *namedRef  `json:"facility"`
	Space               *namedRef  `json:"space"`
	MaxParticipants     *int       `json:"maxParticipants"`
	CurrentParticipants int        `json:"participantsNumber"`
	WaitlistEnabled     bool       `json:"isWaitlistEnabled"`
	WaitlistCount       int        `json:"waitlistCount"`
}

type rawSegment struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
}
