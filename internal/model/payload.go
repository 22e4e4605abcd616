package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// CacheStatus tells a caller whether a payload came from the cache store.
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
)

// PayloadMeta describes how a payload was produced.  CachedAt is the time the
// payload was computed, not the time it was served.
type PayloadMeta struct {
	TotalEvents       int       `json:"totalEvents"`
	OrganizationCount int       `json:"organizationCount"`
	FetchDurationMs   int64     `json:"fetchDurationMs"`
	CachedAt          time.Time `json:"cachedAt"`
	Mode              Mode      `json:"mode"`
}

// EventsPayload is the unit stored in the cache and returned to callers.  Only
// the slice matching Meta.Mode is ever encoded, so a payload never mixes
// record shapes.
type EventsPayload struct {
	Full         []FullEvent
	Availability []AvailabilityEvent
	Meta         PayloadMeta
}

// Len returns the number of records for the payload's mode.
func (p *EventsPayload) Len() int {
	if p == nil {
		return 0
	}
	if p.Meta.Mode == ModeAvailability {
		return len(p.Availability)
	}
	return len(p.Full)
}

type payloadWire struct {
	Data json.RawMessage `json:"data"`
	Meta PayloadMeta     `json:"meta"`
}

// MarshalJSON encodes the payload as {"data": [...], "meta": {...}}.
func (p EventsPayload) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if p.Meta.Mode == ModeAvailability {
		items := p.Availability
		if items == nil {
			items = []AvailabilityEvent{}
		}
		data, err = json.Marshal(items)
	} else {
		items := p.Full
		if items == nil {
			items = []FullEvent{}
		}
		data, err = json.Marshal(items)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(payloadWire{Data: data, Meta: p.Meta})
}

// UnmarshalJSON decodes data into the slice selected by meta.mode.
func (p *EventsPayload) UnmarshalJSON(b []byte) error {
	var w payloadWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := EventsPayload{Meta: w.Meta}
	if out.Meta.Mode == "" {
		out.Meta.Mode = ModeFull
	}
	if len(w.Data) > 0 && string(w.Data) != "null" {
		var err error
		switch out.Meta.Mode {
		case ModeAvailability:
			err = json.Unmarshal(w.Data, &out.Availability)
		case ModeFull:
			err = json.Unmarshal(w.Data, &out.Full)
		default:
			return fmt.Errorf("unknown payload mode %q", out.Meta.Mode)
		}
		if err != nil {
			return fmt.Errorf("decode %s data: %w", out.Meta.Mode, err)
		}
	}
	*p = out
	return nil
}
