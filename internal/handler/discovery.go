package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/program-discovery/internal/discovery"
	"github.com/iliyamo/program-discovery/internal/model"
)

// EventsService is the cache-through pipeline.  *discovery.Service
// implements it.
type EventsService interface {
	GetDiscoveryEvents(ctx context.Context, req discovery.Request) (*discovery.FetchResult, error)
}

type DiscoveryHandler struct {
	Events EventsService
}

func NewDiscoveryHandler(events EventsService) *DiscoveryHandler {
	return &DiscoveryHandler{Events: events}
}

// ListEvents serves GET /v1/discovery/events and GET /v1/discovery/:slug/events.
//
// Query: slug, apiKey, orgIds (comma separated), facilityId, includePast,
// startDate, endDate (YYYY-MM-DD), mode (full|availability), forceFresh.
func (h *DiscoveryHandler) ListEvents(c echo.Context) error {
	req, msg := parseRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_parameter", "message": msg})
	}

	res, err := h.Events.GetDiscoveryEvents(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, discovery.ErrEventsUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"error":   "events_unavailable",
				"message": "events are temporarily unavailable",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
	}

	c.Response().Header().Set("X-Cache", string(res.CacheStatus))
	c.Response().Header().Set("X-Discovery-Mode", string(res.Context.Mode))
	return c.JSON(http.StatusOK, res.Payload)
}

// parseRequest maps query and path parameters onto a discovery.Request.  A
// non-empty message means the request is invalid.
func parseRequest(c echo.Context) (discovery.Request, string) {
	q := func(name string) string { return strings.TrimSpace(c.QueryParam(name)) }

	req := discovery.Request{
		Slug:            q("slug"),
		APIKey:          q("apiKey"),
		FacilityID:      q("facilityId"),
		StartDateFilter: q("startDate"),
		EndDateFilter:   q("endDate"),
		Mode:            model.ParseMode(q("mode")),
	}
	if s := strings.TrimSpace(c.Param("slug")); s != "" {
		req.Slug = s
	}
	if ids := q("orgIds"); ids != "" {
		req.OrgIDs = strings.Split(ids, ",")
	}

	for name, dst := range map[string]*bool{"includePast": &req.IncludePast, "forceFresh": &req.ForceFresh} {
		v := q(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, name + " must be a boolean"
		}
		*dst = b
	}
	for name, v := range map[string]string{"startDate": req.StartDateFilter, "endDate": req.EndDateFilter} {
		if v != "" && !discovery.ValidDate(v) {
			return req, name + " must be a YYYY-MM-DD date"
		}
	}
	if req.StartDateFilter != "" && req.EndDateFilter != "" && req.StartDateFilter > req.EndDateFilter {
		return req, "startDate is after endDate"
	}
	return req, ""
}
