package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/program-discovery/internal/model"
	"github.com/iliyamo/program-discovery/internal/queue"
	"github.com/iliyamo/program-discovery/internal/service"
)

// RefreshPublisher hands refresh requests to the workers.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, msg queue.DiscoveryRefreshRequested) error
}

// CacheInvalidator drops cached payloads of a page.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, slug string, modes ...model.Mode) ([]string, error)
}

// AdminHandler serves the ADMIN-only page maintenance endpoints.
type AdminHandler struct {
	Publisher RefreshPublisher
	Cache     CacheInvalidator
	Now       func() time.Time
}

func NewAdminHandler(p RefreshPublisher, cache CacheInvalidator) *AdminHandler {
	return &AdminHandler{Publisher: p, Cache: cache, Now: time.Now}
}

// RequestRefresh queues a forced refresh of a page: POST /v1/admin/pages/:slug/refresh?mode=
func (h *AdminHandler) RequestRefresh(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_slug"})
	}
	if h.Publisher == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "broker_unavailable"})
	}

	msg := queue.NewRefreshRequest(slug, modesParam(c), h.Now())
	if err := h.Publisher.PublishRefresh(c.Request().Context(), msg); err != nil {
		if errors.Is(err, service.ErrBrokerUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "broker_unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish_failed", "message": err.Error()})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"id": msg.ID, "slug": msg.Slug, "modes": msg.Modes})
}

// PurgeCache deletes the cached payloads a plain request for the page would
// hit: DELETE /v1/admin/pages/:slug/cache?mode=
func (h *AdminHandler) PurgeCache(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_slug"})
	}
	keys, err := h.Cache.Invalidate(c.Request().Context(), slug, modesParam(c)...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cache_error", "message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"slug": slug, "deleted": keys})
}

// modesParam reads ?mode=; empty means every mode.
func modesParam(c echo.Context) []model.Mode {
	if m := strings.TrimSpace(c.QueryParam("mode")); m != "" {
		return []model.Mode{model.ParseMode(m)}
	}
	return nil
}
