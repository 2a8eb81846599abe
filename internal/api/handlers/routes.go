package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"pathbuilder-service/internal/adapters/export"
	"pathbuilder-service/internal/api/dto"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/ports"
	"pathbuilder-service/internal/services"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteHandler serves the saved route library.
type RouteHandler struct {
	Library *services.RouteLibrary
	Logger  *zap.Logger
}

func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup) {
	routes := r.Group("/routes")
	{
		routes.GET("", h.List)
		routes.DELETE("", h.Clear)
		routes.GET("/stats", h.Stats)
		routes.GET("/events", h.Events)
		routes.GET("/:id", h.Get)
		routes.GET("/:id/gpx", h.GPX)
		routes.GET("/:id/geojson", h.GeoJSON)
		routes.DELETE("/:id", h.Delete)
	}
}

// List returns saved routes, newest first. Query parameters q, mode,
// difficulty and elevation narrow the list; list parameters may repeat or
// be comma separated.
func (h *RouteHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	routes, err := h.Library.List(c.Request.Context(), filter)
	if err != nil {
		writeInternal(c, h.logger(), err)
		return
	}

	res := dto.ListRouteResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, r := range routes {
		res.Routes = append(res.Routes, dto.NewRouteResponse(r))
	}
	c.JSON(http.StatusOK, res)
}

// Events streams the route list as server-sent events: the current list
// first, then a fresh one after every change. The same filters as List apply.
func (h *RouteHandler) Events(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	updates, err := h.Library.Observe(c.Request.Context())
	if err != nil {
		writeInternal(c, h.logger(), err)
		return
	}

	c.Stream(func(w io.Writer) bool {
		routes, ok := <-updates
		if !ok {
			return false
		}
		res := dto.ListRouteResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
		for _, r := range services.FilterRoutes(routes, filter) {
			res.Routes = append(res.Routes, dto.NewRouteResponse(r))
		}
		c.SSEvent("routes", res)
		return true
	})
}

func (h *RouteHandler) Stats(c *gin.Context) {
	st, err := h.Library.Stats(c.Request.Context())
	if err != nil {
		writeInternal(c, h.logger(), err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *RouteHandler) Get(c *gin.Context) {
	route, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) GPX(c *gin.Context) {
	route, ok := h.load(c)
	if !ok {
		return
	}
	out, err := export.ToGPX(route)
	if err != nil {
		writeInternal(c, h.logger(), err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="route-%d.gpx"`, route.ID))
	c.Data(http.StatusOK, "application/gpx+xml", out)
}

func (h *RouteHandler) GeoJSON(c *gin.Context) {
	route, ok := h.load(c)
	if !ok {
		return
	}
	out, err := export.ToGeoJSON(route)
	if err != nil {
		writeInternal(c, h.logger(), err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", out)
}

func (h *RouteHandler) Delete(c *gin.Context) {
	id, ok := parseRouteID(c)
	if !ok {
		return
	}
	if err := h.Library.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ports.ErrRouteNotFound) {
			writeError(c, http.StatusNotFound, "route not found")
			return
		}
		writeInternal(c, h.logger(), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RouteHandler) Clear(c *gin.Context) {
	if err := h.Library.Clear(c.Request.Context()); err != nil {
		writeInternal(c, h.logger(), err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RouteHandler) load(c *gin.Context) (domain.RouteRecord, bool) {
	id, ok := parseRouteID(c)
	if !ok {
		return domain.RouteRecord{}, false
	}
	route, err := h.Library.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrRouteNotFound) {
			writeError(c, http.StatusNotFound, "route not found")
			return domain.RouteRecord{}, false
		}
		writeInternal(c, h.logger(), err)
		return domain.RouteRecord{}, false
	}
	return route, true
}

func (h *RouteHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func parseFilter(c *gin.Context) (services.RouteFilter, error) {
	f := services.RouteFilter{Query: c.Query("q")}

	for _, v := range queryList(c, "mode") {
		m, err := domain.ParseTravelMode(v)
		if err != nil {
			return f, err
		}
		f.Modes = append(f.Modes, m)
	}
	for _, v := range queryList(c, "difficulty") {
		d, err := domain.ParseDifficulty(v)
		if err != nil {
			return f, err
		}
		f.Difficulties = append(f.Difficulties, d)
	}
	for _, v := range queryList(c, "elevation") {
		r, err := domain.ParseElevationRange(v)
		if err != nil {
			return f, err
		}
		f.ElevationRanges = append(f.ElevationRanges, r)
	}
	return f, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
