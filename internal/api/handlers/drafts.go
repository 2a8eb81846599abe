package handlers

import (
	"context"
	"io"
	"net/http"
	"pathbuilder-service/internal/api/dto"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/services"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DraftHandler exposes route composition over HTTP. Each draft is a
// Composer owned by Sessions.
type DraftHandler struct {
	Sessions *services.DraftSessions
	Logger   *zap.Logger
	// SettleTimeout bounds how long a command waits for routing before
	// answering with a still-calculating state.
	SettleTimeout time.Duration
}

func (h *DraftHandler) RegisterRoutes(r *gin.RouterGroup) {
	drafts := r.Group("/drafts")
	{
		drafts.POST("", h.Create)
		drafts.GET("/:id", h.withDraft(h.Get))
		drafts.DELETE("/:id", h.Discard)
		drafts.GET("/:id/events", h.withDraft(h.Events))
		drafts.PUT("/:id/mode", h.withDraft(h.SetMode))
		drafts.PUT("/:id/name", h.withDraft(h.UpdateName))
		drafts.POST("/:id/manual", h.withDraft(h.ToggleManual))
		drafts.POST("/:id/layer", h.withDraft(h.ToggleLayer))
		drafts.POST("/:id/waypoints", h.withDraft(h.AddWaypoint))
		drafts.POST("/:id/undo", h.withDraft(h.Undo))
		drafts.POST("/:id/redo", h.withDraft(h.Redo))
		drafts.POST("/:id/reset", h.withDraft(h.Reset))
		drafts.POST("/:id/save", h.withDraft(h.Save))
	}
}

type draftFunc func(c *gin.Context, id uuid.UUID, draft *services.Composer)

func (h *DraftHandler) withDraft(next draftFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid draft id")
			return
		}
		draft, ok := h.Sessions.Get(id)
		if !ok {
			writeError(c, http.StatusNotFound, "draft not found")
			return
		}
		next(c, id, draft)
	}
}

func (h *DraftHandler) Create(c *gin.Context) {
	id, draft := h.Sessions.Create()
	c.JSON(http.StatusCreated, dto.DraftResponse{
		ID:    id.String(),
		State: dto.NewDraftStateResponse(draft.State()),
	})
}

func (h *DraftHandler) Get(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	h.respond(c, id, draft)
}

func (h *DraftHandler) Discard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid draft id")
		return
	}
	if !h.Sessions.Discard(id) {
		writeError(c, http.StatusNotFound, "draft not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// Events streams draft snapshots as server-sent events until the client
// disconnects or the draft is discarded.
func (h *DraftHandler) Events(c *gin.Context, _ uuid.UUID, draft *services.Composer) {
	updates, cancel := draft.Subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case s, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("state", dto.NewDraftStateResponse(s))
			return true
		}
	})
}

func (h *DraftHandler) SetMode(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	var req dto.ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := domain.ParseTravelMode(req.Mode)
	if err != nil {
		writeError(c, http.StatusBadRequest, "mode must be walk or drive")
		return
	}

	draft.SetMode(mode)
	h.settleAndRespond(c, id, draft)
}

func (h *DraftHandler) UpdateName(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	var req dto.NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	draft.UpdateName(*req.Name)
	h.respond(c, id, draft)
}

func (h *DraftHandler) ToggleManual(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	draft.ToggleManualMode()
	h.settleAndRespond(c, id, draft)
}

func (h *DraftHandler) ToggleLayer(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	draft.ToggleLayer()
	h.respond(c, id, draft)
}

// AddWaypoint places a pin. Pins are refused until a travel mode is chosen.
func (h *DraftHandler) AddWaypoint(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	if draft.AwaitingModeSelection() {
		writeError(c, http.StatusConflict, "select a travel mode first")
		return
	}

	var req dto.WaypointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 {
		writeError(c, http.StatusBadRequest, "latitude must be between -90 and 90")
		return
	}
	if *req.Longitude < -180 || *req.Longitude > 180 {
		writeError(c, http.StatusBadRequest, "longitude must be between -180 and 180")
		return
	}

	draft.AddWaypoint(domain.Waypoint{
		Latitude:      *req.Latitude,
		Longitude:     *req.Longitude,
		ElevationFeet: req.ElevationFeet,
	})
	h.settleAndRespond(c, id, draft)
}

func (h *DraftHandler) Undo(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	draft.Undo()
	h.respond(c, id, draft)
}

func (h *DraftHandler) Redo(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	draft.Redo()
	h.respond(c, id, draft)
}

func (h *DraftHandler) Reset(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	draft.Reset()
	h.respond(c, id, draft)
}

// Save answers 201 with the stored route, or 200 with saved=false when the
// draft has no name or no waypoints.
func (h *DraftHandler) Save(c *gin.Context, _ uuid.UUID, draft *services.Composer) {
	record, saved, err := draft.Save(c.Request.Context())
	if err != nil {
		writeInternal(c, h.logger(), err)
		return
	}

	res := dto.SaveResponse{Saved: saved, State: dto.NewDraftStateResponse(draft.State())}
	if !saved {
		c.JSON(http.StatusOK, res)
		return
	}
	route := dto.NewRouteResponse(record)
	res.Route = &route
	c.JSON(http.StatusCreated, res)
}

func (h *DraftHandler) settleAndRespond(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	ctx := c.Request.Context()
	if h.SettleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.SettleTimeout)
		defer cancel()
	}
	if err := draft.Wait(ctx); err != nil {
		h.logger().Debug("responding before routing settled", zap.String("draft_id", id.String()), zap.Error(err))
	}
	h.respond(c, id, draft)
}

func (h *DraftHandler) respond(c *gin.Context, id uuid.UUID, draft *services.Composer) {
	c.JSON(http.StatusOK, dto.DraftResponse{
		ID:    id.String(),
		State: dto.NewDraftStateResponse(draft.State()),
	})
}

func (h *DraftHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
