package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/livestage-server/internal/core"
	"github.com/vovakirdan/livestage-server/internal/presence"
)

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// ViewerHandlers exposes the presence tracker.
type ViewerHandlers struct {
	tracker *presence.Tracker
	now     func() time.Time
	log     *zerolog.Logger
}

// NewViewerHandlers creates a new viewer handlers instance.
func NewViewerHandlers(tracker *presence.Tracker, logger *zerolog.Logger) *ViewerHandlers {
	return &ViewerHandlers{
		tracker: tracker,
		now:     time.Now,
		log:     logger,
	}
}

// ViewerUpdateRequest represents a join/leave signal.
type ViewerUpdateRequest struct {
	RoomName string `json:"roomName"`
	Action   string `json:"action"`
}

// ViewerResponse reports a room's count at response time.
type ViewerResponse struct {
	Viewers   int    `json:"viewers"`
	RoomName  string `json:"roomName"`
	Timestamp string `json:"timestamp"`
}

// UpdateViewers applies a join or leave signal.
// POST /api/viewers
func (h *ViewerHandlers) UpdateViewers(c *gin.Context) {
	var req ViewerUpdateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.log.Debug().Err(err).Msg("invalid viewers request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
		return
	}

	if err := core.RequireFields(
		core.Field{Name: "roomName", Value: req.RoomName},
		core.Field{Name: "action", Value: req.Action},
	); err != nil {
		respondError(c, h.log, err, msgMissingViewerField, map[string]string{
			"roomName": req.RoomName,
			"action":   req.Action,
		})
		return
	}

	count, applied := h.tracker.Apply(req.RoomName, presence.Action(req.Action))
	if !applied {
		h.log.Debug().Str("room", req.RoomName).Str("action", req.Action).Msg("ignoring unknown viewer action")
	} else {
		h.log.Debug().Str("room", req.RoomName).Str("action", req.Action).Int("viewers", count).Msg("viewers updated")
	}

	c.JSON(http.StatusOK, h.response(req.RoomName, count))
}

// GetViewers reports the current count; absent rooms have zero viewers.
// GET /api/viewers/:roomName
func (h *ViewerHandlers) GetViewers(c *gin.Context) {
	room := c.Param("roomName")
	c.JSON(http.StatusOK, h.response(room, h.tracker.Count(room)))
}

func (h *ViewerHandlers) response(room string, count int) ViewerResponse {
	return ViewerResponse{
		Viewers:   count,
		RoomName:  room,
		Timestamp: h.now().UTC().Format(timestampLayout),
	}
}
