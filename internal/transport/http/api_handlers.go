package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirerelay/internal/core"
)

// APIHandlers exposes read-only views of the hub.
type APIHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomResponse represents a live room in API responses.
type RoomResponse struct {
	Name    string  `json:"name"`
	Members []int64 `json:"members"`
}

// StatsResponse summarizes hub state.
type StatsResponse struct {
	Rooms    int `json:"rooms"`
	Sessions int `json:"sessions"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListRooms returns every live room with its members in join order.
// GET /api/rooms
func (h *APIHandlers) ListRooms(c *gin.Context) {
	st, ok := h.stats(c)
	if !ok {
		return
	}

	response := make([]RoomResponse, 0, len(st.Rooms))
	for _, room := range st.Rooms {
		members := make([]int64, 0, len(room.Members))
		for _, id := range room.Members {
			members = append(members, int64(id))
		}
		response = append(response, RoomResponse{Name: room.Name, Members: members})
	}
	c.JSON(http.StatusOK, response)
}

// Stats returns room and session counts.
// GET /api/stats
func (h *APIHandlers) Stats(c *gin.Context) {
	st, ok := h.stats(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Rooms: len(st.Rooms), Sessions: st.Sessions})
}

func (h *APIHandlers) stats(c *gin.Context) (core.Stats, bool) {
	st, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		if errors.Is(err, core.ErrHubStopped) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "shutting down"})
			return core.Stats{}, false
		}
		h.log.Error().Err(err).Msg("failed to read hub stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return core.Stats{}, false
	}
	return st, true
}
