package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/miochat-server/internal/proto"
)

// RoomHandlers serves read-only views of room state.
type RoomHandlers struct {
	hub Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryResponse lists a room's retained messages, oldest first.
type HistoryResponse struct {
	Room     string               `json:"room"`
	Messages []proto.EventMessage `json:"messages"`
}

// RoomSummary describes one room with live members.
type RoomSummary struct {
	Name     string `json:"name"`
	Users    int    `json:"users"`
	Messages int    `json:"messages"`
}

// List returns the rooms that currently have members.
// GET /api/rooms
func (h *RoomHandlers) List(c *gin.Context) {
	rooms := h.hub.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomSummary{Name: r.Name, Users: r.Users, Messages: r.Messages})
	}
	c.JSON(http.StatusOK, out)
}

// Users returns the room roster.
// GET /api/rooms/:room/users
func (h *RoomHandlers) Users(c *gin.Context) {
	room, ok := h.roomParam(c)
	if !ok {
		return
	}
	users := h.hub.Roster(room)
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, proto.EventRoomUsers{Room: room, Users: users})
}

// History returns the room's retained messages with current reactions.
// GET /api/rooms/:room/history
func (h *RoomHandlers) History(c *gin.Context) {
	room, ok := h.roomParam(c)
	if !ok {
		return
	}
	msgs := h.hub.History(room)
	out := make([]proto.EventMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, messageToProto(msg))
	}
	c.JSON(http.StatusOK, HistoryResponse{Room: room, Messages: out})
}

func (h *RoomHandlers) roomParam(c *gin.Context) (string, bool) {
	room := strings.TrimSpace(c.Param("room"))
	if room == "" {
		h.log.Debug().Msg("room parameter missing")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is required"})
		return "", false
	}
	return room, true
}
