package handlers

import (
	"net/http"

	"grant-governance/internal/services"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// ListEvents returns recorded governance events, oldest first
// GET /api/events?name=VoteCast&limit=50
func (h *EventHandler) ListEvents(c *gin.Context) {
	limit, _ := pagination(c)

	events, err := h.eventService.ListEvents(c.Request.Context(), c.Query("name"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}
