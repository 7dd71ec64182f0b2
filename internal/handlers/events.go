package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
)

// StreamEvents handles GET /api/v1/classrooms/:id/events as a server-sent
// event stream of draw_confirmed and classroom_reset events.
func (h *Handler) StreamEvents(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetClassroom(c.Request.Context(), classroomID); err != nil {
		respondError(c, err)
		return
	}

	sub := h.hub.Subscribe(classroomID)
	defer h.hub.Unsubscribe(sub)

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-sub.Chan():
			if !ok {
				return false
			}
			c.SSEvent(evt.Type, evt)
			return true
		case <-done:
			return false
		}
	})
}
