package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ArowuTest/class-picker/internal/picker"
)

// drawRequest is the JSON payload for proposing a draw.
type drawRequest struct {
	Count      *int        `json:"count" binding:"required,gte=0"`
	StudentIDs []uuid.UUID `json:"student_ids,omitempty"`
	GroupID    *uuid.UUID  `json:"group_id,omitempty"`
}

type confirmRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids"`
}

// ProposeDraw handles POST /api/v1/classrooms/:id/draw
// The result is only a proposal; nothing is stored until it is confirmed.
func (h *Handler) ProposeDraw(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	drawn, err := h.picker.ProposeDraw(c.Request.Context(), classroomID, picker.DrawRequest{
		Count:      *req.Count,
		StudentIDs: req.StudentIDs,
		GroupID:    req.GroupID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": drawn})
}

// ConfirmDraw handles POST /api/v1/classrooms/:id/draw/confirm
func (h *Handler) ConfirmDraw(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	updated, err := h.picker.ConfirmDraw(c.Request.Context(), classroomID, req.StudentIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": updated})
}

// ResetWeights handles POST /api/v1/classrooms/:id/reset-weights
func (h *Handler) ResetWeights(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.picker.ResetClassroom(c.Request.Context(), classroomID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Weights and drawing history reset"})
}

// DrawingHistory handles GET /api/v1/classrooms/:id/drawing-history?limit=N
func (h *Handler) DrawingHistory(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	history, err := h.picker.History(c.Request.Context(), classroomID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
