package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/class-picker/internal/models"
	"github.com/ArowuTest/class-picker/internal/picker"
)

type classroomRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// ListClassrooms handles GET /api/v1/classrooms
func (h *Handler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.store.ListClassrooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if classrooms == nil {
		classrooms = []models.Classroom{}
	}
	for i := range classrooms {
		classrooms[i].Students = picker.WithProbabilities(classrooms[i].Students)
	}
	c.JSON(http.StatusOK, classrooms)
}

// CreateClassroom handles POST /api/v1/classrooms
func (h *Handler) CreateClassroom(c *gin.Context) {
	var req classroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	classroom := models.Classroom{Name: req.Name}
	if err := h.store.CreateClassroom(c.Request.Context(), &classroom); err != nil {
		respondError(c, err)
		return
	}
	classroom.Students = []models.Student{}
	classroom.Groups = []models.Group{}
	c.JSON(http.StatusCreated, classroom)
}

// GetClassroom handles GET /api/v1/classrooms/:id
func (h *Handler) GetClassroom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	classroom, err := h.store.GetClassroomDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	classroom.Students = picker.WithProbabilities(classroom.Students)
	c.JSON(http.StatusOK, classroom)
}

// DeleteClassroom handles DELETE /api/v1/classrooms/:id
func (h *Handler) DeleteClassroom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteClassroom(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Classroom deleted"})
}
