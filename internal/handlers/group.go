package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ArowuTest/class-picker/internal/models"
)

type groupRequest struct {
	Name       string      `json:"name" binding:"required,max=100"`
	StudentIDs []uuid.UUID `json:"student_ids"`
}

// CreateGroup handles POST /api/v1/classrooms/:id/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetClassroom(ctx, classroomID); err != nil {
		respondError(c, err)
		return
	}

	if len(req.StudentIDs) > 0 {
		students, err := h.store.ListStudents(ctx, classroomID)
		if err != nil {
			respondError(c, err)
			return
		}
		members := make(map[uuid.UUID]bool, len(students))
		for _, s := range students {
			members[s.ID] = true
		}
		for _, id := range req.StudentIDs {
			if !members[id] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Student " + id.String() + " does not belong to this classroom"})
				return
			}
		}
	}

	group := models.Group{ClassroomID: classroomID, Name: req.Name}
	if err := h.store.CreateGroup(ctx, &group, req.StudentIDs); err != nil {
		respondError(c, err)
		return
	}
	created, err := h.store.GetGroup(ctx, group.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// DeleteGroup handles DELETE /api/v1/groups/:id
func (h *Handler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteGroup(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

// AddGroupMember handles POST /api/v1/groups/:id/students/:studentId
func (h *Handler) AddGroupMember(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	group, err := h.store.GetGroup(ctx, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	student, err := h.store.GetStudent(ctx, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if student.ClassroomID != group.ClassroomID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student and group belong to different classrooms"})
		return
	}

	if err := h.store.AddGroupMember(ctx, groupID, studentID); err != nil {
		respondError(c, err)
		return
	}
	h.respondGroup(c, groupID)
}

// RemoveGroupMember handles DELETE /api/v1/groups/:id/students/:studentId
func (h *Handler) RemoveGroupMember(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}
	if err := h.store.RemoveGroupMember(c.Request.Context(), groupID, studentID); err != nil {
		respondError(c, err)
		return
	}
	h.respondGroup(c, groupID)
}

func (h *Handler) respondGroup(c *gin.Context, id uuid.UUID) {
	group, err := h.store.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}
