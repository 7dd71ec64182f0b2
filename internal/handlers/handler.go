package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/logger"
	"github.com/google/uuid"

	"github.com/ArowuTest/class-picker/internal/events"
	"github.com/ArowuTest/class-picker/internal/picker"
	"github.com/ArowuTest/class-picker/internal/store"
)

// Handler serves the /api/v1 routes.
type Handler struct {
	store    *store.GormStore
	picker   *picker.Service
	hub      *events.Hub
	validate *validator.Validate
}

func New(st *store.GormStore, svc *picker.Service, hub *events.Hub) *Handler {
	return &Handler{
		store:    st,
		picker:   svc,
		hub:      hub,
		validate: validator.New(),
	}
}

// Register mounts every route on api. Everything except health and login
// requires a valid admin token.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/health", h.Health)
	api.POST("/auth/login", h.Login)

	secured := api.Group("", RequireAuth())
	{
		secured.PUT("/me/password", h.ChangePassword)

		classrooms := secured.Group("/classrooms")
		{
			classrooms.GET("", h.ListClassrooms)
			classrooms.POST("", h.CreateClassroom)
			classrooms.GET("/:id", h.GetClassroom)
			classrooms.DELETE("/:id", h.DeleteClassroom)

			classrooms.GET("/:id/students", h.ListStudents)
			classrooms.POST("/:id/students", h.CreateStudent)
			classrooms.POST("/:id/students/import", h.ImportStudents)
			classrooms.POST("/:id/groups", h.CreateGroup)

			classrooms.POST("/:id/draw", h.ProposeDraw)
			classrooms.POST("/:id/draw/confirm", h.ConfirmDraw)
			classrooms.POST("/:id/reset-weights", h.ResetWeights)
			classrooms.GET("/:id/drawing-history", h.DrawingHistory)
			classrooms.GET("/:id/events", h.StreamEvents)
		}

		secured.PUT("/students/:id", h.UpdateStudent)
		secured.DELETE("/students/:id", h.DeleteStudent)

		secured.DELETE("/groups/:id", h.DeleteGroup)
		secured.POST("/groups/:id/students/:studentId", h.AddGroupMember)
		secured.DELETE("/groups/:id/students/:studentId", h.RemoveGroupMember)

		secured.GET("/settings/:key", h.GetSetting)
		secured.PUT("/settings", h.PutSetting)
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		logger.Errorf("health: database unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service and storage errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, picker.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, picker.ErrNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
