package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/class-picker/internal/models"
)

type settingRequest struct {
	Key   string `json:"key" binding:"required,max=64"`
	Value string `json:"value" binding:"required"`
}

// GetSetting handles GET /api/v1/settings/:key
func (h *Handler) GetSetting(c *gin.Context) {
	setting, err := h.store.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// PutSetting handles PUT /api/v1/settings
func (h *Handler) PutSetting(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	if req.Key == models.SettingNumSlotMachines {
		if n, err := strconv.Atoi(req.Value); err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": models.SettingNumSlotMachines + " must be a positive integer"})
			return
		}
	}

	setting := models.Setting{Key: req.Key, Value: req.Value}
	if err := h.store.UpsertSetting(c.Request.Context(), &setting); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}
