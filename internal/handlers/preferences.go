package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alokkksharmaa/EduSphere/internal/middleware"
	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/service"
)

type preferencesRequest struct {
	Theme string `json:"theme" form:"theme" binding:"required"`
}

func (h HandlerSet) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	principal := middleware.CurrentPrincipal(c)
	theme := models.Theme(req.Theme)
	if err := h.preferences.SetTheme(c.Request.Context(), principal.ID, theme); err != nil {
		if errors.Is(err, service.ErrInvalidTheme) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_theme"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", principal.ID).Msg("update preferences failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": theme})
}
