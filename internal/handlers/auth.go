package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alokkksharmaa/EduSphere/internal/middleware"
	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/service"
)

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func principalResponse(p models.Principal) userResponse {
	return userResponse{ID: p.ID, Username: p.Username, Role: string(p.Role)}
}

// LoginForm hands an anonymous visitor the token the login form must post
// back. Visitors who are already signed in go home.
func (h HandlerSet) LoginForm(c *gin.Context) {
	if middleware.CurrentPrincipal(c).ID != 0 {
		c.Redirect(http.StatusSeeOther, h.cfg.HomePath)
		return
	}

	token, err := middleware.CSRFToken(c, h.gateway, h.jar)
	if err != nil {
		h.log.Error().Err(err).Msg("issue csrf token failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session_unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"csrf_token": token,
		"csrf_field": h.cfg.CSRF.FieldName,
	})
}

type loginRequest struct {
	Email      string `json:"email" form:"email" binding:"required"`
	Password   string `json:"password" form:"password" binding:"required"`
	RememberMe bool   `json:"remember_me" form:"-"`
}

func checked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if c.ContentType() != gin.MIMEJSON {
		req.RememberMe = checked(c.PostForm("remember_me"))
	}

	ctx := c.Request.Context()
	result, err := h.gateway.Login(ctx, middleware.CurrentSession(c), req.Email, req.Password, req.RememberMe)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_credentials",
				"message": "Invalid email or password",
			})
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	middleware.StartSession(c, h.jar, result.Session)
	if result.Remember != nil {
		h.jar.SetRemember(c, *result.Remember)
	}

	token, err := h.gateway.CSRFToken(ctx, result.Session)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", result.User.ID).Msg("issue csrf token after login failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       principalResponse(result.User.Principal()),
		"csrf_token": token,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	err := h.gateway.Logout(c.Request.Context(), middleware.CurrentSession(c), h.jar.RememberValue(c))
	middleware.EndSession(c, h.jar)
	if err != nil {
		h.log.Error().Err(err).Msg("logout incomplete")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout_incomplete"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) LogoutAll(c *gin.Context) {
	if _, err := h.gateway.LogoutEverywhere(c.Request.Context(), middleware.CurrentSession(c)); err != nil {
		h.log.Error().Err(err).Msg("logout everywhere failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}
	middleware.EndSession(c, h.jar)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	token, err := middleware.CSRFToken(c, h.gateway, h.jar)
	if err != nil {
		h.log.Error().Err(err).Msg("issue csrf token failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session_unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       principalResponse(middleware.CurrentPrincipal(c)),
		"csrf_token": token,
	})
}

func (h HandlerSet) CSRFToken(c *gin.Context) {
	token, err := middleware.CSRFToken(c, h.gateway, h.jar)
	if err != nil {
		h.log.Error().Err(err).Msg("issue csrf token failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}
