package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/alokkksharmaa/EduSphere/internal/auth"
	"github.com/alokkksharmaa/EduSphere/internal/config"
)

func newReadCloser(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

// CSRF rejects unsafe requests whose anti-forgery token does not match the
// session secret. It must run after Authenticate and before any handler
// that changes state.
func CSRF(gw *auth.Gateway, cfg config.CSRFConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		token, ok := submittedToken(c, cfg)
		if !ok || !gw.VerifyCSRF(CurrentSession(c), token) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "invalid_form_submission",
				"message": "Invalid or expired form submission. Please retry.",
			})
			return
		}

		c.Next()
	}
}

// submittedToken looks at the header, then a JSON body, then form fields.
// A JSON body is restored so the handler can bind it again.
func submittedToken(c *gin.Context, cfg config.CSRFConfig) (string, bool) {
	if token := c.GetHeader(cfg.HeaderName); token != "" {
		return token, true
	}

	if strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
		raw, err := c.GetRawData()
		if err != nil {
			return "", false
		}
		c.Request.Body = newReadCloser(raw)

		var payload map[string]any
		if len(raw) == 0 || binding.JSON.BindBody(raw, &payload) != nil {
			return "", false
		}
		token, _ := payload[cfg.FieldName].(string)
		return token, token != ""
	}

	token := c.PostForm(cfg.FieldName)
	return token, token != ""
}
