package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alokkksharmaa/EduSphere/internal/config"
	"github.com/alokkksharmaa/EduSphere/internal/security"
)

// CookieJar writes the session and remember-me cookies. Both are host-only,
// HttpOnly and SameSite=Strict.
type CookieJar struct {
	SessionName  string
	RememberName string
	RememberTTL  time.Duration
	Secure       bool
}

func NewCookieJar(cfg *config.AppConfig) CookieJar {
	return CookieJar{
		SessionName:  cfg.Session.CookieName,
		RememberName: cfg.Remember.CookieName,
		RememberTTL:  cfg.Remember.TTL,
		Secure:       cfg.Session.SecureCookies,
	}
}

// set bypasses gin's SetCookie, which would query-escape the colon in the
// remember-me value.
func (j CookieJar) set(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   j.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// SetSession writes a browser-session cookie with no Max-Age.
func (j CookieJar) SetSession(c *gin.Context, id string) {
	j.set(c, j.SessionName, id, 0)
}

func (j CookieJar) ClearSession(c *gin.Context) {
	j.set(c, j.SessionName, "", -1)
}

func (j CookieJar) SetRemember(c *gin.Context, pair security.RememberPair) {
	j.set(c, j.RememberName, pair.String(), int(j.RememberTTL/time.Second))
}

func (j CookieJar) ClearRemember(c *gin.Context) {
	j.set(c, j.RememberName, "", -1)
}

func (j CookieJar) read(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}

func (j CookieJar) SessionID(c *gin.Context) string {
	return j.read(c, j.SessionName)
}

func (j CookieJar) RememberValue(c *gin.Context) string {
	return j.read(c, j.RememberName)
}
