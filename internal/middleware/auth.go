package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/alokkksharmaa/EduSphere/internal/auth"
	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/session"
)

const (
	ctxSession   = "auth.session"
	ctxPrincipal = "auth.principal"
)

// Authenticate resolves the request principal before any handler runs and
// writes back whatever cookie changes the resolution asks for.
func Authenticate(gw *auth.Gateway, jar CookieJar, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := auth.Credentials{
			SessionID:      jar.SessionID(c),
			RememberCookie: jar.RememberValue(c),
		}

		res, err := gw.Resolve(c.Request.Context(), creds)

		switch {
		case res.Remember != nil:
			jar.SetRemember(c, *res.Remember)
		case res.ClearRemember:
			jar.ClearRemember(c)
		}

		switch {
		case res.Session != nil && res.Session.ID != creds.SessionID:
			jar.SetSession(c, res.Session.ID)
		case res.Session == nil && creds.SessionID != "" && res.Reason != auth.ReasonStoreUnavailable:
			jar.ClearSession(c)
		}

		if err != nil {
			log.Error().Err(err).
				Str("reason", res.Reason).
				Str("request_id", RequestIDFrom(c)).
				Msg("authentication failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication_unavailable"})
			return
		}

		setCurrent(c, res.Session)
		c.Next()
	}
}

func setCurrent(c *gin.Context, sess *session.Session) {
	c.Set(ctxSession, sess)
	c.Set(ctxPrincipal, sess.Principal())
}

// StartSession makes sess the request's session and sends its cookie. Used
// after login replaces the session id.
func StartSession(c *gin.Context, jar CookieJar, sess *session.Session) {
	jar.SetSession(c, sess.ID)
	setCurrent(c, sess)
}

// EndSession drops the request's session and both cookies.
func EndSession(c *gin.Context, jar CookieJar) {
	jar.ClearSession(c)
	jar.ClearRemember(c)
	setCurrent(c, nil)
}

// CurrentSession returns nil when the request has no session.
func CurrentSession(c *gin.Context) *session.Session {
	value, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := value.(*session.Session)
	return sess
}

// CurrentPrincipal returns the zero Principal for anonymous requests.
func CurrentPrincipal(c *gin.Context) models.Principal {
	value, ok := c.Get(ctxPrincipal)
	if !ok {
		return models.Principal{}
	}
	principal, _ := value.(models.Principal)
	return principal
}

// CSRFToken returns the anti-forgery token for the request, creating an
// anonymous session first when there is none.
func CSRFToken(c *gin.Context, gw *auth.Gateway, jar CookieJar) (string, error) {
	ctx := c.Request.Context()
	sess, created, err := gw.EnsureSession(ctx, CurrentSession(c))
	if err != nil {
		return "", err
	}
	if created {
		StartSession(c, jar, sess)
	}
	return gw.CSRFToken(ctx, sess)
}
