package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokkksharmaa/EduSphere/internal/auth"
	"github.com/alokkksharmaa/EduSphere/internal/config"
	"github.com/alokkksharmaa/EduSphere/internal/handlers"
	"github.com/alokkksharmaa/EduSphere/internal/metrics"
	"github.com/alokkksharmaa/EduSphere/internal/service"
	"github.com/alokkksharmaa/EduSphere/internal/session"
	"github.com/alokkksharmaa/EduSphere/internal/testutils"
)

func newTestServer(t *testing.T, withMetrics bool) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		HTTP:        config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		Session:     config.SessionConfig{CookieName: "edusphere_session", TTL: time.Hour, SecureCookies: true, KeyPrefix: "session:"},
		Remember:    config.RememberConfig{CookieName: "edusphere_remember", TTL: time.Hour, RevokeOnMismatch: true},
		CSRF:        config.CSRFConfig{FieldName: "csrf_token", HeaderName: "X-CSRF-Token"},
		LoginPath:   "/auth/login",
		HomePath:    "/dashboard",
	}

	client, _ := testutils.NewRedis(t)
	users := testutils.NewUserRepo()
	hasher := testutils.FastHasher()
	authService := service.NewAuthService(users, hasher, zerolog.Nop())
	remember := service.NewRememberService(
		service.NewCredentialStore(testutils.NewTokenRepo(), hasher),
		users,
		service.RememberOptions{TTL: cfg.Remember.TTL},
		zerolog.Nop(),
	)

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if withMetrics {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg, "edusphere")
		gatherer = reg
	}

	gw := auth.NewGateway(session.NewRedisStore(client, "session:", time.Hour), remember, authService, m, zerolog.Nop())
	hs := handlers.NewHandlerSet(zerolog.Nop(), cfg, gw, authService, service.NewPreferenceService(testutils.NewPreferenceRepo()), nil)

	return NewHTTPServer(cfg, zerolog.Nop(), hs, m, gatherer).Handler()
}

func TestServerExposesMetrics(t *testing.T) {
	h := newTestServer(t, true)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `edusphere_http_requests_total{method="GET",route="/api/csrf",status="200"} 1`)
	assert.Contains(t, body, `edusphere_auth_resolutions_total{reason="no_credential",status="anonymous"} 1`)
}

func TestServerWithoutMetrics(t *testing.T) {
	h := newTestServer(t, false)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
