// Package auth resolves the principal behind each request from its session
// and remember-me cookies and guards state-changing requests against
// cross-site forgery.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alokkksharmaa/EduSphere/internal/metrics"
	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/security"
	"github.com/alokkksharmaa/EduSphere/internal/service"
	"github.com/alokkksharmaa/EduSphere/internal/session"
)

const tracerName = "github.com/alokkksharmaa/EduSphere/internal/auth"

type Status string

const (
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Resolution reasons that do not come from the remember-me service.
const (
	ReasonSession            = "session"
	ReasonNoCredential       = "no_credential"
	ReasonStoreUnavailable   = "store_unavailable"
	ReasonRotationFailed     = "rotation_failed"
	ReasonSessionUnavailable = "session_unavailable"
)

// Credentials are the raw cookie values presented by a request.
type Credentials struct {
	SessionID      string
	RememberCookie string
}

// Resolution tells the transport who the request belongs to and which
// cookies to write back.
type Resolution struct {
	Status    Status
	Reason    string
	Principal models.Principal
	// Session is the live session for the request. It can be an anonymous
	// session, or nil when the request has none.
	Session *session.Session
	// Remember is a freshly rotated pair that must replace the client's cookie.
	Remember      *security.RememberPair
	ClearRemember bool
}

func (r Resolution) Authenticated() bool {
	return r.Status == StatusAuthenticated
}

// Remembering is implemented by *service.RememberService.
type Remembering interface {
	Remember(ctx context.Context, userID int64) (security.RememberPair, error)
	Resume(ctx context.Context, cookie string) (service.Resumption, error)
	Forget(ctx context.Context, cookie string) error
	ForgetAll(ctx context.Context, userID int64) (int64, error)
	TTL() time.Duration
}

// PasswordChecker is implemented by *service.AuthService.
type PasswordChecker interface {
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

type Gateway struct {
	sessions session.Store
	csrf     *session.CSRFGuard
	remember Remembering
	users    PasswordChecker
	metrics  *metrics.Metrics
	log      zerolog.Logger
	tracer   trace.Tracer
}

func NewGateway(sessions session.Store, remember Remembering, users PasswordChecker, m *metrics.Metrics, log zerolog.Logger) *Gateway {
	return &Gateway{
		sessions: sessions,
		csrf:     session.NewCSRFGuard(sessions),
		remember: remember,
		users:    users,
		metrics:  m,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
}

func (g *Gateway) RememberTTL() time.Duration {
	return g.remember.TTL()
}

// Resolve tries the session first and falls back to the remember-me cookie.
// A non-nil error means a credential write failed; the Resolution is still
// meaningful and may carry a rotated pair the client must receive.
func (g *Gateway) Resolve(ctx context.Context, creds Credentials) (Resolution, error) {
	ctx, span := g.tracer.Start(ctx, "auth.Resolve")
	defer span.End()

	res, err := g.resolve(ctx, creds)

	span.SetAttributes(
		attribute.String("auth.status", string(res.Status)),
		attribute.String("auth.reason", res.Reason),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
	}
	g.metrics.Resolution(string(res.Status), res.Reason)
	return res, err
}

func (g *Gateway) resolve(ctx context.Context, creds Credentials) (Resolution, error) {
	var current *session.Session
	if creds.SessionID != "" {
		sess, err := g.sessions.Load(ctx, creds.SessionID)
		switch {
		case err == nil:
			if sess.Authenticated() {
				return Resolution{
					Status:    StatusAuthenticated,
					Reason:    ReasonSession,
					Principal: sess.Principal(),
					Session:   sess,
				}, nil
			}
			current = sess
		case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrInvalidID):
			// stale cookie, try remember-me
		default:
			g.log.Warn().Err(err).Msg("session load failed")
			return Resolution{Status: StatusAnonymous, Reason: ReasonStoreUnavailable}, nil
		}
	}

	anonymous := Resolution{Status: StatusAnonymous, Reason: ReasonNoCredential, Session: current}
	if creds.RememberCookie == "" {
		return anonymous, nil
	}

	resumed, err := g.remember.Resume(ctx, creds.RememberCookie)
	if err != nil {
		anonymous.Reason = ReasonRotationFailed
		return anonymous, err
	}
	if !resumed.Authenticated() {
		anonymous.Reason = string(resumed.Reason)
		anonymous.ClearRemember = resumed.ClearCookie()
		g.log.Debug().Str("reason", anonymous.Reason).Msg("remember-me cookie rejected")
		return anonymous, nil
	}
	g.metrics.Rotated()

	pair := resumed.Pair
	sess, err := g.establish(ctx, current, resumed.User)
	if err != nil {
		anonymous.Reason = ReasonSessionUnavailable
		anonymous.Remember = &pair
		return anonymous, fmt.Errorf("establish remembered session: %w", err)
	}

	g.log.Debug().Int64("user_id", resumed.User.ID).Msg("session restored from remember-me cookie")
	return Resolution{
		Status:    StatusAuthenticated,
		Reason:    string(resumed.Reason),
		Principal: sess.Principal(),
		Session:   sess,
		Remember:  &pair,
	}, nil
}

// establish always mints a new session id for user and drops prev.
func (g *Gateway) establish(ctx context.Context, prev *session.Session, user models.User) (*session.Session, error) {
	sess, err := g.sessions.New()
	if err != nil {
		return nil, err
	}
	sess.UserID = user.ID
	sess.Username = user.Username
	sess.Role = user.Role

	if err := g.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	if prev != nil && prev.ID != "" {
		if err := g.sessions.Destroy(ctx, prev.ID); err != nil {
			g.log.Warn().Err(err).Msg("destroy previous session failed")
		}
	}
	return sess, nil
}

type LoginResult struct {
	User     models.User
	Session  *session.Session
	Remember *security.RememberPair
}

// Login checks the password and starts a new session. Unknown emails and
// wrong passwords both surface as service.ErrInvalidCredentials.
func (g *Gateway) Login(ctx context.Context, prev *session.Session, email, password string, remember bool) (LoginResult, error) {
	ctx, span := g.tracer.Start(ctx, "auth.Login")
	defer span.End()

	user, err := g.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			g.metrics.Login("failure")
			span.SetAttributes(attribute.Bool("auth.success", false))
			return LoginResult{}, err
		}
		g.metrics.Login("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "authenticate failed")
		return LoginResult{}, err
	}

	sess, err := g.establish(ctx, prev, user)
	if err != nil {
		g.metrics.Login("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "establish session failed")
		return LoginResult{}, fmt.Errorf("establish session: %w", err)
	}

	result := LoginResult{User: user, Session: sess}
	if remember {
		pair, err := g.remember.Remember(ctx, user.ID)
		if err != nil {
			g.metrics.Login("error")
			span.RecordError(err)
			span.SetStatus(codes.Error, "issue remember token failed")
			return LoginResult{}, fmt.Errorf("issue remember token: %w", err)
		}
		result.Remember = &pair
	}

	g.metrics.Login("success")
	span.SetAttributes(attribute.Bool("auth.success", true), attribute.Bool("auth.remember", remember))
	g.log.Info().Int64("user_id", user.ID).Bool("remember", remember).Msg("user logged in")
	return result, nil
}

// Logout destroys sess and revokes the row behind rememberCookie.
func (g *Gateway) Logout(ctx context.Context, sess *session.Session, rememberCookie string) error {
	var errs []error
	if sess != nil {
		if err := g.sessions.Destroy(ctx, sess.ID); err != nil && !errors.Is(err, session.ErrInvalidID) {
			errs = append(errs, err)
		}
	}
	if rememberCookie != "" {
		if err := g.remember.Forget(ctx, rememberCookie); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogoutEverywhere revokes every remember-me row of the session's user and
// ends the current session.
func (g *Gateway) LogoutEverywhere(ctx context.Context, sess *session.Session) (int64, error) {
	if !sess.Authenticated() {
		return 0, session.ErrSessionNotFound
	}
	n, err := g.remember.ForgetAll(ctx, sess.UserID)
	if err != nil {
		return 0, err
	}
	if err := g.sessions.Destroy(ctx, sess.ID); err != nil {
		return n, err
	}
	g.log.Info().Int64("user_id", sess.UserID).Int64("revoked", n).Msg("logged out everywhere")
	return n, nil
}

// EnsureSession returns sess, or a new saved anonymous session when sess is
// nil. created reports whether the session cookie must be written.
func (g *Gateway) EnsureSession(ctx context.Context, sess *session.Session) (_ *session.Session, created bool, _ error) {
	if sess != nil {
		return sess, false, nil
	}
	fresh, err := g.sessions.New()
	if err != nil {
		return nil, false, err
	}
	if err := g.sessions.Save(ctx, fresh); err != nil {
		return nil, false, err
	}
	return fresh, true, nil
}

func (g *Gateway) CSRFToken(ctx context.Context, sess *session.Session) (string, error) {
	return g.csrf.TokenFor(ctx, sess)
}

func (g *Gateway) VerifyCSRF(sess *session.Session, token string) bool {
	if g.csrf.Verify(sess, token) {
		return true
	}
	g.metrics.CSRFRejected()
	return false
}
