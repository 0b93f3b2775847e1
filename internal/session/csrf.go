package session

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/alokkksharmaa/EduSphere/internal/security"
)

var ErrNoSession = errors.New("csrf token requires a session")

// CSRFGuard hands out one anti-forgery secret per session and checks
// submitted tokens against it.
type CSRFGuard struct {
	store Store
}

func NewCSRFGuard(store Store) *CSRFGuard {
	return &CSRFGuard{store: store}
}

// TokenFor returns the session's secret, creating it on first use. Concurrent
// first calls for one session converge on a single stored value.
func (g *CSRFGuard) TokenFor(ctx context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", ErrNoSession
	}
	if sess.CSRFSecret != "" {
		return sess.CSRFSecret, nil
	}

	candidate, err := security.RandomHex(security.CSRFSecretBytes)
	if err != nil {
		return "", err
	}
	secret, err := g.store.SetCSRFSecretIfAbsent(ctx, sess.ID, candidate)
	if err != nil {
		return "", err
	}
	sess.CSRFSecret = secret
	return secret, nil
}

func (g *CSRFGuard) Verify(sess *Session, submitted string) bool {
	if sess == nil || sess.CSRFSecret == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFSecret), []byte(submitted)) == 1
}
