// Package session keeps server-side sessions in Redis and issues the
// per-session anti-forgery secret.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidID       = errors.New("invalid session id")
)

// Session is the server-side record addressed by the session cookie. A zero
// UserID marks an anonymous session.
type Session struct {
	ID         string
	UserID     int64
	Username   string
	Role       models.UserRole
	CSRFSecret string
	CreatedAt  time.Time
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

func (s *Session) Principal() models.Principal {
	if !s.Authenticated() {
		return models.Principal{}
	}
	return models.Principal{ID: s.UserID, Username: s.Username, Role: s.Role}
}

// Store is the session backend the gateway depends on.
type Store interface {
	New() (*Session, error)
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Destroy(ctx context.Context, id string) error
	// SetCSRFSecretIfAbsent stores candidate unless the session already has a
	// secret and returns whichever secret is stored afterwards.
	SetCSRFSecretIfAbsent(ctx context.Context, id, candidate string) (string, error)
}
