package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/repository"
	"github.com/alokkksharmaa/EduSphere/internal/security"
)

// Reason explains how a remember-me cookie was resolved.
type Reason string

const (
	ReasonNoCredential     Reason = "no_credential"
	ReasonMalformed        Reason = "malformed_credential"
	ReasonUnknownOrExpired Reason = "unknown_or_expired"
	ReasonMismatch         Reason = "authenticator_mismatch"
	ReasonConsumed         Reason = "token_consumed"
	ReasonStoreUnavailable Reason = "store_unavailable"
	ReasonRemembered       Reason = "remembered"
)

// Resumption is the outcome of redeeming a remember-me cookie. Only
// ReasonRemembered carries a user and a rotated pair.
type Resumption struct {
	User   models.User
	Pair   security.RememberPair
	Reason Reason
}

func (r Resumption) Authenticated() bool {
	return r.Reason == ReasonRemembered
}

// ClearCookie reports whether the presented cookie is dead and should be
// deleted from the client. A store outage keeps it for the next request.
func (r Resumption) ClearCookie() bool {
	switch r.Reason {
	case ReasonMalformed, ReasonUnknownOrExpired, ReasonMismatch, ReasonConsumed:
		return true
	}
	return false
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type RememberOptions struct {
	TTL              time.Duration
	RevokeOnMismatch bool
}

// RememberService runs the persistent-login state machine on top of the
// credential store.
type RememberService struct {
	creds *CredentialStore
	users UserReader
	opts  RememberOptions
	decoy *decoy
	log   zerolog.Logger
}

func NewRememberService(creds *CredentialStore, users UserReader, opts RememberOptions, log zerolog.Logger) *RememberService {
	return &RememberService{
		creds: creds,
		users: users,
		opts:  opts,
		decoy: &decoy{hasher: creds.hasher},
		log:   log,
	}
}

func (s *RememberService) TTL() time.Duration {
	return s.opts.TTL
}

// Remember issues a fresh pair for a user who just logged in.
func (s *RememberService) Remember(ctx context.Context, userID int64) (security.RememberPair, error) {
	return s.creds.Issue(ctx, userID, s.opts.TTL)
}

// Resume redeems cookie. Expected failures come back as a Resumption with a
// reason; the error is reserved for a rotation that could not be written.
func (s *RememberService) Resume(ctx context.Context, cookie string) (Resumption, error) {
	if cookie == "" {
		return Resumption{Reason: ReasonNoCredential}, nil
	}

	pair, err := security.ParseRememberCookie(cookie)
	if err != nil {
		return Resumption{Reason: ReasonMalformed}, nil
	}

	token, err := s.creds.Lookup(ctx, pair.Selector)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.decoy.burn(pair.Authenticator)
			return Resumption{Reason: ReasonUnknownOrExpired}, nil
		}
		s.log.Warn().Err(err).Msg("remember token lookup failed")
		return Resumption{Reason: ReasonStoreUnavailable}, nil
	}

	if !s.creds.Verify(token, pair.Authenticator) {
		if s.opts.RevokeOnMismatch {
			if _, err := s.creds.Revoke(ctx, pair.Selector); err != nil {
				s.log.Warn().Err(err).Int64("user_id", token.UserID).Msg("revoke mismatched remember token failed")
			}
		}
		s.log.Warn().Int64("user_id", token.UserID).Msg("remember token authenticator mismatch")
		return Resumption{Reason: ReasonMismatch}, nil
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = s.creds.Revoke(ctx, pair.Selector)
			return Resumption{Reason: ReasonUnknownOrExpired}, nil
		}
		s.log.Warn().Err(err).Int64("user_id", token.UserID).Msg("remember user lookup failed")
		return Resumption{Reason: ReasonStoreUnavailable}, nil
	}

	next, err := s.creds.Rotate(ctx, pair.Selector, user.ID, s.opts.TTL)
	if err != nil {
		if errors.Is(err, repository.ErrTokenConsumed) {
			s.log.Debug().Int64("user_id", user.ID).Msg("remember token consumed by a concurrent request")
			return Resumption{Reason: ReasonConsumed}, nil
		}
		return Resumption{}, fmt.Errorf("rotate remember token: %w", err)
	}

	return Resumption{User: user, Pair: next, Reason: ReasonRemembered}, nil
}

// Forget revokes the row behind cookie if the cookie still proves ownership
// of it. Unparseable or stale cookies are ignored.
func (s *RememberService) Forget(ctx context.Context, cookie string) error {
	pair, err := security.ParseRememberCookie(cookie)
	if err != nil {
		return nil
	}

	token, err := s.creds.Lookup(ctx, pair.Selector)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil
		}
		return err
	}
	if !s.creds.Verify(token, pair.Authenticator) {
		return nil
	}

	_, err = s.creds.Revoke(ctx, pair.Selector)
	return err
}

func (s *RememberService) ForgetAll(ctx context.Context, userID int64) (int64, error) {
	return s.creds.RevokeAll(ctx, userID)
}

func (s *RememberService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.creds.PurgeExpired(ctx)
}
