package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alokkksharmaa/EduSphere/internal/ids"
	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/repository"
	"github.com/alokkksharmaa/EduSphere/internal/security"
)

// Hasher is implemented by *security.PasswordHasher.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
	NeedsRehash(digest string) bool
}

type TokenRepository interface {
	Insert(ctx context.Context, token models.RememberToken) error
	FindActiveBySelector(ctx context.Context, selector string) (models.RememberToken, error)
	DeleteBySelector(ctx context.Context, selector string) (bool, error)
	Rotate(ctx context.Context, oldSelector string, next models.RememberToken) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// CredentialStore issues and consumes remember-me pairs. The clear-text
// authenticator leaves this type only inside the returned pair.
type CredentialStore struct {
	tokens TokenRepository
	hasher Hasher
	now    func() time.Time
}

func NewCredentialStore(tokens TokenRepository, hasher Hasher) *CredentialStore {
	return &CredentialStore{tokens: tokens, hasher: hasher, now: time.Now}
}

func (s *CredentialStore) Issue(ctx context.Context, userID int64, ttl time.Duration) (security.RememberPair, error) {
	pair, row, err := s.newCredential(userID, ttl)
	if err != nil {
		return security.RememberPair{}, err
	}
	if err := s.tokens.Insert(ctx, row); err != nil {
		return security.RememberPair{}, fmt.Errorf("store remember token: %w", err)
	}
	return pair, nil
}

// Lookup returns repository.ErrTokenNotFound for unknown and expired selectors alike.
func (s *CredentialStore) Lookup(ctx context.Context, selector string) (models.RememberToken, error) {
	token, err := s.tokens.FindActiveBySelector(ctx, selector)
	if err != nil {
		return models.RememberToken{}, err
	}
	if token.Expired(s.now()) {
		return models.RememberToken{}, repository.ErrTokenNotFound
	}
	return token, nil
}

func (s *CredentialStore) Verify(token models.RememberToken, authenticator string) bool {
	return s.hasher.Verify(authenticator, token.ValidatorHash)
}

func (s *CredentialStore) Revoke(ctx context.Context, selector string) (bool, error) {
	return s.tokens.DeleteBySelector(ctx, selector)
}

// Rotate consumes oldSelector and issues a replacement for userID. It returns
// repository.ErrTokenConsumed when the old row was already gone.
func (s *CredentialStore) Rotate(ctx context.Context, oldSelector string, userID int64, ttl time.Duration) (security.RememberPair, error) {
	pair, row, err := s.newCredential(userID, ttl)
	if err != nil {
		return security.RememberPair{}, err
	}
	if err := s.tokens.Rotate(ctx, oldSelector, row); err != nil {
		return security.RememberPair{}, err
	}
	return pair, nil
}

func (s *CredentialStore) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	return s.tokens.DeleteByUser(ctx, userID)
}

func (s *CredentialStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}

func (s *CredentialStore) newCredential(userID int64, ttl time.Duration) (security.RememberPair, models.RememberToken, error) {
	pair, err := security.NewRememberPair()
	if err != nil {
		return security.RememberPair{}, models.RememberToken{}, err
	}
	digest, err := s.hasher.Hash(pair.Authenticator)
	if err != nil {
		return security.RememberPair{}, models.RememberToken{}, fmt.Errorf("hash authenticator: %w", err)
	}
	return pair, models.RememberToken{
		ID:            ids.New(),
		UserID:        userID,
		Selector:      pair.Selector,
		ValidatorHash: digest,
		ExpiresAt:     s.now().Add(ttl),
	}, nil
}

// decoy holds a digest of a throwaway secret. Burning a verification against
// it keeps the unknown-selector and unknown-email paths about as slow as a
// real mismatch.
type decoy struct {
	once   sync.Once
	hasher Hasher
	digest string
}

func (d *decoy) burn(plain string) {
	d.once.Do(func() {
		secret, err := security.RandomHex(security.AuthenticatorBytes)
		if err != nil {
			return
		}
		d.digest, _ = d.hasher.Hash(secret)
	})
	_ = d.hasher.Verify(plain, d.digest)
}
