package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidInput       = errors.New("email, username and password are required")
)

type UserRepository interface {
	UserReader
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type AuthService struct {
	users  UserRepository
	hasher Hasher
	decoy  *decoy
	log    zerolog.Logger
}

func NewAuthService(users UserRepository, hasher Hasher, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		decoy:  &decoy{hasher: hasher},
		log:    log,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Authenticate checks an email and password. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.decoy.burn(password)
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, &user, password)
	}
	return user, nil
}

// upgradeHash is best effort; the login succeeds either way.
func (s *AuthService) upgradeHash(ctx context.Context, user *models.User, password string) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("rehash password failed")
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, digest); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("store upgraded password hash failed")
		return
	}
	user.PasswordHash = digest
	s.log.Info().Int64("user_id", user.ID).Msg("password hash upgraded")
}

type CreateUserInput struct {
	Email    string
	Username string
	Password string
	Role     models.UserRole
}

func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (models.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	if input.Email == "" || input.Username == "" || input.Password == "" {
		return models.User{}, ErrInvalidInput
	}
	if !input.Role.Valid() {
		return models.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, input.Role)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, err
	}

	return s.users.Create(ctx, models.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: digest,
		Role:         input.Role,
	})
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}
