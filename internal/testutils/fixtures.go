package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/security"
)

const DefaultPassword = "correct horse battery staple"

// FastHasher uses argon2 parameters small enough for unit tests.
func FastHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1})
}

// NewRedis starts an in-process Redis server that is torn down with t.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type userFixture struct {
	user     models.User
	password string
	hash     string
}

// UserOption configures a fixture user.
type UserOption func(*userFixture)

func WithEmail(email string) UserOption {
	return func(f *userFixture) { f.user.Email = email }
}

func WithUsername(username string) UserOption {
	return func(f *userFixture) { f.user.Username = username }
}

func WithRole(role models.UserRole) UserOption {
	return func(f *userFixture) { f.user.Role = role }
}

func WithPassword(password string) UserOption {
	return func(f *userFixture) { f.password = password }
}

// WithPasswordHash stores hash verbatim, e.g. a legacy bcrypt digest.
func WithPasswordHash(hash string) UserOption {
	return func(f *userFixture) { f.hash = hash }
}

// CreateUser inserts a student with a unique email and DefaultPassword
// unless options say otherwise.
func CreateUser(t *testing.T, repo *UserRepo, opts ...UserOption) models.User {
	t.Helper()

	unique := uuid.New().String()[:8]
	f := &userFixture{
		user: models.User{
			Email:    fmt.Sprintf("user_%s@example.test", unique),
			Username: "user_" + unique,
			Role:     models.UserRoleStudent,
		},
		password: DefaultPassword,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.user.PasswordHash = f.hash
	if f.user.PasswordHash == "" {
		digest, err := FastHasher().Hash(f.password)
		if err != nil {
			t.Fatalf("hash fixture password: %v", err)
		}
		f.user.PasswordHash = digest
	}

	user, err := repo.Create(context.Background(), f.user)
	if err != nil {
		t.Fatalf("create fixture user: %v", err)
	}
	return user
}
