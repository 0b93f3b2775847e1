package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/repository"
)

// UserRepo is an in-memory stand-in for repository.UserRepository.
type UserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User

	FindErr   error
	UpdateErr error
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]models.User)}
}

func (r *UserRepo) Create(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return models.User{}, repository.ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return models.User{}, r.FindErr
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return models.User{}, r.FindErr
	}
	user, ok := r.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	r.users[id] = user
	return nil
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// TokenRepo mirrors the auth_tokens table, including the single-winner
// semantics of Rotate.
type TokenRepo struct {
	mu   sync.Mutex
	rows map[string]models.RememberToken

	Now       func() time.Time
	FindErr   error
	InsertErr error
	RotateErr error
	DeleteErr error
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{rows: make(map[string]models.RememberToken), Now: time.Now}
}

func (r *TokenRepo) Insert(_ context.Context, token models.RememberToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.InsertErr != nil {
		return r.InsertErr
	}
	token.CreatedAt = r.Now()
	r.rows[token.Selector] = token
	return nil
}

func (r *TokenRepo) FindActiveBySelector(_ context.Context, selector string) (models.RememberToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return models.RememberToken{}, r.FindErr
	}
	token, ok := r.rows[selector]
	if !ok || token.Expired(r.Now()) {
		return models.RememberToken{}, repository.ErrTokenNotFound
	}
	return token, nil
}

func (r *TokenRepo) DeleteBySelector(_ context.Context, selector string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.DeleteErr != nil {
		return false, r.DeleteErr
	}
	_, ok := r.rows[selector]
	delete(r.rows, selector)
	return ok, nil
}

func (r *TokenRepo) Rotate(_ context.Context, oldSelector string, next models.RememberToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.RotateErr != nil {
		return r.RotateErr
	}
	old, ok := r.rows[oldSelector]
	if !ok || old.Expired(r.Now()) {
		return repository.ErrTokenConsumed
	}
	delete(r.rows, oldSelector)
	next.CreatedAt = r.Now()
	r.rows[next.Selector] = next
	return nil
}

func (r *TokenRepo) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for selector, token := range r.rows {
		if token.UserID == userID {
			delete(r.rows, selector)
			n++
		}
	}
	return n, nil
}

func (r *TokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	now := r.Now()
	for selector, token := range r.rows {
		if token.Expired(now) {
			delete(r.rows, selector)
			n++
		}
	}
	return n, nil
}

// ForUser returns the rows owned by userID, expired ones included.
func (r *TokenRepo) ForUser(userID int64) []models.RememberToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.RememberToken
	for _, token := range r.rows {
		if token.UserID == userID {
			out = append(out, token)
		}
	}
	return out
}

func (r *TokenRepo) Has(selector string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[selector]
	return ok
}

func (r *TokenRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type PreferenceRepo struct {
	mu     sync.Mutex
	themes map[int64]models.Theme
	writes int
}

func NewPreferenceRepo() *PreferenceRepo {
	return &PreferenceRepo{themes: make(map[int64]models.Theme)}
}

func (r *PreferenceRepo) SetTheme(_ context.Context, userID int64, theme models.Theme) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[userID] = theme
	r.writes++
	return nil
}

func (r *PreferenceRepo) Theme(userID int64) (models.Theme, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	theme, ok := r.themes[userID]
	return theme, ok
}

// Writes counts SetTheme calls.
func (r *PreferenceRepo) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
