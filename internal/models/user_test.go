package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalRolePredicates(t *testing.T) {
	teacher := User{ID: 7, Username: "ada", Role: UserRoleTeacher}.Principal()

	assert.True(t, teacher.IsTeacher())
	assert.False(t, teacher.IsStudent())
	assert.False(t, teacher.IsAdmin())
	assert.True(t, teacher.Is(UserRoleTeacher))

	var anonymous Principal
	assert.False(t, anonymous.Is(""))
	assert.False(t, anonymous.IsStudent())
}

func TestUserRoleValid(t *testing.T) {
	assert.True(t, UserRoleStudent.Valid())
	assert.True(t, UserRoleAdmin.Valid())
	assert.False(t, UserRole("superadmin").Valid())
	assert.False(t, UserRole("").Valid())
}

func TestRememberTokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := RememberToken{ExpiresAt: now}

	assert.True(t, tok.Expired(now))
	assert.True(t, tok.Expired(now.Add(time.Second)))
	assert.False(t, tok.Expired(now.Add(-time.Second)))
}
