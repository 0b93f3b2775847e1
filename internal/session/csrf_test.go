package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokkksharmaa/EduSphere/internal/security"
)

func TestTokenForIsStableWithinSession(t *testing.T) {
	store, _ := newTestStore(t)
	guard := NewCSRFGuard(store)
	ctx := context.Background()

	sess, err := store.New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))

	first, err := guard.TokenFor(ctx, sess)
	require.NoError(t, err)
	assert.True(t, security.IsHexToken(first, security.CSRFSecretBytes))

	reloaded, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	second, err := guard.TokenFor(ctx, reloaded)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVerify(t *testing.T) {
	guard := NewCSRFGuard(nil)
	sess := &Session{ID: "x", CSRFSecret: "4f9c2d"}

	tests := []struct {
		name      string
		sess      *Session
		submitted string
		want      bool
	}{
		{name: "match", sess: sess, submitted: "4f9c2d", want: true},
		{name: "mismatch", sess: sess, submitted: "4f9c2e", want: false},
		{name: "prefix", sess: sess, submitted: "4f9c", want: false},
		{name: "empty token", sess: sess, submitted: "", want: false},
		{name: "nil session", sess: nil, submitted: "4f9c2d", want: false},
		{name: "no secret", sess: &Session{ID: "x"}, submitted: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Verify(tt.sess, tt.submitted))
		})
	}
}

func TestTokenFailsAfterDestroy(t *testing.T) {
	store, _ := newTestStore(t)
	guard := NewCSRFGuard(store)
	ctx := context.Background()

	sess, err := store.New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))
	token, err := guard.TokenFor(ctx, sess)
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, sess.ID))

	_, err = store.Load(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)

	fresh, err := store.New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, fresh))
	assert.False(t, guard.Verify(fresh, token))
}

func TestTokenForNilSession(t *testing.T) {
	_, err := NewCSRFGuard(nil).TokenFor(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSession)
}
