package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "session:", time.Hour), mr
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.New()
	require.NoError(t, err)
	sess.UserID = 42
	sess.Username = "ada"
	sess.Role = models.UserRoleTeacher
	require.NoError(t, store.Save(ctx, sess))

	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID))
	assert.Equal(t, "42", mr.HGet("session:"+sess.ID, "user_id"))

	loaded, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Authenticated())
	assert.Equal(t, models.Principal{ID: 42, Username: "ada", Role: models.UserRoleTeacher}, loaded.Principal())
	assert.Equal(t, sess.CreatedAt.Unix(), loaded.CreatedAt.Unix())
}

func TestLoadSlidesExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(50 * time.Minute)
	_, err = store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID))

	mr.FastForward(61 * time.Minute)
	_, err = store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLoadRejectsMalformedID(t *testing.T) {
	store, mr := newTestStore(t)

	for _, id := range []string{"", "abc", "../../etc", strings.Repeat("Z", 64), strings.Repeat("AB", 32)} {
		_, err := store.Load(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
	assert.Empty(t, mr.Keys())
}

func TestDestroy(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Destroy(ctx, sess.ID))

	assert.False(t, mr.Exists("session:"+sess.ID))
	_, err = store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveKeepsExistingSecret(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))

	secret, err := store.SetCSRFSecretIfAbsent(ctx, sess.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, "first", secret)

	stale := &Session{ID: sess.ID, UserID: 9}
	require.NoError(t, store.Save(ctx, stale))
	assert.Equal(t, "first", mr.HGet("session:"+sess.ID, "csrf_secret"))
}

func TestSetCSRFSecretIfAbsent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.New()
	require.NoError(t, err)

	_, err = store.SetCSRFSecretIfAbsent(ctx, sess.ID, "orphan")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, sess))

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			secret, err := store.SetCSRFSecretIfAbsent(ctx, sess.ID, string(rune('a'+i)))
			assert.NoError(t, err)
			results[i] = secret
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, results[0], got)
	}
}
