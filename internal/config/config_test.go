package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 30*24*time.Hour, cfg.Remember.TTL)
	assert.True(t, cfg.Remember.RevokeOnMismatch)
	assert.True(t, cfg.Session.SecureCookies)
	assert.Equal(t, "edusphere_session", cfg.Session.CookieName)
	assert.Equal(t, "edusphere_remember", cfg.Remember.CookieName)
	assert.Equal(t, "csrf_token", cfg.CSRF.FieldName)
	assert.Equal(t, "X-CSRF-Token", cfg.CSRF.HeaderName)
	assert.Equal(t, uint8(2), cfg.Password.Threads)
	assert.Equal(t, uint32(64*1024), cfg.Password.Memory)
	assert.Equal(t, "/auth/login", cfg.LoginPath)
}

func TestDecodeOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("remember.ttl", "48h")
	v.Set("allowcorsorigins", "https://a.example, https://b.example")

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Remember.TTL)
	assert.Len(t, cfg.AllowCORSOrigins, 2)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "same cookie names", key: "remember.cookiename", value: "edusphere_session"},
		{name: "empty session cookie", key: "session.cookiename", value: ""},
		{name: "zero remember ttl", key: "remember.ttl", value: "0s"},
		{name: "zero argon2 memory", key: "password.memory", value: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			v.Set(tt.key, tt.value)

			_, err := decode(v)
			assert.Error(t, err)
		})
	}
}
