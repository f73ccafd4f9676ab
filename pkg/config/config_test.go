package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "http://api.gamefroot.com/v1/", cfg.Account.ServerURL)
		assert.Equal(t, 30*time.Second, cfg.Account.Timeout)
		assert.Equal(t, "v2.2", cfg.Facebook.Version)
		assert.False(t, cfg.Facebook.Enabled())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ACCOUNT_SERVER_URL", "http://localhost:4000/v1/")
		t.Setenv("ACCOUNT_TIMEOUT", "5s")
		t.Setenv("ACCOUNT_GAME_NAME", "space-race")
		t.Setenv("FACEBOOK_APP_ID", "1234")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:4000/v1/", cfg.Account.ServerURL)
		assert.Equal(t, 5*time.Second, cfg.Account.Timeout)
		assert.Equal(t, "space-race", cfg.Account.GameName)
		assert.True(t, cfg.Facebook.Enabled())
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "social.yaml")
	content := "account:\n  server_url: http://backend.test/\n  game_name: puzzle\nfacebook:\n  app_id: \"42\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test/", cfg.Account.ServerURL)
	assert.Equal(t, "puzzle", cfg.Account.GameName)
	assert.Equal(t, "42", cfg.Facebook.AppID)
	assert.Equal(t, "v2.2", cfg.Facebook.Version)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"off", true, false},
		{"", true, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SOCIAL_TEST_BOOL", tt.value)
			assert.Equal(t, tt.expected, GetEnvBool("SOCIAL_TEST_BOOL", tt.def))
		})
	}
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	assert.True(t, IsProduction())

	t.Setenv("APP_ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}
