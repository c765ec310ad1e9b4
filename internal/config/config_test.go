package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWithoutConfig(t *testing.T) {
	Set(nil)
	assert.Equal(t, 0, GetFirstDealer())
	assert.Equal(t, "", GetFirstLead())
	assert.Equal(t, "smart", GetDefaultBotLevel())
	assert.Equal(t, "data/bot_identities.json", GetIdentitiesPath())
	_, _, _, ttl := GetAuth()
	assert.Equal(t, 24*time.Hour, ttl)
	addr, origins := GetDevServer()
	assert.Equal(t, ":8080", addr)
	assert.Empty(t, origins)
}

func TestLoadGameConfigAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_config.json")
	body := `{
		"first_dealer": 2,
		"first_lead": "after_dealer",
		"bots": {"default_level": "good", "identities_path": "ids.json"},
		"auth": {"secret": "file-secret", "issuer": "whist", "ttl_seconds": 60},
		"dev_server": {"addr": ":9000", "allowed_origins": ["localhost:3000"]}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	require.NoError(t, LoadGameConfig(path))
	t.Cleanup(func() { Set(nil) })

	assert.Equal(t, 2, GetFirstDealer())
	assert.Equal(t, "after_dealer", GetFirstLead())
	assert.Equal(t, "good", GetDefaultBotLevel())
	assert.Equal(t, "ids.json", GetIdentitiesPath())
	secret, issuer, _, ttl := GetAuth()
	assert.Equal(t, "file-secret", secret)
	assert.Equal(t, "whist", issuer)
	assert.Equal(t, time.Minute, ttl)

	ApplyEnv(map[string]string{"WHIST_JWT_SECRET": "env-secret", "whist_first_dealer": "3", "unrelated": "x"})
	secret, _, _, _ = GetAuth()
	assert.Equal(t, "env-secret", secret)
	assert.Equal(t, 3, GetFirstDealer())
	assert.Equal(t, "good", GetDefaultBotLevel())

	addr, origins := GetDevServer()
	assert.Equal(t, ":9000", addr)
	assert.Equal(t, []string{"localhost:3000"}, origins)
}

func TestApplyEnvWithoutFile(t *testing.T) {
	Set(nil)
	t.Cleanup(func() { Set(nil) })
	ApplyEnv(map[string]string{EnvBotLevel: "random", EnvFirstDealer: "9"})
	assert.Equal(t, "random", GetDefaultBotLevel())
	assert.Equal(t, 0, GetFirstDealer())
}
