package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type AuthConfig struct {
	Secret     string `json:"secret"`
	Issuer     string `json:"issuer"`
	Audience   string `json:"audience"`
	TTLSeconds int    `json:"ttl_seconds"`
}

type BotConfig struct {
	DefaultLevel   string `json:"default_level"`
	ScriptPath     string `json:"script_path"`
	IdentitiesPath string `json:"identities_path"`
}

type DevServerConfig struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type GameConfig struct {
	// FirstDealer is the seat that deals round 1.
	FirstDealer int `json:"first_dealer"`
	// FirstLead selects who leads trick one: "after_trump_chooser" or "after_dealer".
	FirstLead string          `json:"first_lead"`
	Bots      BotConfig       `json:"bots"`
	Auth      AuthConfig      `json:"auth"`
	DevServer DevServerConfig `json:"dev_server"`
}

const (
	defaultBotLevel       = "smart"
	defaultIdentitiesPath = "data/bot_identities.json"
	defaultTokenTTL       = 24 * time.Hour
	defaultDevAddr        = ":8080"
)

// Env keys read from the Nakama runtime environment or the process environment.
const (
	EnvJWTSecret   = "whist_jwt_secret"
	EnvJWTIssuer   = "whist_jwt_issuer"
	EnvJWTAudience = "whist_jwt_audience"
	EnvBotLevel    = "whist_bot_level"
	EnvBotScript   = "whist_bot_script"
	EnvFirstDealer = "whist_first_dealer"
	EnvFirstLead   = "whist_first_lead"
)

var (
	mu       sync.RWMutex
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Only the
// first call reads the file.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		Set(&c)
	})
	return loadErr
}

// Set installs c as the global configuration.
func Set(c *GameConfig) {
	mu.Lock()
	cfg = c
	mu.Unlock()
}

// GetGameConfig returns the global game configuration, or nil if none was loaded.
func GetGameConfig() *GameConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// ApplyEnv overrides loaded values with any recognised keys in env. Keys are
// matched case-insensitively so both Nakama runtime env and os.Environ work.
func ApplyEnv(env map[string]string) {
	if len(env) == 0 {
		return
	}
	lookup := make(map[string]string, len(env))
	for k, v := range env {
		lookup[strings.ToLower(k)] = v
	}

	mu.Lock()
	defer mu.Unlock()
	c := GameConfig{}
	if cfg != nil {
		c = *cfg
	}
	if v, ok := lookup[EnvJWTSecret]; ok && v != "" {
		c.Auth.Secret = v
	}
	if v, ok := lookup[EnvJWTIssuer]; ok {
		c.Auth.Issuer = v
	}
	if v, ok := lookup[EnvJWTAudience]; ok {
		c.Auth.Audience = v
	}
	if v, ok := lookup[EnvBotLevel]; ok && v != "" {
		c.Bots.DefaultLevel = v
	}
	if v, ok := lookup[EnvBotScript]; ok {
		c.Bots.ScriptPath = v
	}
	if v, ok := lookup[EnvFirstDealer]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			c.FirstDealer = i
		}
	}
	if v, ok := lookup[EnvFirstLead]; ok && v != "" {
		c.FirstLead = v
	}
	cfg = &c
}

// GetFirstDealer returns the seat dealing round 1, 0 when unset.
func GetFirstDealer() int {
	c := GetGameConfig()
	if c == nil || c.FirstDealer < 0 || c.FirstDealer > 3 {
		return 0
	}
	return c.FirstDealer
}

// GetFirstLead returns the configured first-lead rule name; empty means default.
func GetFirstLead() string {
	c := GetGameConfig()
	if c == nil {
		return ""
	}
	return c.FirstLead
}

// GetDefaultBotLevel returns the level used when an AI is added without one.
func GetDefaultBotLevel() string {
	c := GetGameConfig()
	if c == nil || c.Bots.DefaultLevel == "" {
		return defaultBotLevel
	}
	return c.Bots.DefaultLevel
}

// GetBotScriptPath returns the Lua strategy file, empty for the built-in script.
func GetBotScriptPath() string {
	c := GetGameConfig()
	if c == nil {
		return ""
	}
	return c.Bots.ScriptPath
}

// GetIdentitiesPath returns the AI display identities file.
func GetIdentitiesPath() string {
	c := GetGameConfig()
	if c == nil || c.Bots.IdentitiesPath == "" {
		return defaultIdentitiesPath
	}
	return c.Bots.IdentitiesPath
}

// GetAuth returns the token settings with a default TTL filled in.
func GetAuth() (secret, issuer, audience string, ttl time.Duration) {
	c := GetGameConfig()
	if c == nil {
		return "", "", "", defaultTokenTTL
	}
	ttl = time.Duration(c.Auth.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return c.Auth.Secret, c.Auth.Issuer, c.Auth.Audience, ttl
}

// GetDevServer returns the listen address and allowed websocket origins.
func GetDevServer() (addr string, origins []string) {
	c := GetGameConfig()
	if c == nil || c.DevServer.Addr == "" {
		addr = defaultDevAddr
	} else {
		addr = c.DevServer.Addr
	}
	if c != nil {
		origins = append(origins, c.DevServer.AllowedOrigins...)
	}
	return addr, origins
}
