package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackcoderx/brainannex/pkg/request"
)

func TestInitializeFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), FolderName)

	created, err := InitializeFolder(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, filepath.Join(dir, "config.json"))
	assert.DirExists(t, filepath.Join(dir, "requests"))
	assert.FileExists(t, filepath.Join(dir, "environments", "dev.yaml"))

	created, err = InitializeFolder(dir)
	require.NoError(t, err)
	assert.False(t, created)
}

func newViper(t *testing.T, dir string) *viper.Viper {
	t.Helper()
	v := viper.New()
	Setup(v, dir, "")
	return v
}

func TestLoadDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), FolderName)
	_, err := InitializeFolder(dir)
	require.NoError(t, err)

	cfg, err := Load(newViper(t, dir))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(newViper(t, filepath.Join(t.TempDir(), "none")))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.BaseURL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	doc := `{"base_url":"https://annex.example/","protocol":"legacy","timeout_seconds":5,
"rate_limit":2,"auth":{"type":"basic","username":"julian"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(doc), 0644))
	t.Setenv("ANNEX_AUTH_PASSWORD", "pw")

	cfg, err := Load(newViper(t, dir))
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Protocol)
	assert.Equal(t, "julian", cfg.Auth.Username)
	assert.Equal(t, "pw", cfg.Auth.Password)

	client, err := cfg.NewClient(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://annex.example/", client.BaseURL, "base_url is used verbatim")
	assert.Equal(t, request.ProtocolLegacy, client.Protocol)
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)
	require.NotNil(t, client.Limiter)
	assert.Equal(t, request.BasicAuth{Username: "julian", Password: "pw"}, client.Auth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no base url", func(c *Config) { c.BaseURL = "" }},
		{"bad protocol", func(c *Config) { c.Protocol = "soap" }},
		{"negative timeout", func(c *Config) { c.TimeoutSeconds = -1 }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"bearer without token", func(c *Config) { c.Auth.Type = "bearer" }},
		{"basic without user", func(c *Config) { c.Auth.Type = "basic" }},
		{"oauth2 incomplete", func(c *Config) { c.Auth = AuthConfig{Type: "oauth2", ClientID: "id"} }},
		{"unknown auth", func(c *Config) { c.Auth.Type = "kerberos" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestNewClientAuth(t *testing.T) {
	cfg := Default()
	cfg.Auth = AuthConfig{Type: "bearer", Token: "abc"}
	client, err := cfg.NewClient(nil)
	require.NoError(t, err)
	assert.Equal(t, request.BearerAuth{Token: "abc"}, client.Auth)
	assert.Nil(t, client.Limiter)

	cfg.Auth = AuthConfig{Type: "oauth2", ClientID: "id", ClientSecret: "s", TokenURL: "https://auth.example/token", Scopes: "read write"}
	client, err = cfg.NewClient(nil)
	require.NoError(t, err)
	cc, ok := client.Auth.(*request.ClientCredentialsAuth)
	require.True(t, ok)
	assert.Equal(t, []string{"read", "write"}, cc.Config.Scopes)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	logger, err = NewLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}
