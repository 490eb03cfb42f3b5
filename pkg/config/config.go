// Package config creates the .annex folder and turns its settings into a
// ready request.Client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// FolderName is the per-project settings folder.
const FolderName = ".annex"

// AuthConfig selects how calls authenticate.
type AuthConfig struct {
	Type         string `json:"type" mapstructure:"type"` // none, bearer, basic or oauth2
	Token        string `json:"token,omitempty" mapstructure:"token"`
	Username     string `json:"username,omitempty" mapstructure:"username"`
	Password     string `json:"password,omitempty" mapstructure:"password"`
	ClientID     string `json:"client_id,omitempty" mapstructure:"client_id"`
	ClientSecret string `json:"client_secret,omitempty" mapstructure:"client_secret"`
	TokenURL     string `json:"token_url,omitempty" mapstructure:"token_url"`
	Scopes       string `json:"scopes,omitempty" mapstructure:"scopes"` // space separated
}

// Config represents the settings in .annex/config.json.
type Config struct {
	BaseURL        string     `json:"base_url" mapstructure:"base_url"`
	Protocol       string     `json:"protocol" mapstructure:"protocol"`
	TimeoutSeconds int        `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	RateLimit      float64    `json:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 disables
	Auth           AuthConfig `json:"auth" mapstructure:"auth"`
	LogLevel       string     `json:"log_level" mapstructure:"log_level"`
}

// Default returns the configuration written on first run.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:5000",
		Protocol:       request.ProtocolJSON.String(),
		TimeoutSeconds: 30,
		Auth:           AuthConfig{Type: "none"},
		LogLevel:       "info",
	}
}

// SetDefaults registers every key with v so that ANNEX_* variables are
// picked up by Unmarshal even when the file omits them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("protocol", d.Protocol)
	v.SetDefault("timeout_seconds", d.TimeoutSeconds)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("auth.type", d.Auth.Type)
	for _, k := range []string{"token", "username", "password", "client_id", "client_secret", "token_url", "scopes"} {
		v.SetDefault("auth."+k, "")
	}
}

// Setup points v at dir/config.json and the ANNEX_ environment prefix.
// An explicit file overrides the folder lookup.
func Setup(v *viper.Viper, dir, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigType("json")
		v.SetConfigName("config")
	}
	v.SetEnvPrefix("ANNEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load reads the configuration held by v. A missing file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values NewClient depends on.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is not set")
	}
	if _, err := request.ParseProtocol(c.Protocol); err != nil {
		return err
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if _, err := c.Auth.build(); err != nil {
		return err
	}
	return nil
}

func (a AuthConfig) build() (request.Auth, error) {
	switch strings.ToLower(a.Type) {
	case "", "none":
		return nil, nil
	case "bearer":
		if a.Token == "" {
			return nil, fmt.Errorf("auth: bearer needs a token")
		}
		return request.BearerAuth{Token: a.Token}, nil
	case "basic":
		if a.Username == "" {
			return nil, fmt.Errorf("auth: basic needs a username")
		}
		return request.BasicAuth{Username: a.Username, Password: a.Password}, nil
	case "oauth2":
		auth, err := request.NewClientCredentialsAuth(a.ClientID, a.ClientSecret, a.TokenURL, a.Scopes)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		return auth, nil
	default:
		return nil, fmt.Errorf("auth: unknown type %q (use none, bearer, basic or oauth2)", a.Type)
	}
}

// NewClient builds a client from the configuration.
func (c Config) NewClient(logger *zap.Logger) (*request.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	proto, _ := request.ParseProtocol(c.Protocol)
	auth, _ := c.Auth.build()

	client := request.NewClient(c.BaseURL)
	client.Protocol = proto
	client.Auth = auth
	if c.TimeoutSeconds > 0 {
		client.HTTPClient.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	if c.RateLimit > 0 {
		burst := int(c.RateLimit)
		if burst < 1 {
			burst = 1
		}
		client.Limiter = rate.NewLimiter(rate.Limit(c.RateLimit), burst)
	}
	if logger != nil {
		client.Logger = logger
	}
	return client, nil
}

// NewClient loads the configuration from the global viper instance and
// builds a client from it.
func NewClient(logger *zap.Logger) (*request.Client, error) {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return cfg.NewClient(logger)
}

// NewLogger builds a production logger at the configured level. verbose
// forces debug.
func NewLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// InitializeFolder creates dir with a default config, a requests folder and
// a dev environment if it does not exist yet. It reports whether anything
// was created.
func InitializeFolder(dir string) (bool, error) {
	created := false
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create %s folder: %w", dir, err)
		}
		if err := writeDefaultConfig(filepath.Join(dir, "config.json")); err != nil {
			return false, err
		}
		created = true
	}

	for _, sub := range []string{"requests", "environments"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return created, fmt.Errorf("failed to create %s folder: %w", sub, err)
		}
	}

	devPath := filepath.Join(dir, "environments", "dev.yaml")
	if _, err := os.Stat(devPath); os.IsNotExist(err) {
		if err := os.WriteFile(devPath, []byte(defaultEnvironment), 0644); err != nil {
			return created, fmt.Errorf("failed to write dev environment: %w", err)
		}
		created = true
	}
	return created, nil
}

const defaultEnvironment = `# Development environment
# Add your variables here, e.g.:
# CATEGORY: "12"
# API_TOKEN: "{{env:ANNEX_TOKEN}}"
`

func writeDefaultConfig(path string) error {
	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
