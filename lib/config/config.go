// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

// Environment variables read by [Config.ApplyEnv] and [Load].
const (
	EnvBaseURL           = "BITBUCKET_URL"
	EnvToken             = "BITBUCKET_TOKEN"
	EnvOAuthClientID     = "BITBUCKET_OAUTH_CLIENT_ID"
	EnvOAuthClientSecret = "BITBUCKET_OAUTH_CLIENT_SECRET"
	EnvOAuthTokenURL     = "BITBUCKET_OAUTH_TOKEN_URL"
	EnvUsername          = "BITBUCKET_USERNAME"
	EnvPassword          = "BITBUCKET_PASSWORD"
	EnvWorkspace         = "BITBUCKET_WORKSPACE"
	EnvLogLevel          = "BITBUCKET_MCP_LOG_LEVEL"
	EnvConfigFile        = "BITBUCKET_MCP_CONFIG"
)

// DefaultOAuthTokenURL is Bitbucket Cloud's OAuth 2.0 token endpoint.
const DefaultOAuthTokenURL = "https://bitbucket.org/site/oauth2/access_token"

// DefaultEnvFile is loaded by [Load] when no env file is named and the
// file exists in the working directory.
const DefaultEnvFile = ".env"

// Config is the server configuration. It is built once at startup and
// handed to the components that need it; nothing reads the environment
// after [Load] returns.
type Config struct {
	// BaseURL is the Bitbucket API root. Must use HTTPS.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Token is a repository, project, or workspace access token. When
	// set it is used for authentication and every other credential is
	// ignored.
	Token string `yaml:"token" json:"token"`

	// OAuthClientID and OAuthClientSecret are an OAuth consumer's key
	// and secret. Access tokens are obtained with the client-credentials
	// grant from OAuthTokenURL and refreshed as they expire. Used when
	// Token is empty; takes precedence over Username/Password.
	OAuthClientID     string `yaml:"oauth_client_id" json:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret" json:"oauth_client_secret"`
	OAuthTokenURL     string `yaml:"oauth_token_url" json:"oauth_token_url"`

	// Username is the Atlassian account used with Password for basic
	// auth. It also identifies the current user for pending-review
	// lookups, so it may be set alongside Token.
	Username string `yaml:"username" json:"username"`

	// Password is an app password for Username.
	Password string `yaml:"password" json:"password"`

	// Workspace is the default workspace for tools called without one.
	Workspace string `yaml:"workspace" json:"workspace"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Options selects the sources [Load] reads.
type Options struct {
	// ConfigPath is the config file. Empty falls back to
	// BITBUCKET_MCP_CONFIG; if that is also empty no file is read.
	ConfigPath string

	// EnvFile is a dotenv file. Empty means DefaultEnvFile when it
	// exists. A named file that does not exist is an error.
	EnvFile string

	// LogLevel overrides every other source when non-empty.
	LogLevel string
}

// Default returns the configuration before any source is applied.
func Default() *Config {
	return &Config{
		BaseURL:       bitbucket.DefaultBaseURL,
		OAuthTokenURL: DefaultOAuthTokenURL,
		LogLevel:      "info",
	}
}

// Load assembles the configuration. Sources apply in order, later
// winning: defaults, the config file, the environment (after merging
// the env file into it without overriding variables already set), and
// finally options.LogLevel. The result is validated.
func Load(options Options) (*Config, error) {
	if err := LoadEnvFile(options.EnvFile); err != nil {
		return nil, err
	}

	path := options.ConfigPath
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	cfg := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(os.LookupEnv)
	if options.LogLevel != "" {
		cfg.LogLevel = options.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile merges a dotenv file into the process environment.
// Variables already set are left alone. An empty path loads
// DefaultEnvFile if present.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a config file over the defaults. Files ending in
// .json or .jsonc are parsed as JSON with comments and trailing commas;
// anything else is YAML. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(cfg)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		err = decoder.Decode(cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. Variables that are
// unset or empty leave the current value.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	fields := []struct {
		name   string
		target *string
	}{
		{EnvBaseURL, &c.BaseURL},
		{EnvToken, &c.Token},
		{EnvOAuthClientID, &c.OAuthClientID},
		{EnvOAuthClientSecret, &c.OAuthClientSecret},
		{EnvOAuthTokenURL, &c.OAuthTokenURL},
		{EnvUsername, &c.Username},
		{EnvPassword, &c.Password},
		{EnvWorkspace, &c.Workspace},
		{EnvLogLevel, &c.LogLevel},
	}
	for _, field := range fields {
		if value, ok := lookup(field.name); ok && strings.TrimSpace(value) != "" {
			*field.target = strings.TrimSpace(value)
		}
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if err := checkHTTPS("base_url", c.BaseURL, EnvBaseURL); err != nil {
		errs = append(errs, err)
	}

	oauth := c.OAuthClientID != "" || c.OAuthClientSecret != ""
	if c.Token == "" && oauth {
		switch {
		case c.OAuthClientID == "":
			errs = append(errs, fmt.Errorf("oauth_client_secret set without a client ID (set %s)", EnvOAuthClientID))
		case c.OAuthClientSecret == "":
			errs = append(errs, fmt.Errorf("oauth_client_id set without a secret (set %s)", EnvOAuthClientSecret))
		}
		if err := checkHTTPS("oauth_token_url", c.OAuthTokenURL, EnvOAuthTokenURL); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Token == "" && !oauth {
		switch {
		case c.Username == "" && c.Password == "":
			errs = append(errs, fmt.Errorf("no credentials: set %s, %s and %s, or %s and %s",
				EnvToken, EnvOAuthClientID, EnvOAuthClientSecret, EnvUsername, EnvPassword))
		case c.Username == "":
			errs = append(errs, fmt.Errorf("password set without a username (set %s)", EnvUsername))
		case c.Password == "":
			errs = append(errs, fmt.Errorf("username set without an app password (set %s or %s)", EnvPassword, EnvToken))
		}
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// checkHTTPS reports a missing or non-https URL setting.
func checkHTTPS(field, value, envName string) error {
	if value == "" {
		return fmt.Errorf("%s is required (set %s)", field, envName)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s %q is not a valid URL: %w", field, value, err)
	}
	if parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("%s must be an https URL (got %q)", field, value)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q must be one of debug, info, warn, error (set %s)", c.LogLevel, EnvLogLevel)
	}
	return level, nil
}

// Client returns the API client configuration. Exactly one credential
// is passed on, in order of precedence: the access token, an OAuth
// client-credentials token source, the username and app password. ctx
// scopes token refreshes; httpClient, when set, also carries them.
func (c *Config) Client(ctx context.Context, httpClient *http.Client, logger *slog.Logger) bitbucket.Config {
	clientConfig := bitbucket.Config{
		BaseURL:    c.BaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	}
	switch {
	case c.Token != "":
		clientConfig.Token = c.Token
	case c.OAuthClientID != "":
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		credentials := &clientcredentials.Config{
			ClientID:     c.OAuthClientID,
			ClientSecret: c.OAuthClientSecret,
			TokenURL:     c.OAuthTokenURL,
		}
		clientConfig.TokenSource = credentials.TokenSource(ctx)
	default:
		clientConfig.Username = c.Username
		clientConfig.Password = c.Password
	}
	return clientConfig
}

// String describes the configuration with secrets redacted.
func (c *Config) String() string {
	auth := "none"
	switch {
	case c.Token != "":
		auth = "token"
	case c.OAuthClientID != "":
		auth = "oauth (" + c.OAuthClientID + ")"
	case c.Username != "":
		auth = "basic (" + c.Username + ")"
	}
	return fmt.Sprintf("base_url=%s auth=%s workspace=%q log_level=%s", c.BaseURL, auth, c.Workspace, c.LogLevel)
}
