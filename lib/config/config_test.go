// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

// clearEnv unsets every variable Load reads for the duration of the
// test. t.Setenv registers the restore; os.Unsetenv then removes it.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvBaseURL, EnvToken, EnvOAuthClientID, EnvOAuthClientSecret, EnvOAuthTokenURL, EnvUsername, EnvPassword, EnvWorkspace, EnvLogLevel, EnvConfigFile} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	// Keep a stray .env in the package directory out of the tests.
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.BaseURL != bitbucket.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, bitbucket.DefaultBaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "bitbucket-mcp.yaml", `
token: yaml-token
workspace: acme
log_level: debug
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Token != "yaml-token" || cfg.Workspace != "acme" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.BaseURL != bitbucket.DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default kept", cfg.BaseURL)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeFile(t, "bitbucket-mcp.jsonc", `{
	// Team workspace.
	"workspace": "acme",
	"username": "alice",
	"password": "app-password", /* rotated quarterly */
}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Workspace != "acme" || cfg.Username != "alice" || cfg.Password != "app-password" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown yaml key", "c.yaml", "tokn: typo\n"},
		{"unknown json key", "c.json", `{"tokn":"typo"}`},
		{"malformed yaml", "c.yaml", "token: [unclosed\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeFile(t, test.file, test.content)
			if _, err := LoadFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.BaseURL != bitbucket.DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Workspace = "from-file"
	cfg.Token = "from-file"

	env := map[string]string{
		EnvWorkspace: "  from-env  ",
		EnvToken:     "",
		EnvLogLevel:  "warn",
	}
	cfg.ApplyEnv(func(name string) (string, bool) {
		value, ok := env[name]
		return value, ok
	})

	if cfg.Workspace != "from-env" {
		t.Errorf("Workspace = %q, want trimmed env value", cfg.Workspace)
	}
	if cfg.Token != "from-file" {
		t.Errorf("Token = %q, empty env value should not override", cfg.Token)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	configPath := writeFile(t, "config.yaml", "workspace: from-file\ntoken: file-token\nlog_level: warn\n")
	envPath := writeFile(t, "test.env", "BITBUCKET_WORKSPACE=from-dotenv\nBITBUCKET_USERNAME=dotenv-user\n")
	t.Setenv(EnvUsername, "process-user")
	defer os.Unsetenv(EnvWorkspace)

	cfg, err := Load(Options{ConfigPath: configPath, EnvFile: envPath, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "from-dotenv" {
		t.Errorf("Workspace = %q, want env file to override config file", cfg.Workspace)
	}
	if cfg.Username != "process-user" {
		t.Errorf("Username = %q, env file must not override the process environment", cfg.Username)
	}
	if cfg.Token != "file-token" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want option override", cfg.LogLevel)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, writeFile(t, "config.yaml", "token: t\nworkspace: acme\n"))

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "acme" {
		t.Errorf("Workspace = %q", cfg.Workspace)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvToken, "t")
	if _, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "absent.env")}); err == nil {
		t.Error("expected error for a named env file that does not exist")
	}
}

func TestLoad_DefaultEnvFile(t *testing.T) {
	clearEnv(t)
	if err := os.WriteFile(DefaultEnvFile, []byte("BITBUCKET_TOKEN=dotenv-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv(EnvToken)

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "dotenv-token" {
		t.Errorf("Token = %q", cfg.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{"token only", func(c *Config) { c.Token = "t" }, nil},
		{"basic auth", func(c *Config) { c.Username = "u"; c.Password = "p" }, nil},
		{"token with username", func(c *Config) { c.Token = "t"; c.Username = "u" }, nil},
		{"oauth consumer", func(c *Config) { c.OAuthClientID = "id"; c.OAuthClientSecret = "s" }, nil},
		{"oauth id only", func(c *Config) { c.OAuthClientID = "id" }, []string{EnvOAuthClientSecret}},
		{"oauth secret only", func(c *Config) { c.OAuthClientSecret = "s" }, []string{EnvOAuthClientID}},
		{"oauth http token url", func(c *Config) {
			c.OAuthClientID = "id"
			c.OAuthClientSecret = "s"
			c.OAuthTokenURL = "http://bitbucket.example/token"
		}, []string{"oauth_token_url must be an https URL"}},
		{"no credentials", func(c *Config) {}, []string{EnvToken}},
		{"username only", func(c *Config) { c.Username = "u" }, []string{EnvPassword}},
		{"password only", func(c *Config) { c.Password = "p" }, []string{EnvUsername}},
		{"http url", func(c *Config) { c.Token = "t"; c.BaseURL = "http://bitbucket.example" }, []string{"https"}},
		{"empty url", func(c *Config) { c.Token = "t"; c.BaseURL = "" }, []string{EnvBaseURL}},
		{"bad level", func(c *Config) { c.Token = "t"; c.LogLevel = "loud" }, []string{EnvLogLevel}},
		{"all reported", func(c *Config) { c.BaseURL = "http://x"; c.LogLevel = "loud" }, []string{"https", EnvToken, EnvLogLevel}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if len(test.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range test.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg := &Config{LogLevel: input}
		level, err := cfg.Level()
		if err != nil || level != want {
			t.Errorf("Level(%q) = %v, %v; want %v", input, level, err, want)
		}
	}
}

func TestClient(t *testing.T) {
	cfg := &Config{
		BaseURL:           "https://bb.example",
		Token:             "t",
		OAuthClientID:     "id",
		OAuthClientSecret: "s",
		OAuthTokenURL:     DefaultOAuthTokenURL,
		Username:          "u",
		Password:          "p",
	}
	clientConfig := cfg.Client(t.Context(), nil, nil)
	if clientConfig.Token != "t" || clientConfig.TokenSource != nil || clientConfig.Username != "" || clientConfig.Password != "" {
		t.Errorf("token config = %+v, want token only", clientConfig)
	}

	cfg.Token = ""
	clientConfig = cfg.Client(t.Context(), nil, nil)
	if clientConfig.TokenSource == nil || clientConfig.Token != "" || clientConfig.Username != "" {
		t.Errorf("oauth config = %+v, want token source only", clientConfig)
	}

	cfg.OAuthClientID = ""
	cfg.OAuthClientSecret = ""
	clientConfig = cfg.Client(t.Context(), nil, nil)
	if clientConfig.Username != "u" || clientConfig.Password != "p" || clientConfig.BaseURL != "https://bb.example" {
		t.Errorf("basic config = %+v", clientConfig)
	}
}

func TestClient_OAuthClientCredentials(t *testing.T) {
	var tokenRequests atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/site/oauth2/access_token":
			tokenRequests.Add(1)
			if err := request.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
			if grant := request.PostForm.Get("grant_type"); grant != "client_credentials" {
				t.Errorf("grant_type = %q", grant)
			}
			writer.Header().Set("Content-Type", "application/json")
			writer.Write([]byte(`{"access_token":"abc","token_type":"bearer","expires_in":3600}`))
		case "/repositories/ws/repo":
			if got := request.Header.Get("Authorization"); got != "Bearer abc" {
				t.Errorf("Authorization = %q, want %q", got, "Bearer abc")
			}
			writer.Write([]byte(`{"slug":"repo"}`))
		default:
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := &Config{
		BaseURL:           server.URL,
		OAuthClientID:     "consumer-key",
		OAuthClientSecret: "consumer-secret",
		OAuthTokenURL:     server.URL + "/site/oauth2/access_token",
	}
	client, err := bitbucket.NewClient(cfg.Client(t.Context(), server.Client(), slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	for range 2 {
		if _, err := client.GetRepository(t.Context(), "ws", "repo"); err != nil {
			t.Fatalf("GetRepository: %v", err)
		}
	}
	if got := tokenRequests.Load(); got != 1 {
		t.Errorf("token endpoint hit %d times, want 1", got)
	}
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := &Config{BaseURL: "https://bb.example", Username: "alice", Password: "hunter2", LogLevel: "info"}
	if s := cfg.String(); strings.Contains(s, "hunter2") || !strings.Contains(s, "alice") {
		t.Errorf("String() = %q", s)
	}
	cfg.Token = "secret-token"
	if s := cfg.String(); strings.Contains(s, "secret-token") {
		t.Errorf("String() = %q", s)
	}
	cfg.Token = ""
	cfg.OAuthClientID = "consumer-key"
	cfg.OAuthClientSecret = "consumer-secret"
	if s := cfg.String(); strings.Contains(s, "consumer-secret") || !strings.Contains(s, "oauth (consumer-key)") {
		t.Errorf("String() = %q", s)
	}
}
