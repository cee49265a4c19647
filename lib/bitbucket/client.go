// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the base URL for the public Bitbucket Cloud API.
const DefaultBaseURL = "https://api.bitbucket.org/2.0"

// maxRedirects bounds how many redirects a text download (diff, step
// log) follows. Bitbucket redirects large payloads to object storage
// once; anything beyond a short chain is a loop.
const maxRedirects = 5

// Config holds configuration for creating a Bitbucket API Client.
//
// Exactly one authentication mode must be configured:
//   - Token authentication: set Token or TokenSource
//   - App password authentication: set Username and Password
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.bitbucket.org/2.0". Must use HTTPS.
	BaseURL string

	// Token is a Bitbucket repository, project, or workspace access
	// token, sent as a bearer token. Mutually exclusive with
	// Username/Password.
	Token string

	// TokenSource supplies bearer tokens on demand. Mutually exclusive
	// with Token and with Username/Password.
	TokenSource oauth2.TokenSource

	// Username and Password are an Atlassian account username and app
	// password, sent as HTTP basic auth.
	Username string
	Password string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient. Its CheckRedirect is replaced (on a copy) for
	// text downloads.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a Bitbucket Cloud REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	textClient *http.Client
	auth       authenticator
	logger     *slog.Logger
}

// NewClient creates a Bitbucket API client from the given configuration.
// Returns an error if the configuration is invalid (no or conflicting
// authentication, non-HTTPS URL).
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("bitbucket: API client requires HTTPS (got %q)", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hasToken := config.Token != "" || config.TokenSource != nil
	hasBasic := config.Username != "" || config.Password != ""

	if config.Token != "" && config.TokenSource != nil {
		return nil, fmt.Errorf("bitbucket: cannot configure both Token and TokenSource")
	}
	if hasToken && hasBasic {
		return nil, fmt.Errorf("bitbucket: cannot configure both token auth and username/password auth")
	}
	if !hasToken && !hasBasic {
		return nil, fmt.Errorf("bitbucket: no authentication configured (set Token, TokenSource, or Username+Password)")
	}

	var auth authenticator
	switch {
	case config.TokenSource != nil:
		auth = newTokenAuth(config.TokenSource)
	case hasToken:
		auth = newStaticTokenAuth(config.Token)
	default:
		if config.Username == "" {
			return nil, fmt.Errorf("bitbucket: Username is required with Password")
		}
		if config.Password == "" {
			return nil, fmt.Errorf("bitbucket: Password is required with Username")
		}
		auth = newBasicAuth(config.Username, config.Password)
	}

	textClient := *httpClient
	textClient.CheckRedirect = func(request *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("bitbucket: stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		textClient: &textClient,
		auth:       auth,
		logger:     logger,
	}, nil
}

// BaseURL returns the API root the client was configured with, without
// a trailing slash.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// do executes an authenticated JSON API request. The path is relative to
// the base URL (e.g., "/repositories/ws/repo"); query may be nil. The
// request body, if non-nil, is JSON-encoded.
//
// Returns the raw response body. On non-2xx responses, returns an
// *APIError.
func (client *Client) do(ctx context.Context, method, path string, query url.Values, requestBody any) ([]byte, error) {
	requestURL := client.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	response, err := client.doRaw(ctx, client.httpClient, method, requestURL, "application/json", requestBody)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := readBody(response.Body, maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("bitbucket: reading response body: %w", err)
	}

	client.logger.Debug("bitbucket request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, parseAPIErrorFromBody(response.StatusCode, body)
	}
	return body, nil
}

// doText executes an authenticated GET for a plain-text resource at an
// absolute URL, following up to maxRedirects redirects.
func (client *Client) doText(ctx context.Context, requestURL string) (string, error) {
	response, err := client.doRaw(ctx, client.textClient, http.MethodGet, requestURL, "text/plain", nil)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	client.logger.Debug("bitbucket text request",
		"url", requestURL,
		"final_url", response.Request.URL.String(),
		"status", response.StatusCode,
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body, _ := readBody(response.Body, maxResponseSize)
		return "", parseAPIErrorFromBody(response.StatusCode, body)
	}

	text, err := readBody(response.Body, maxTextSize)
	if err != nil {
		return "", fmt.Errorf("bitbucket: reading response body: %w", err)
	}
	return string(text), nil
}

// doRaw executes an HTTP request with authentication but without
// response parsing. The caller is responsible for closing the response
// body.
func (client *Client) doRaw(ctx context.Context, httpClient *http.Client, method, requestURL, accept string, requestBody any) (*http.Response, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("bitbucket: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("bitbucket: creating request: %w", err)
	}

	authHeader, err := client.auth.AuthorizationHeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("bitbucket: authentication: %w", err)
	}
	request.Header.Set("Authorization", authHeader)
	request.Header.Set("Accept", accept)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("bitbucket: %s %s: %w", method, requestURL, err)
	}
	return response, nil
}

// getRaw is a convenience method for GET requests whose JSON body is
// handed back to the caller unparsed.
func (client *Client) getRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	body, err := client.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return rawOrEmpty(body), nil
}

// get is a convenience method for GET requests that decode into result.
func (client *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	body, err := client.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// send is a convenience method for POST, PUT, and DELETE requests whose
// response body (possibly empty) is returned unparsed.
func (client *Client) send(ctx context.Context, method, path string, requestBody any) (json.RawMessage, error) {
	body, err := client.do(ctx, method, path, nil, requestBody)
	if err != nil {
		return nil, err
	}
	return rawOrEmpty(body), nil
}

// rawOrEmpty converts a response body to a RawMessage. Empty bodies
// (204 No Content) become nil so callers can tell them apart from JSON.
func rawOrEmpty(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.RawMessage(body)
}

// repositoryPath builds "/repositories/{workspace}/{repoSlug}" followed
// by any extra path segments, escaping each element.
func repositoryPath(workspace, repoSlug string, segments ...string) string {
	var builder strings.Builder
	builder.WriteString("/repositories/")
	builder.WriteString(url.PathEscape(workspace))
	builder.WriteString("/")
	builder.WriteString(url.PathEscape(repoSlug))
	for _, segment := range segments {
		builder.WriteString("/")
		builder.WriteString(url.PathEscape(segment))
	}
	return builder.String()
}

// pageQuery returns a query with pagelen set when positive.
func pageQuery(pageLen int) url.Values {
	query := url.Values{}
	if pageLen > 0 {
		query.Set("pagelen", fmt.Sprint(pageLen))
	}
	return query
}
