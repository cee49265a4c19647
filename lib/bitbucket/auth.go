// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// authenticator provides Authorization header values for Bitbucket API
// requests.
type authenticator interface {
	// AuthorizationHeader returns a complete Authorization header value
	// (e.g., "Bearer xyz" or "Basic dXNlcjpwYXNz").
	AuthorizationHeader(ctx context.Context) (string, error)
}

// tokenAuth authenticates with a bearer token from an
// oauth2.TokenSource: a static access token, or Config.TokenSource
// (for example an OAuth consumer's client-credentials flow, which
// refreshes the token as it expires).
type tokenAuth struct {
	source oauth2.TokenSource
}

func newTokenAuth(source oauth2.TokenSource) *tokenAuth {
	return &tokenAuth{source: source}
}

func newStaticTokenAuth(token string) *tokenAuth {
	return newTokenAuth(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

func (auth *tokenAuth) AuthorizationHeader(_ context.Context) (string, error) {
	token, err := auth.source.Token()
	if err != nil {
		return "", fmt.Errorf("bitbucket: obtaining access token: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("bitbucket: token source returned an empty access token")
	}
	return token.Type() + " " + token.AccessToken, nil
}

// basicAuth authenticates with a username and app password.
type basicAuth struct {
	header string
}

func newBasicAuth(username, password string) *basicAuth {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &basicAuth{header: "Basic " + encoded}
}

func (auth *basicAuth) AuthorizationHeader(_ context.Context) (string, error) {
	return auth.header, nil
}
