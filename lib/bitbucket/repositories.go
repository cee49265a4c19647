// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ListRepositoriesOptions controls filtering for ListRepositories.
type ListRepositoriesOptions struct {
	// Name filters repositories whose name contains this substring.
	Name string

	// PageLen is the number of repositories to return (max 100).
	PageLen int
}

func (options ListRepositoriesOptions) query() url.Values {
	query := pageQuery(options.PageLen)
	if options.Name != "" {
		query.Set("q", fmt.Sprintf("name ~ %q", options.Name))
	}
	return query
}

// ListRepositoriesRaw returns the first page of repositories in a
// workspace as upstream JSON.
func (client *Client) ListRepositoriesRaw(ctx context.Context, workspace string, options ListRepositoriesOptions) (json.RawMessage, error) {
	path := "/repositories/" + url.PathEscape(workspace)
	body, err := client.getRaw(ctx, path, options.query())
	if err != nil {
		return nil, fmt.Errorf("listing repositories in %s: %w", workspace, err)
	}
	return body, nil
}

// ListRepositories returns the first page of repositories in a workspace.
func (client *Client) ListRepositories(ctx context.Context, workspace string, options ListRepositoriesOptions) ([]Repository, error) {
	var page Page[Repository]
	path := "/repositories/" + url.PathEscape(workspace)
	if err := client.get(ctx, path, options.query(), &page); err != nil {
		return nil, fmt.Errorf("listing repositories in %s: %w", workspace, err)
	}
	return page.Values, nil
}

// GetRepository returns a single repository as upstream JSON.
func (client *Client) GetRepository(ctx context.Context, workspace, repoSlug string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, repositoryPath(workspace, repoSlug), nil)
	if err != nil {
		return nil, fmt.Errorf("getting repository %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// RepositorySlug returns the slug Bitbucket uses in URLs for a
// repository, falling back to the last component of its full name and
// then to its display name.
func (repository Repository) RepositorySlug() string {
	if repository.Slug != "" {
		return repository.Slug
	}
	if _, slug, ok := strings.Cut(repository.FullName, "/"); ok && slug != "" {
		return slug
	}
	return repository.Name
}
