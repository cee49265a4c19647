// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

type listRepositoriesParams struct {
	WorkspaceParams
	Limit int    `json:"limit" desc:"Maximum number of repositories to return (1-100)" default:"10"`
	Name  string `json:"name" desc:"Only return repositories whose name contains this text"`
}

func (set *Toolset) listRepositories() Tool {
	return define(set, "listRepositories",
		"List repositories in a Bitbucket workspace",
		ReadOnly(),
		func(ctx context.Context, params *listRepositoriesParams) (any, error) {
			return set.client.ListRepositoriesRaw(ctx, params.Workspace, bitbucket.ListRepositoriesOptions{
				Name:    params.Name,
				PageLen: pageLength(params.Limit, 100),
			})
		})
}

func (set *Toolset) getRepository() Tool {
	return define(set, "getRepository",
		"Get details for a Bitbucket repository",
		ReadOnly(),
		func(ctx context.Context, params *RepositoryParams) (any, error) {
			return set.client.GetRepository(ctx, params.Workspace, params.RepoSlug)
		})
}
