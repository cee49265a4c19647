// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"strings"

	"github.com/bureau-foundation/bitbucket-mcp/lib/review"
)

type pendingReviewParams struct {
	WorkspaceParams
	Limit          int      `json:"limit" desc:"Maximum number of pull requests to return" default:"50"`
	RepositoryList []string `json:"repositoryList" desc:"Repository slugs to search; all repositories in the workspace (up to 100) when omitted"`
}

func (set *Toolset) getPendingReviewPRs() Tool {
	return define(set, "getPendingReviewPRs",
		"List open pull requests across the workspace where the configured user is a reviewer who has not yet approved, most recently updated first",
		ReadOnly(),
		func(ctx context.Context, params *pendingReviewParams) (any, error) {
			if set.user == "" {
				return nil, Validation("no current user configured: set BITBUCKET_USERNAME")
			}
			var repositories []string
			for _, slug := range params.RepositoryList {
				if slug = strings.TrimSpace(slug); slug != "" {
					repositories = append(repositories, slug)
				}
			}
			return set.aggregator.PendingReviews(ctx, review.Request{
				Workspace:    params.Workspace,
				User:         set.user,
				Limit:        params.Limit,
				Repositories: repositories,
			})
		})
}
