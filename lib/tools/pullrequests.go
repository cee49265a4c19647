// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"strings"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

// Messages returned by tools whose Bitbucket endpoint answers with no
// body.
const (
	unapprovedMessage = "Pull request approval removed successfully."
)

type getPullRequestsParams struct {
	RepositoryParams
	State string `json:"state" desc:"Pull request state to filter by" enum:"OPEN,MERGED,DECLINED,SUPERSEDED"`
	Limit int    `json:"limit" desc:"Maximum number of pull requests to return (1-50)" default:"10"`
}

func (set *Toolset) getPullRequests() Tool {
	return define(set, "getPullRequests",
		"List pull requests in a repository",
		ReadOnly(),
		func(ctx context.Context, params *getPullRequestsParams) (any, error) {
			return set.client.ListPullRequestsRaw(ctx, params.Workspace, params.RepoSlug, bitbucket.ListPullRequestsOptions{
				State:   params.State,
				PageLen: pageLength(params.Limit, 50),
			})
		})
}

// newPullRequestParams are shared by createPullRequest and
// createDraftPullRequest.
type newPullRequestParams struct {
	RepositoryParams
	Title        string   `json:"title" desc:"Pull request title" required:"true"`
	Description  string   `json:"description" desc:"Pull request description (Markdown)"`
	SourceBranch string   `json:"sourceBranch" desc:"Branch containing the changes" required:"true"`
	TargetBranch string   `json:"targetBranch" desc:"Branch to merge into" required:"true"`
	Reviewers    []string `json:"reviewers" desc:"Reviewer account IDs, or UUIDs in braces"`
}

func (params *newPullRequestParams) request(draft bool) bitbucket.CreatePullRequestRequest {
	request := bitbucket.CreatePullRequestRequest{
		Title:       params.Title,
		Description: params.Description,
		Source:      bitbucket.EndpointRef{Branch: bitbucket.Branch{Name: params.SourceBranch}},
		Destination: bitbucket.EndpointRef{Branch: bitbucket.Branch{Name: params.TargetBranch}},
		Draft:       draft,
	}
	for _, reviewer := range params.Reviewers {
		if reviewer = strings.TrimSpace(reviewer); reviewer != "" {
			request.Reviewers = append(request.Reviewers, bitbucket.ReviewerRef(reviewer))
		}
	}
	return request
}

type createPullRequestParams struct {
	newPullRequestParams
	Draft bool `json:"draft" desc:"Create the pull request as a draft"`
}

func (set *Toolset) createPullRequest() Tool {
	return define(set, "createPullRequest",
		"Create a new pull request",
		Create(),
		func(ctx context.Context, params *createPullRequestParams) (any, error) {
			return set.client.CreatePullRequest(ctx, params.Workspace, params.RepoSlug, params.request(params.Draft))
		})
}

func (set *Toolset) createDraftPullRequest() Tool {
	return define(set, "createDraftPullRequest",
		"Create a new draft pull request",
		Create(),
		func(ctx context.Context, params *newPullRequestParams) (any, error) {
			return set.client.CreatePullRequest(ctx, params.Workspace, params.RepoSlug, params.request(true))
		})
}

func (set *Toolset) getPullRequest() Tool {
	return define(set, "getPullRequest",
		"Get details for a pull request",
		ReadOnly(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.GetPullRequestRaw(ctx, params.Workspace, params.RepoSlug, params.PullRequestID)
		})
}

type updatePullRequestParams struct {
	PullRequestParams
	Title       string `json:"title" desc:"New pull request title"`
	Description string `json:"description" desc:"New pull request description"`
}

func (set *Toolset) updatePullRequest() Tool {
	return define(set, "updatePullRequest",
		"Update the title or description of a pull request",
		Idempotent(),
		func(ctx context.Context, params *updatePullRequestParams) (any, error) {
			if params.Title == "" && params.Description == "" {
				return nil, Validation("nothing to update: pass %q or %q", "title", "description")
			}
			return set.client.UpdatePullRequest(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, bitbucket.UpdatePullRequestRequest{
				Title:       params.Title,
				Description: params.Description,
			})
		})
}

func (set *Toolset) getPullRequestActivity() Tool {
	return define(set, "getPullRequestActivity",
		"Get the activity log of a pull request: comments, approvals, and updates",
		ReadOnly(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.GetPullRequestActivity(ctx, params.Workspace, params.RepoSlug, params.PullRequestID)
		})
}

func (set *Toolset) approvePullRequest() Tool {
	return define(set, "approvePullRequest",
		"Approve a pull request as the authenticated user",
		Idempotent(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.ApprovePullRequest(ctx, params.Workspace, params.RepoSlug, params.PullRequestID)
		})
}

func (set *Toolset) unapprovePullRequest() Tool {
	return define(set, "unapprovePullRequest",
		"Remove the authenticated user's approval from a pull request",
		Idempotent(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			if err := set.client.UnapprovePullRequest(ctx, params.Workspace, params.RepoSlug, params.PullRequestID); err != nil {
				return nil, err
			}
			return unapprovedMessage, nil
		})
}

type declinePullRequestParams struct {
	PullRequestParams
	Message string `json:"message" desc:"Reason for declining"`
}

func (set *Toolset) declinePullRequest() Tool {
	return define(set, "declinePullRequest",
		"Decline a pull request",
		Destructive(),
		func(ctx context.Context, params *declinePullRequestParams) (any, error) {
			return set.client.DeclinePullRequest(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, bitbucket.DeclineRequest{
				Message: params.Message,
			})
		})
}

type mergePullRequestParams struct {
	PullRequestParams
	Message  string `json:"message" desc:"Merge commit message"`
	Strategy string `json:"strategy" desc:"Merge strategy" enum:"merge-commit,squash,fast-forward"`
}

func (set *Toolset) mergePullRequest() Tool {
	return define(set, "mergePullRequest",
		"Merge a pull request",
		Destructive(),
		func(ctx context.Context, params *mergePullRequestParams) (any, error) {
			return set.client.MergePullRequest(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, bitbucket.MergeRequest{
				Message:       params.Message,
				MergeStrategy: mergeStrategy(params.Strategy),
			})
		})
}

// mergeStrategy maps the tool's strategy names onto Bitbucket's
// merge_strategy values.
func mergeStrategy(strategy string) string {
	switch strategy {
	case "merge-commit":
		return "merge_commit"
	case "fast-forward":
		return "fast_forward"
	default:
		return strategy
	}
}

func (set *Toolset) getPullRequestDiff() Tool {
	return define(set, "getPullRequestDiff",
		"Get the unified diff of a pull request as raw text",
		ReadOnly(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.GetPullRequestDiff(ctx, params.Workspace, params.RepoSlug, params.PullRequestID)
		})
}

func (set *Toolset) getPullRequestCommits() Tool {
	return define(set, "getPullRequestCommits",
		"List the commits of a pull request",
		ReadOnly(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.GetPullRequestCommits(ctx, params.Workspace, params.RepoSlug, params.PullRequestID)
		})
}

func (set *Toolset) publishDraftPullRequest() Tool {
	return define(set, "publishDraftPullRequest",
		"Mark a draft pull request as ready for review",
		Idempotent(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.SetPullRequestDraft(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, false)
		})
}

func (set *Toolset) convertTodraft() Tool {
	return define(set, "convertTodraft",
		"Convert an open pull request to a draft",
		Idempotent(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.SetPullRequestDraft(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, true)
		})
}
