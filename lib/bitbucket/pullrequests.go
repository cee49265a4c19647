// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ListPullRequestsOptions controls filtering for ListPullRequests.
type ListPullRequestsOptions struct {
	// State is one of OPEN, MERGED, DECLINED, SUPERSEDED. Empty means
	// Bitbucket's default (OPEN).
	State string

	// PageLen is the number of pull requests to return (max 50).
	PageLen int

	// Fields restricts the response to the listed fields using
	// Bitbucket's partial response syntax (e.g., "values.id").
	Fields []string
}

func (options ListPullRequestsOptions) query() url.Values {
	query := pageQuery(options.PageLen)
	if options.State != "" {
		query.Set("state", options.State)
	}
	if len(options.Fields) > 0 {
		query.Set("fields", strings.Join(options.Fields, ","))
	}
	return query
}

// EndpointRef names a branch for a pull request being created.
type EndpointRef struct {
	Branch Branch `json:"branch"`
}

// AccountRef identifies a reviewer by UUID or Atlassian account ID.
type AccountRef struct {
	UUID      string `json:"uuid,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// ReviewerRef converts a reviewer identifier into an AccountRef. Values
// wrapped in braces are UUIDs; anything else is taken as an account ID.
func ReviewerRef(identifier string) AccountRef {
	if strings.HasPrefix(identifier, "{") && strings.HasSuffix(identifier, "}") {
		return AccountRef{UUID: identifier}
	}
	return AccountRef{AccountID: identifier}
}

// CreatePullRequestRequest contains the fields for opening a pull request.
type CreatePullRequestRequest struct {
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	Source            EndpointRef  `json:"source"`
	Destination       EndpointRef  `json:"destination"`
	Reviewers         []AccountRef `json:"reviewers,omitempty"`
	CloseSourceBranch bool         `json:"close_source_branch,omitempty"`
	Draft             bool         `json:"draft,omitempty"`
}

// UpdatePullRequestRequest contains the mutable fields of a pull request.
// Empty fields are left unchanged.
type UpdatePullRequestRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// DeclineRequest optionally explains why a pull request is declined.
type DeclineRequest struct {
	Message string `json:"message,omitempty"`
}

// MergeRequest controls how a pull request is merged.
type MergeRequest struct {
	Message           string `json:"message,omitempty"`
	MergeStrategy     string `json:"merge_strategy,omitempty"`
	CloseSourceBranch *bool  `json:"close_source_branch,omitempty"`
}

// draftRequest toggles the draft flag of a pull request.
type draftRequest struct {
	Draft bool `json:"draft"`
}

func pullRequestPath(workspace, repoSlug string, pullRequestID int, segments ...string) string {
	return repositoryPath(workspace, repoSlug, append([]string{"pullrequests", strconv.Itoa(pullRequestID)}, segments...)...)
}

// ListPullRequestsRaw returns the first page of pull requests as
// upstream JSON.
func (client *Client) ListPullRequestsRaw(ctx context.Context, workspace, repoSlug string, options ListPullRequestsOptions) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, repositoryPath(workspace, repoSlug, "pullrequests"), options.query())
	if err != nil {
		return nil, fmt.Errorf("listing pull requests in %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// ListPullRequests returns the first page of pull requests in a
// repository.
func (client *Client) ListPullRequests(ctx context.Context, workspace, repoSlug string, options ListPullRequestsOptions) ([]PullRequest, error) {
	var page Page[PullRequest]
	if err := client.get(ctx, repositoryPath(workspace, repoSlug, "pullrequests"), options.query(), &page); err != nil {
		return nil, fmt.Errorf("listing pull requests in %s/%s: %w", workspace, repoSlug, err)
	}
	return page.Values, nil
}

// GetPullRequestRaw returns a single pull request as upstream JSON.
func (client *Client) GetPullRequestRaw(ctx context.Context, workspace, repoSlug string, pullRequestID int) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, pullRequestPath(workspace, repoSlug, pullRequestID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// GetPullRequest retrieves a single pull request.
func (client *Client) GetPullRequest(ctx context.Context, workspace, repoSlug string, pullRequestID int) (*PullRequest, error) {
	var pullRequest PullRequest
	if err := client.get(ctx, pullRequestPath(workspace, repoSlug, pullRequestID), nil, &pullRequest); err != nil {
		return nil, fmt.Errorf("getting pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return &pullRequest, nil
}

// CreatePullRequest opens a pull request.
func (client *Client) CreatePullRequest(ctx context.Context, workspace, repoSlug string, request CreatePullRequestRequest) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPost, repositoryPath(workspace, repoSlug, "pullrequests"), request)
	if err != nil {
		return nil, fmt.Errorf("creating pull request in %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// UpdatePullRequest changes the title and/or description of a pull
// request.
func (client *Client) UpdatePullRequest(ctx context.Context, workspace, repoSlug string, pullRequestID int, request UpdatePullRequestRequest) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPut, pullRequestPath(workspace, repoSlug, pullRequestID), request)
	if err != nil {
		return nil, fmt.Errorf("updating pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// SetPullRequestDraft marks a pull request as draft or ready for review.
func (client *Client) SetPullRequestDraft(ctx context.Context, workspace, repoSlug string, pullRequestID int, draft bool) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPut, pullRequestPath(workspace, repoSlug, pullRequestID), draftRequest{Draft: draft})
	if err != nil {
		return nil, fmt.Errorf("setting draft=%t on pull request %s/%s#%d: %w", draft, workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// GetPullRequestActivity returns the activity log (comments, approvals,
// updates) of a pull request.
func (client *Client) GetPullRequestActivity(ctx context.Context, workspace, repoSlug string, pullRequestID int) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, pullRequestPath(workspace, repoSlug, pullRequestID, "activity"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting activity of pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// ApprovePullRequest approves a pull request as the authenticated user.
func (client *Client) ApprovePullRequest(ctx context.Context, workspace, repoSlug string, pullRequestID int) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPost, pullRequestPath(workspace, repoSlug, pullRequestID, "approve"), nil)
	if err != nil {
		return nil, fmt.Errorf("approving pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// UnapprovePullRequest withdraws the authenticated user's approval.
// Bitbucket answers with 204 No Content.
func (client *Client) UnapprovePullRequest(ctx context.Context, workspace, repoSlug string, pullRequestID int) error {
	if _, err := client.send(ctx, http.MethodDelete, pullRequestPath(workspace, repoSlug, pullRequestID, "approve"), nil); err != nil {
		return fmt.Errorf("unapproving pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return nil
}

// DeclinePullRequest declines a pull request.
func (client *Client) DeclinePullRequest(ctx context.Context, workspace, repoSlug string, pullRequestID int, request DeclineRequest) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPost, pullRequestPath(workspace, repoSlug, pullRequestID, "decline"), request)
	if err != nil {
		return nil, fmt.Errorf("declining pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// MergePullRequest merges a pull request.
func (client *Client) MergePullRequest(ctx context.Context, workspace, repoSlug string, pullRequestID int, request MergeRequest) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPost, pullRequestPath(workspace, repoSlug, pullRequestID, "merge"), request)
	if err != nil {
		return nil, fmt.Errorf("merging pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// GetPullRequestCommits returns the first page of commits on a pull
// request.
func (client *Client) GetPullRequestCommits(ctx context.Context, workspace, repoSlug string, pullRequestID int) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, pullRequestPath(workspace, repoSlug, pullRequestID, "commits"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting commits of pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}
