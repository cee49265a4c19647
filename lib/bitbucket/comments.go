// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// commentPageLen is the page length used when listing comments. It is
// Bitbucket's maximum for this endpoint.
const commentPageLen = 100

// CommentRequest contains the fields for creating or editing a pull
// request comment. Pending is a pointer so an edit can explicitly clear
// the flag.
type CommentRequest struct {
	Content CommentContent `json:"content"`
	Inline  *Inline        `json:"inline,omitempty"`
	Parent  *CommentParent `json:"parent,omitempty"`
	Pending *bool          `json:"pending,omitempty"`
}

// GetPullRequestComments returns the first page of comments on a pull
// request as upstream JSON.
func (client *Client) GetPullRequestComments(ctx context.Context, workspace, repoSlug string, pullRequestID int) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, pullRequestPath(workspace, repoSlug, pullRequestID, "comments"), pageQuery(commentPageLen))
	if err != nil {
		return nil, fmt.Errorf("getting comments of pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// ListPullRequestComments returns the first page of comments on a pull
// request.
func (client *Client) ListPullRequestComments(ctx context.Context, workspace, repoSlug string, pullRequestID int) ([]Comment, error) {
	var page Page[Comment]
	if err := client.get(ctx, pullRequestPath(workspace, repoSlug, pullRequestID, "comments"), pageQuery(commentPageLen), &page); err != nil {
		return nil, fmt.Errorf("listing comments of pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return page.Values, nil
}

// CreatePullRequestComment posts a comment on a pull request. Set
// Parent to reply to an existing comment, Inline to anchor it to the
// diff, and Pending to hold it back until the review is published.
func (client *Client) CreatePullRequestComment(ctx context.Context, workspace, repoSlug string, pullRequestID int, request CommentRequest) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPost, pullRequestPath(workspace, repoSlug, pullRequestID, "comments"), request)
	if err != nil {
		return nil, fmt.Errorf("commenting on pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}

// UpdatePullRequestComment edits an existing pull request comment.
func (client *Client) UpdatePullRequestComment(ctx context.Context, workspace, repoSlug string, pullRequestID, commentID int, request CommentRequest) (json.RawMessage, error) {
	path := pullRequestPath(workspace, repoSlug, pullRequestID, "comments", strconv.Itoa(commentID))
	body, err := client.send(ctx, http.MethodPut, path, request)
	if err != nil {
		return nil, fmt.Errorf("updating comment %d on pull request %s/%s#%d: %w", commentID, workspace, repoSlug, pullRequestID, err)
	}
	return body, nil
}
