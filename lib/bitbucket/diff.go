// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetPullRequestDiff returns the unified diff of a pull request as raw
// text.
//
// Bitbucket has no single endpoint that reliably serves a pull request
// diff, so this takes two steps: fetch the pull request to learn its
// source and destination commit hashes, then request the repository
// diff between those commits scoped to the pull request. The diff
// endpoint often redirects to object storage; up to five redirects are
// followed. Neither step is retried.
func (client *Client) GetPullRequestDiff(ctx context.Context, workspace, repoSlug string, pullRequestID int) (string, error) {
	pullRequest, err := client.GetPullRequest(ctx, workspace, repoSlug, pullRequestID)
	if err != nil {
		return "", err
	}

	var sourceHash, destinationHash string
	if pullRequest.Source.Commit != nil {
		sourceHash = pullRequest.Source.Commit.Hash
	}
	if pullRequest.Destination.Commit != nil {
		destinationHash = pullRequest.Destination.Commit.Hash
	}
	if sourceHash == "" || destinationHash == "" {
		return "", fmt.Errorf("getting diff of pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, ErrMissingCommit)
	}

	diff, err := client.doText(ctx, client.diffURL(workspace, repoSlug, sourceHash, destinationHash, pullRequestID))
	if err != nil {
		return "", fmt.Errorf("getting diff of pull request %s/%s#%d: %w", workspace, repoSlug, pullRequestID, err)
	}
	return diff, nil
}

// diffURL builds the repository diff URL between two commits, scoped to
// a pull request. topic=true asks for the diff against the merge base,
// which is what the pull request page shows.
func (client *Client) diffURL(workspace, repoSlug, sourceHash, destinationHash string, pullRequestID int) string {
	revisions := url.PathEscape(sourceHash) + ".." + url.PathEscape(destinationHash)
	query := url.Values{}
	query.Set("from_pullrequest_id", strconv.Itoa(pullRequestID))
	query.Set("topic", "true")
	return client.baseURL + repositoryPath(workspace, repoSlug, "diff") + "/" + revisions + "?" + query.Encode()
}
