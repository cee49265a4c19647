// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package review finds open pull requests that are waiting on a review
// from a given user across the repositories of a Bitbucket workspace.
//
// The scan is bounded: at most 100 repositories are considered when no
// explicit list is given, repositories are queried in batches of
// [BatchSize] with the batch members running concurrently, and scanning
// stops at the first batch boundary where enough results have been
// collected. A repository whose pull requests cannot be listed is
// logged and skipped. A failure to list the workspace itself aborts the
// scan.
package review

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

const (
	// BatchSize is the number of repositories queried concurrently.
	BatchSize = 5

	// DefaultLimit is the result limit used when the caller passes zero.
	DefaultLimit = 50

	// maxRepositories bounds the workspace listing when no explicit
	// repository list is given.
	maxRepositories = 100

	// maxPullRequestsPerRepository is Bitbucket's page length cap for
	// the pull request listing.
	maxPullRequestsPerRepository = 50
)

// pullRequestFields restricts per-repository listings to what the
// review filter and the caller need.
var pullRequestFields = []string{
	"values.id",
	"values.title",
	"values.state",
	"values.draft",
	"values.created_on",
	"values.updated_on",
	"values.author",
	"values.source",
	"values.destination",
	"values.participants",
	"values.links",
}

var (
	// ErrMissingWorkspace is returned when a scan has no workspace.
	ErrMissingWorkspace = errors.New("review: workspace is required")

	// ErrMissingUser is returned when no reviewer identity is configured.
	ErrMissingUser = errors.New("review: current user is not configured")
)

// Client is the subset of the Bitbucket API the aggregator uses.
// *bitbucket.Client satisfies it.
type Client interface {
	ListRepositories(ctx context.Context, workspace string, options bitbucket.ListRepositoriesOptions) ([]bitbucket.Repository, error)
	ListPullRequests(ctx context.Context, workspace, repoSlug string, options bitbucket.ListPullRequestsOptions) ([]bitbucket.PullRequest, error)
}

// Request describes one pending-review scan.
type Request struct {
	Workspace string

	// User is the reviewer to look for: a nickname, username, account
	// ID, or UUID.
	User string

	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int

	// Repositories, when non-empty, is the exact set of repository
	// slugs to scan and the workspace is not listed.
	Repositories []string
}

// RepositoryRef names the repository a pending pull request lives in.
type RepositoryRef struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// PendingPullRequest is a pull request awaiting the user's review,
// tagged with its repository.
type PendingPullRequest struct {
	bitbucket.PullRequest
	Repository RepositoryRef `json:"repository"`
}

// Result is the outcome of a scan.
type Result struct {
	PullRequests []PendingPullRequest `json:"pending_review_prs"`
	TotalFound   int                  `json:"total_found"`

	// SearchedRepositories counts the repositories actually queried,
	// including ones that failed. It is below the scope size when the
	// limit was reached before the last batch.
	SearchedRepositories int    `json:"searched_repositories"`
	User                 string `json:"user"`
	Workspace            string `json:"workspace"`
}

// target is one repository in scope: the slug used in API paths plus
// the names reported back to the caller.
type target struct {
	slug     string
	name     string
	fullName string
}

// Aggregator runs pending-review scans. It holds no state between
// scans and is safe for concurrent use.
type Aggregator struct {
	client Client
	logger *slog.Logger
}

// NewAggregator creates an Aggregator. A nil logger means slog.Default().
func NewAggregator(client Client, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{client: client, logger: logger}
}

// PendingReviews returns open pull requests in which request.User is a
// reviewer who has not approved, newest update first.
func (aggregator *Aggregator) PendingReviews(ctx context.Context, request Request) (*Result, error) {
	if request.Workspace == "" {
		return nil, ErrMissingWorkspace
	}
	if request.User == "" {
		return nil, ErrMissingUser
	}
	limit := request.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	targets, err := aggregator.resolveScope(ctx, request.Workspace, request.Repositories)
	if err != nil {
		return nil, err
	}

	options := bitbucket.ListPullRequestsOptions{
		State:   bitbucket.StateOpen,
		PageLen: min(limit, maxPullRequestsPerRepository),
		Fields:  pullRequestFields,
	}

	var found []PendingPullRequest
	scanned := 0
scan:
	for start := 0; start < len(targets); start += BatchSize {
		batch := targets[start:min(start+BatchSize, len(targets))]
		scanned += len(batch)
		for _, pending := range aggregator.scanBatch(ctx, request.Workspace, request.User, batch, options) {
			found = append(found, pending...)
			if len(found) >= limit {
				break scan
			}
		}
	}

	if len(found) > limit {
		found = found[:limit]
	}
	slices.SortStableFunc(found, func(a, b PendingPullRequest) int {
		return b.UpdatedOn.Compare(a.UpdatedOn)
	})
	if found == nil {
		found = []PendingPullRequest{}
	}

	return &Result{
		PullRequests:         found,
		TotalFound:           len(found),
		SearchedRepositories: scanned,
		User:                 request.User,
		Workspace:            request.Workspace,
	}, nil
}

// resolveScope returns the explicit repository list as targets, or the
// first page of the workspace listing when the list is empty.
func (aggregator *Aggregator) resolveScope(ctx context.Context, workspace string, repositories []string) ([]target, error) {
	if len(repositories) > 0 {
		targets := make([]target, 0, len(repositories))
		for _, slug := range repositories {
			targets = append(targets, target{slug: slug, name: slug, fullName: workspace + "/" + slug})
		}
		return targets, nil
	}

	listed, err := aggregator.client.ListRepositories(ctx, workspace, bitbucket.ListRepositoriesOptions{PageLen: maxRepositories})
	if err != nil {
		return nil, err
	}
	targets := make([]target, 0, len(listed))
	for _, repository := range listed {
		slug := repository.RepositorySlug()
		if slug == "" {
			continue
		}
		fullName := repository.FullName
		if fullName == "" {
			fullName = workspace + "/" + slug
		}
		name := repository.Name
		if name == "" {
			name = slug
		}
		targets = append(targets, target{slug: slug, name: name, fullName: fullName})
	}
	return targets, nil
}

// scanBatch lists open pull requests for every target in the batch
// concurrently and returns the matching ones per target, in batch
// order. Failed targets contribute nothing.
func (aggregator *Aggregator) scanBatch(ctx context.Context, workspace, user string, batch []target, options bitbucket.ListPullRequestsOptions) [][]PendingPullRequest {
	results := make([][]PendingPullRequest, len(batch))
	var group errgroup.Group
	for index, repository := range batch {
		group.Go(func() error {
			pullRequests, err := aggregator.client.ListPullRequests(ctx, workspace, repository.slug, options)
			if err != nil {
				aggregator.logger.Warn("skipping repository in pending review scan",
					"workspace", workspace,
					"repository", repository.slug,
					"error", err,
				)
				return nil
			}
			for _, pullRequest := range pullRequests {
				if !awaitsReview(pullRequest, user) {
					continue
				}
				results[index] = append(results[index], PendingPullRequest{
					PullRequest: pullRequest,
					Repository:  RepositoryRef{Name: repository.name, FullName: repository.fullName},
				})
			}
			return nil
		})
	}
	// Goroutines never return errors; failures are logged above.
	_ = group.Wait()
	return results
}

// awaitsReview reports whether user is a reviewer on the pull request
// who has not yet approved it.
func awaitsReview(pullRequest bitbucket.PullRequest, user string) bool {
	for _, participant := range pullRequest.Participants {
		if participant.Role == bitbucket.RoleReviewer && !participant.Approved && MatchesUser(participant.User, user) {
			return true
		}
	}
	return false
}

// MatchesUser reports whether identity names the given account. The
// comparison is case-insensitive against the nickname, username,
// account ID, and UUID; braces around UUIDs are optional on either side.
func MatchesUser(account bitbucket.Account, identity string) bool {
	identity = normalizeIdentity(identity)
	if identity == "" {
		return false
	}
	for _, candidate := range []string{account.Nickname, account.Username, account.AccountID, account.UUID} {
		if candidate != "" && strings.EqualFold(normalizeIdentity(candidate), identity) {
			return true
		}
	}
	return false
}

func normalizeIdentity(identity string) string {
	identity = strings.TrimSpace(identity)
	return strings.TrimSuffix(strings.TrimPrefix(identity, "{"), "}")
}
