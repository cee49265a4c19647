// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"log/slog"
	"strings"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
	"github.com/bureau-foundation/bitbucket-mcp/lib/review"
)

// Config holds what the tool handlers need. It is built once at
// startup; handlers never read the environment.
type Config struct {
	// Client performs all Bitbucket requests.
	Client *bitbucket.Client

	// Workspace is used when a call does not name one.
	Workspace string

	// User identifies the current user for getPendingReviewPRs: a
	// Bitbucket nickname, username, account ID, or UUID.
	User string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Toolset is the catalog of Bitbucket tools bound to one client.
type Toolset struct {
	client     *bitbucket.Client
	aggregator *review.Aggregator
	workspace  string
	user       string
	logger     *slog.Logger

	tools  []Tool
	byName map[string]int
}

// New builds the toolset and its catalog.
func New(config Config) *Toolset {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	set := &Toolset{
		client:     config.Client,
		aggregator: review.NewAggregator(config.Client, logger),
		workspace:  strings.TrimSpace(config.Workspace),
		user:       strings.TrimSpace(config.User),
		logger:     logger,
	}
	set.tools = set.declare()
	set.byName = make(map[string]int, len(set.tools))
	for index, tool := range set.tools {
		set.byName[tool.Name] = index
	}
	return set
}

// Catalog returns every tool in declaration order.
func (set *Toolset) Catalog() []Tool {
	return set.tools
}

// Lookup returns the tool with the given name.
func (set *Toolset) Lookup(name string) (Tool, bool) {
	index, ok := set.byName[name]
	if !ok {
		return Tool{}, false
	}
	return set.tools[index], true
}

// declare lists the catalog. The order and names are the external
// contract.
func (set *Toolset) declare() []Tool {
	return []Tool{
		set.listRepositories(),
		set.getRepository(),
		set.getPullRequests(),
		set.createPullRequest(),
		set.getPullRequest(),
		set.updatePullRequest(),
		set.getPullRequestActivity(),
		set.approvePullRequest(),
		set.unapprovePullRequest(),
		set.declinePullRequest(),
		set.mergePullRequest(),
		set.getPullRequestComments(),
		set.getPullRequestDiff(),
		set.getPullRequestCommits(),
		set.addPullRequestComment(),
		set.addPendingPullRequestComment(),
		set.replyToPullRequestComment(),
		set.publishPendingComments(),
		set.getRepositoryBranchingModel(),
		set.getRepositoryBranchingModelSettings(),
		set.updateRepositoryBranchingModelSettings(),
		set.getEffectiveRepositoryBranchingModel(),
		set.getProjectBranchingModel(),
		set.getProjectBranchingModelSettings(),
		set.updateProjectBranchingModelSettings(),
		set.createDraftPullRequest(),
		set.publishDraftPullRequest(),
		set.convertTodraft(),
		set.getPendingReviewPRs(),
		set.listPipelineRuns(),
		set.getPipelineRun(),
		set.runPipeline(),
		set.stopPipeline(),
		set.getPipelineSteps(),
		set.getPipelineStep(),
		set.getPipelineStepLogs(),
	}
}

// workspaceResolver is implemented by every params struct through
// WorkspaceParams.
type workspaceResolver interface {
	resolveWorkspace(fallback string) error
}

// logContexter is implemented by params structs that identify a
// repository or pull request.
type logContexter interface {
	logContext() []any
}

// WorkspaceParams is embedded in every tool's params.
type WorkspaceParams struct {
	Workspace string `json:"workspace" desc:"Bitbucket workspace slug. Defaults to the configured workspace."`
}

func (params *WorkspaceParams) resolveWorkspace(fallback string) error {
	params.Workspace = strings.TrimSpace(params.Workspace)
	if params.Workspace == "" {
		params.Workspace = fallback
	}
	if params.Workspace == "" {
		return Validation("workspace is required: pass %q or configure a default workspace (BITBUCKET_WORKSPACE)", "workspace")
	}
	return nil
}

func (params *WorkspaceParams) logContext() []any {
	return []any{"workspace", params.Workspace}
}

// RepositoryParams identifies a repository.
type RepositoryParams struct {
	WorkspaceParams
	RepoSlug string `json:"repo_slug" desc:"Repository slug" required:"true"`
}

func (params *RepositoryParams) logContext() []any {
	return []any{"workspace", params.Workspace, "repository", params.RepoSlug}
}

// PullRequestParams identifies a pull request.
type PullRequestParams struct {
	RepositoryParams
	PullRequestID int `json:"pull_request_id" desc:"Pull request ID" required:"true"`
}

func (params *PullRequestParams) logContext() []any {
	return []any{"workspace", params.Workspace, "repository", params.RepoSlug, "pull_request_id", params.PullRequestID}
}

// pageLength clamps a caller-supplied limit to Bitbucket's page length
// range.
func pageLength(limit, maximum int) int {
	if limit <= 0 {
		return 0
	}
	return min(limit, maximum)
}
