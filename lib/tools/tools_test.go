// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

// requestLog records the requests a fake Bitbucket server received.
type requestLog struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (log *requestLog) record(request *http.Request) {
	body, _ := io.ReadAll(request.Body)
	log.mu.Lock()
	defer log.mu.Unlock()
	log.requests = append(log.requests, request.Method+" "+request.URL.Path)
	log.bodies = append(log.bodies, string(body))
}

func (log *requestLog) all() []string {
	log.mu.Lock()
	defer log.mu.Unlock()
	return slices.Clone(log.requests)
}

// newTestToolset creates a Toolset whose client talks to a TLS test
// server running handler. Every request is recorded before handler runs.
func newTestToolset(t *testing.T, config Config, handler http.HandlerFunc) (*Toolset, *requestLog) {
	t.Helper()
	log := &requestLog{}
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		log.record(request)
		if handler == nil {
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
		handler(writer, request)
	}))
	t.Cleanup(server.Close)

	client, err := bitbucket.NewClient(bitbucket.Config{
		BaseURL:    server.URL,
		Token:      "test-token",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	config.Client = client
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return New(config), log
}

func callTool(t *testing.T, set *Toolset, name string, arguments string) (string, error) {
	t.Helper()
	tool, ok := set.Lookup(name)
	if !ok {
		t.Fatalf("tool %q not in catalog", name)
	}
	return tool.Call(context.Background(), json.RawMessage(arguments))
}

func requireCategory(t *testing.T, err error, want ErrorCategory) *ToolError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error %v is %T, want *ToolError", err, err)
	}
	if toolErr.Category != want {
		t.Fatalf("Category = %q, want %q (error: %v)", toolErr.Category, want, err)
	}
	return toolErr
}

func TestCatalog_NamesAndOrder(t *testing.T) {
	want := []string{
		"listRepositories", "getRepository", "getPullRequests", "createPullRequest",
		"getPullRequest", "updatePullRequest", "getPullRequestActivity", "approvePullRequest",
		"unapprovePullRequest", "declinePullRequest", "mergePullRequest", "getPullRequestComments",
		"getPullRequestDiff", "getPullRequestCommits", "addPullRequestComment",
		"addPendingPullRequestComment", "replyToPullRequestComment", "publishPendingComments",
		"getRepositoryBranchingModel", "getRepositoryBranchingModelSettings",
		"updateRepositoryBranchingModelSettings", "getEffectiveRepositoryBranchingModel",
		"getProjectBranchingModel", "getProjectBranchingModelSettings",
		"updateProjectBranchingModelSettings", "createDraftPullRequest", "publishDraftPullRequest",
		"convertTodraft", "getPendingReviewPRs", "listPipelineRuns", "getPipelineRun",
		"runPipeline", "stopPipeline", "getPipelineSteps", "getPipelineStep", "getPipelineStepLogs",
	}

	set, _ := newTestToolset(t, Config{}, nil)
	catalog := set.Catalog()

	var got []string
	for _, tool := range catalog {
		got = append(got, tool.Name)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("catalog names:\n got %v\nwant %v", got, want)
	}

	for _, tool := range catalog {
		if tool.Description == "" {
			t.Errorf("%s: empty description", tool.Name)
		}
		if tool.Annotations == nil || tool.Annotations.ReadOnly == nil {
			t.Errorf("%s: missing annotations", tool.Name)
		}
		if tool.InputSchema == nil || tool.InputSchema.Type != "object" {
			t.Errorf("%s: input schema is not an object schema", tool.Name)
			continue
		}
		if _, ok := tool.InputSchema.Properties["workspace"]; !ok {
			t.Errorf("%s: schema has no workspace property", tool.Name)
		}
		if slices.Contains(tool.InputSchema.Required, "workspace") {
			t.Errorf("%s: workspace must be optional", tool.Name)
		}
	}
}

func TestCatalog_ReadOnlyTools(t *testing.T) {
	set, _ := newTestToolset(t, Config{}, nil)
	for _, tool := range set.Catalog() {
		readOnly := *tool.Annotations.ReadOnly
		isRead := strings.HasPrefix(tool.Name, "get") || strings.HasPrefix(tool.Name, "list")
		if readOnly != isRead {
			t.Errorf("%s: ReadOnly = %v, want %v", tool.Name, readOnly, isRead)
		}
	}
}

func TestSchema_RequiredAndEnums(t *testing.T) {
	set, _ := newTestToolset(t, Config{}, nil)

	tool, _ := set.Lookup("getPullRequest")
	if !slices.Equal(tool.InputSchema.Required, []string{"repo_slug", "pull_request_id"}) {
		t.Errorf("getPullRequest required = %v", tool.InputSchema.Required)
	}
	if got := tool.InputSchema.Properties["pull_request_id"].Type; got != "integer" {
		t.Errorf("pull_request_id type = %q, want integer", got)
	}

	tool, _ = set.Lookup("getPullRequests")
	state := tool.InputSchema.Properties["state"]
	if len(state.Enum) != 4 || state.Enum[0] != "OPEN" {
		t.Errorf("state enum = %v", state.Enum)
	}
	if got := string(tool.InputSchema.Properties["limit"].Default); got != "10" {
		t.Errorf("limit default = %s, want 10", got)
	}

	tool, _ = set.Lookup("addPullRequestComment")
	inline := tool.InputSchema.Properties["inline"]
	if inline == nil || inline.Type != "object" || !slices.Equal(inline.Required, []string{"path"}) {
		t.Errorf("inline schema = %+v, want object requiring path", inline)
	}

	tool, _ = set.Lookup("runPipeline")
	variables := tool.InputSchema.Properties["variables"]
	if variables == nil || variables.Type != "array" || variables.Items == nil || variables.Items.Type != "object" {
		t.Errorf("variables schema = %+v, want array of objects", variables)
	}

	tool, _ = set.Lookup("getPendingReviewPRs")
	if list := tool.InputSchema.Properties["repositoryList"]; list == nil || list.Items == nil || list.Items.Type != "string" {
		t.Errorf("repositoryList schema = %+v, want array of strings", list)
	}
}

func TestMissingRequiredArgument_NoRequest(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, nil)

	_, err := callTool(t, set, "getRepository", `{"workspace":"ws"}`)
	toolErr := requireCategory(t, err, CategoryValidation)
	if !strings.Contains(toolErr.Error(), `"repo_slug"`) {
		t.Errorf("error = %q, want it to name repo_slug", toolErr.Error())
	}

	_, err = callTool(t, set, "mergePullRequest", `{"repo_slug":"repo"}`)
	requireCategory(t, err, CategoryValidation)

	_, err = callTool(t, set, "addPullRequestComment", `{"repo_slug":"repo","pull_request_id":1,"content":"x","inline":{"to":3}}`)
	toolErr = requireCategory(t, err, CategoryValidation)
	if !strings.Contains(toolErr.Error(), `"inline.path"`) {
		t.Errorf("error = %q, want it to name inline.path", toolErr.Error())
	}

	if requests := log.all(); len(requests) != 0 {
		t.Errorf("requests = %v, want none", requests)
	}
}

func TestInvalidEnum_NoRequest(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, nil)

	_, err := callTool(t, set, "getPullRequests", `{"repo_slug":"repo","state":"CLOSED"}`)
	requireCategory(t, err, CategoryValidation)

	_, err = callTool(t, set, "updateRepositoryBranchingModelSettings", `{"repo_slug":"repo","branch_types":[{"kind":"chore"}]}`)
	requireCategory(t, err, CategoryValidation)

	if requests := log.all(); len(requests) != 0 {
		t.Errorf("requests = %v, want none", requests)
	}
}

func TestMalformedArguments(t *testing.T) {
	set, _ := newTestToolset(t, Config{Workspace: "ws"}, nil)
	_, err := callTool(t, set, "getPullRequest", `{"repo_slug":"repo","pull_request_id":"seven"}`)
	requireCategory(t, err, CategoryValidation)
}

func TestPullRequestIDAsNumericString(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"id":7}`))
	})

	if _, err := callTool(t, set, "getPullRequest", `{"repo_slug":"repo","pull_request_id":"7"}`); err != nil {
		t.Fatalf("getPullRequest: %v", err)
	}
	if got, want := log.all(), []string{"GET /repositories/ws/repo/pullrequests/7"}; !slices.Equal(got, want) {
		t.Errorf("requests = %v, want %v", got, want)
	}
}

func TestWorkspaceResolution(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "default-ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"slug":"repo"}`))
	})

	if _, err := callTool(t, set, "getRepository", `{"repo_slug":"repo"}`); err != nil {
		t.Fatalf("getRepository: %v", err)
	}
	if _, err := callTool(t, set, "getRepository", `{"workspace":"other","repo_slug":"repo"}`); err != nil {
		t.Fatalf("getRepository: %v", err)
	}

	want := []string{"GET /repositories/default-ws/repo", "GET /repositories/other/repo"}
	if got := log.all(); !slices.Equal(got, want) {
		t.Errorf("requests = %v, want %v", got, want)
	}
}

func TestWorkspaceResolution_NoneAvailable(t *testing.T) {
	set, log := newTestToolset(t, Config{}, nil)
	_, err := callTool(t, set, "listRepositories", `{}`)
	requireCategory(t, err, CategoryValidation)
	if requests := log.all(); len(requests) != 0 {
		t.Errorf("requests = %v, want none", requests)
	}
}

func TestListRepositories_DefaultLimit(t *testing.T) {
	var query string
	set, _ := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		query = request.URL.RawQuery
		writer.Write([]byte(`{"values":[{"slug":"a"}]}`))
	})

	output, err := callTool(t, set, "listRepositories", `{}`)
	if err != nil {
		t.Fatalf("listRepositories: %v", err)
	}
	if query != "pagelen=10" {
		t.Errorf("query = %q, want pagelen=10", query)
	}
	// Output is the upstream JSON, pretty-printed.
	if !strings.Contains(output, "\n  \"values\"") {
		t.Errorf("output not pretty-printed: %s", output)
	}
}

func TestUpstreamErrorCarriesMessage(t *testing.T) {
	set, _ := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
		writer.Write([]byte(`{"type":"error","error":{"message":"Repository not found"}}`))
	})

	_, err := callTool(t, set, "getRepository", `{"repo_slug":"missing"}`)
	toolErr := requireCategory(t, err, CategoryNotFound)
	if !strings.Contains(toolErr.Error(), "Repository not found") {
		t.Errorf("error = %q, want upstream message", toolErr.Error())
	}
}

func TestUnapprove_FixedMessage(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	})

	output, err := callTool(t, set, "unapprovePullRequest", `{"repo_slug":"repo","pull_request_id":3}`)
	if err != nil {
		t.Fatalf("unapprovePullRequest: %v", err)
	}
	if output != unapprovedMessage {
		t.Errorf("output = %q, want %q", output, unapprovedMessage)
	}
	if got := log.all(); !slices.Equal(got, []string{"DELETE /repositories/ws/repo/pullrequests/3/approve"}) {
		t.Errorf("requests = %v", got)
	}
}

func TestStopPipeline_BracesUUID(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	})

	output, err := callTool(t, set, "stopPipeline", `{"repo_slug":"repo","pipeline_uuid":"abc-123"}`)
	if err != nil {
		t.Fatalf("stopPipeline: %v", err)
	}
	if output != stopPipelineMessage {
		t.Errorf("output = %q, want %q", output, stopPipelineMessage)
	}
	if got := log.all(); !slices.Equal(got, []string{"POST /repositories/ws/repo/pipelines/{abc-123}/stopPipeline"}) {
		t.Errorf("requests = %v", got)
	}
}

func TestCreateDraftPullRequest_Body(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusCreated)
		writer.Write([]byte(`{"id":1}`))
	})

	_, err := callTool(t, set, "createDraftPullRequest", `{
		"repo_slug": "repo",
		"title": "WIP",
		"sourceBranch": "feature",
		"targetBranch": "main",
		"reviewers": ["{uuid-1}", "acct-2"]
	}`)
	if err != nil {
		t.Fatalf("createDraftPullRequest: %v", err)
	}

	var body struct {
		Title  string `json:"title"`
		Draft  bool   `json:"draft"`
		Source struct {
			Branch struct {
				Name string `json:"name"`
			} `json:"branch"`
		} `json:"source"`
		Reviewers []map[string]string `json:"reviewers"`
	}
	if err := json.Unmarshal([]byte(log.bodies[0]), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !body.Draft {
		t.Error("draft = false, want true")
	}
	if body.Source.Branch.Name != "feature" {
		t.Errorf("source branch = %q", body.Source.Branch.Name)
	}
	if len(body.Reviewers) != 2 || body.Reviewers[0]["uuid"] != "{uuid-1}" || body.Reviewers[1]["account_id"] != "acct-2" {
		t.Errorf("reviewers = %v", body.Reviewers)
	}
}

func TestMergePullRequest_StrategyMapping(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"state":"MERGED"}`))
	})

	if _, err := callTool(t, set, "mergePullRequest", `{"repo_slug":"repo","pull_request_id":2,"strategy":"fast-forward"}`); err != nil {
		t.Fatalf("mergePullRequest: %v", err)
	}
	if log.bodies[0] != `{"merge_strategy":"fast_forward"}` {
		t.Errorf("body = %s", log.bodies[0])
	}
}

func TestDraftToggles(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"id":5}`))
	})

	if _, err := callTool(t, set, "convertTodraft", `{"repo_slug":"repo","pull_request_id":5}`); err != nil {
		t.Fatalf("convertTodraft: %v", err)
	}
	if _, err := callTool(t, set, "publishDraftPullRequest", `{"repo_slug":"repo","pull_request_id":5}`); err != nil {
		t.Fatalf("publishDraftPullRequest: %v", err)
	}
	if !slices.Equal(log.bodies, []string{`{"draft":true}`, `{"draft":false}`}) {
		t.Errorf("bodies = %v", log.bodies)
	}
}

func TestRunPipeline_Targets(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusCreated)
		writer.Write([]byte(`{"uuid":"{p}"}`))
	})

	if _, err := callTool(t, set, "runPipeline", `{"repo_slug":"repo","target":{"ref_name":"main","selector_type":"custom","selector_pattern":"deploy"}}`); err != nil {
		t.Fatalf("runPipeline ref: %v", err)
	}
	if _, err := callTool(t, set, "runPipeline", `{"repo_slug":"repo","target":{"commit_hash":"abc"}}`); err != nil {
		t.Fatalf("runPipeline commit: %v", err)
	}

	wantRef := `{"target":{"type":"pipeline_ref_target","ref_type":"branch","ref_name":"main","selector":{"type":"custom","pattern":"deploy"}}}`
	wantCommit := `{"target":{"type":"pipeline_commit_target","commit":{"type":"commit","hash":"abc"}}}`
	if !slices.Equal(log.bodies, []string{wantRef, wantCommit}) {
		t.Errorf("bodies:\n got %v\nwant %v", log.bodies, []string{wantRef, wantCommit})
	}
}

func TestRunPipeline_EmptyTarget(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, nil)
	_, err := callTool(t, set, "runPipeline", `{"repo_slug":"repo","target":{}}`)
	requireCategory(t, err, CategoryValidation)
	if requests := log.all(); len(requests) != 0 {
		t.Errorf("requests = %v, want none", requests)
	}
}

func TestGetPullRequestDiff_RawText(t *testing.T) {
	const diff = "diff --git a/x b/x\n+added\n"
	set, _ := newTestToolset(t, Config{Workspace: "ws"}, func(writer http.ResponseWriter, request *http.Request) {
		if strings.HasSuffix(request.URL.Path, "/pullrequests/4") {
			writer.Write([]byte(`{"source":{"commit":{"hash":"abc123"}},"destination":{"commit":{"hash":"def456"}}}`))
			return
		}
		writer.Write([]byte(diff))
	})

	output, err := callTool(t, set, "getPullRequestDiff", `{"repo_slug":"repo","pull_request_id":4}`)
	if err != nil {
		t.Fatalf("getPullRequestDiff: %v", err)
	}
	if output != diff {
		t.Errorf("output = %q, want raw diff", output)
	}
}

func TestGetPendingReviewPRs_RequiresUser(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws"}, nil)
	_, err := callTool(t, set, "getPendingReviewPRs", `{}`)
	requireCategory(t, err, CategoryValidation)
	if requests := log.all(); len(requests) != 0 {
		t.Errorf("requests = %v, want none", requests)
	}
}

func TestGetPendingReviewPRs_Output(t *testing.T) {
	set, log := newTestToolset(t, Config{Workspace: "ws", User: "alice"}, func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"values":[{
			"id": 9,
			"title": "Review me",
			"updated_on": "2026-03-01T12:00:00+00:00",
			"participants": [{"user":{"nickname":"alice"},"role":"REVIEWER","approved":false}]
		}]}`))
	})

	output, err := callTool(t, set, "getPendingReviewPRs", `{"repositoryList":["api"]}`)
	if err != nil {
		t.Fatalf("getPendingReviewPRs: %v", err)
	}

	var result struct {
		PullRequests []struct {
			ID         int `json:"id"`
			Repository struct {
				FullName string `json:"full_name"`
			} `json:"repository"`
		} `json:"pending_review_prs"`
		TotalFound           int    `json:"total_found"`
		SearchedRepositories int    `json:"searched_repositories"`
		User                 string `json:"user"`
		Workspace            string `json:"workspace"`
	}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, output)
	}
	if result.TotalFound != 1 || result.PullRequests[0].ID != 9 {
		t.Errorf("result = %+v", result)
	}
	if result.PullRequests[0].Repository.FullName != "ws/api" {
		t.Errorf("full_name = %q, want ws/api", result.PullRequests[0].Repository.FullName)
	}
	if result.User != "alice" || result.Workspace != "ws" || result.SearchedRepositories != 1 {
		t.Errorf("metadata = %+v", result)
	}
	if got := log.all(); !slices.Equal(got, []string{"GET /repositories/ws/api/pullrequests"}) {
		t.Errorf("requests = %v, want only the pull request listing", got)
	}
}
