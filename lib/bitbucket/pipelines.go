// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Pipeline target types accepted by RunPipeline.
const (
	TargetTypeRef    = "pipeline_ref_target"
	TargetTypeCommit = "pipeline_commit_target"
)

// ListPipelineRunsOptions controls filtering for ListPipelineRuns.
// Runs are always returned newest first.
type ListPipelineRunsOptions struct {
	PageLen      int
	Status       string // PENDING, IN_PROGRESS, SUCCESSFUL, FAILED, ERROR, STOPPED
	TargetBranch string
	TriggerType  string // manual, push, pullrequest, schedule
}

func (options ListPipelineRunsOptions) query() url.Values {
	query := pageQuery(options.PageLen)
	query.Set("sort", "-created_on")
	if options.Status != "" {
		query.Set("status", options.Status)
	}
	if options.TargetBranch != "" {
		query.Set("target.branch", options.TargetBranch)
	}
	if options.TriggerType != "" {
		query.Set("trigger_type", options.TriggerType)
	}
	return query
}

// PipelineSelector picks which pipeline definition in
// bitbucket-pipelines.yml to run.
type PipelineSelector struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern,omitempty"`
}

// PipelineCommit pins a pipeline run to a commit.
type PipelineCommit struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
}

// PipelineTarget is what a pipeline runs against: a ref (branch, tag,
// bookmark) or a bare commit.
type PipelineTarget struct {
	Type     string            `json:"type"`
	RefType  string            `json:"ref_type,omitempty"`
	RefName  string            `json:"ref_name,omitempty"`
	Commit   *PipelineCommit   `json:"commit,omitempty"`
	Selector *PipelineSelector `json:"selector,omitempty"`
}

// PipelineVariable is a variable passed to a custom pipeline run.
type PipelineVariable struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Secured bool   `json:"secured,omitempty"`
}

// RunPipelineRequest is the body of a pipeline trigger.
type RunPipelineRequest struct {
	Target    PipelineTarget     `json:"target"`
	Variables []PipelineVariable `json:"variables,omitempty"`
}

// ListPipelineRuns returns the most recent pipeline runs of a repository.
func (client *Client) ListPipelineRuns(ctx context.Context, workspace, repoSlug string, options ListPipelineRunsOptions) (json.RawMessage, error) {
	// The trailing slash is part of the documented collection URL.
	path := repositoryPath(workspace, repoSlug, "pipelines") + "/"
	body, err := client.getRaw(ctx, path, options.query())
	if err != nil {
		return nil, fmt.Errorf("listing pipeline runs of %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// GetPipelineRun returns a single pipeline run.
func (client *Client) GetPipelineRun(ctx context.Context, workspace, repoSlug, pipelineUUID string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, repositoryPath(workspace, repoSlug, "pipelines", pipelineUUID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting pipeline %s in %s/%s: %w", pipelineUUID, workspace, repoSlug, err)
	}
	return body, nil
}

// RunPipeline triggers a pipeline run.
func (client *Client) RunPipeline(ctx context.Context, workspace, repoSlug string, request RunPipelineRequest) (json.RawMessage, error) {
	path := repositoryPath(workspace, repoSlug, "pipelines") + "/"
	body, err := client.send(ctx, http.MethodPost, path, request)
	if err != nil {
		return nil, fmt.Errorf("running pipeline in %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// StopPipeline stops a running pipeline. Bitbucket answers with 204 No
// Content.
func (client *Client) StopPipeline(ctx context.Context, workspace, repoSlug, pipelineUUID string) error {
	if _, err := client.send(ctx, http.MethodPost, repositoryPath(workspace, repoSlug, "pipelines", pipelineUUID, "stopPipeline"), nil); err != nil {
		return fmt.Errorf("stopping pipeline %s in %s/%s: %w", pipelineUUID, workspace, repoSlug, err)
	}
	return nil
}

// GetPipelineSteps returns the steps of a pipeline run.
func (client *Client) GetPipelineSteps(ctx context.Context, workspace, repoSlug, pipelineUUID string) (json.RawMessage, error) {
	path := repositoryPath(workspace, repoSlug, "pipelines", pipelineUUID, "steps") + "/"
	body, err := client.getRaw(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting steps of pipeline %s in %s/%s: %w", pipelineUUID, workspace, repoSlug, err)
	}
	return body, nil
}

// GetPipelineStep returns a single step of a pipeline run.
func (client *Client) GetPipelineStep(ctx context.Context, workspace, repoSlug, pipelineUUID, stepUUID string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, repositoryPath(workspace, repoSlug, "pipelines", pipelineUUID, "steps", stepUUID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting step %s of pipeline %s in %s/%s: %w", stepUUID, pipelineUUID, workspace, repoSlug, err)
	}
	return body, nil
}

// GetPipelineStepLogs returns the log output of a pipeline step as raw
// text. The log endpoint redirects to object storage.
func (client *Client) GetPipelineStepLogs(ctx context.Context, workspace, repoSlug, pipelineUUID, stepUUID string) (string, error) {
	requestURL := client.baseURL + repositoryPath(workspace, repoSlug, "pipelines", pipelineUUID, "steps", stepUUID, "log")
	logs, err := client.doText(ctx, requestURL)
	if err != nil {
		return "", fmt.Errorf("getting logs of step %s of pipeline %s in %s/%s: %w", stepUUID, pipelineUUID, workspace, repoSlug, err)
	}
	return logs, nil
}
