// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

const stopPipelineMessage = "Pipeline stop signal sent successfully."

type listPipelineRunsParams struct {
	RepositoryParams
	Limit        int    `json:"limit" desc:"Maximum number of pipeline runs to return (1-100)" default:"10"`
	Status       string `json:"status" desc:"Only return runs in this state" enum:"PENDING,IN_PROGRESS,SUCCESSFUL,FAILED,ERROR,STOPPED"`
	TargetBranch string `json:"target_branch" desc:"Only return runs for this branch"`
	TriggerType  string `json:"trigger_type" desc:"Only return runs started this way" enum:"manual,push,pullrequest,schedule"`
}

func (set *Toolset) listPipelineRuns() Tool {
	return define(set, "listPipelineRuns",
		"List recent pipeline runs of a repository, newest first",
		ReadOnly(),
		func(ctx context.Context, params *listPipelineRunsParams) (any, error) {
			return set.client.ListPipelineRuns(ctx, params.Workspace, params.RepoSlug, bitbucket.ListPipelineRunsOptions{
				PageLen:      pageLength(params.Limit, 100),
				Status:       params.Status,
				TargetBranch: params.TargetBranch,
				TriggerType:  params.TriggerType,
			})
		})
}

type pipelineParams struct {
	RepositoryParams
	PipelineUUID string `json:"pipeline_uuid" desc:"Pipeline UUID, with or without braces" required:"true"`
}

func (params *pipelineParams) logContext() []any {
	return append(params.RepositoryParams.logContext(), "pipeline", params.PipelineUUID)
}

type pipelineStepParams struct {
	pipelineParams
	StepUUID string `json:"step_uuid" desc:"Step UUID, with or without braces" required:"true"`
}

func (params *pipelineStepParams) logContext() []any {
	return append(params.pipelineParams.logContext(), "step", params.StepUUID)
}

func (set *Toolset) getPipelineRun() Tool {
	return define(set, "getPipelineRun",
		"Get details for a pipeline run",
		ReadOnly(),
		func(ctx context.Context, params *pipelineParams) (any, error) {
			return set.client.GetPipelineRun(ctx, params.Workspace, params.RepoSlug, braced(params.PipelineUUID))
		})
}

type pipelineTargetParams struct {
	RefType         string `json:"ref_type" desc:"Kind of ref to run against" enum:"branch,tag,bookmark,named_branch"`
	RefName         string `json:"ref_name" desc:"Name of the branch, tag, or bookmark"`
	CommitHash      string `json:"commit_hash" desc:"Commit to run; alone it selects a commit target"`
	SelectorType    string `json:"selector_type" desc:"Which pipeline definition to run" enum:"default,custom,pull-requests"`
	SelectorPattern string `json:"selector_pattern" desc:"Pipeline name for custom selectors, or branch pattern for pull-requests"`
}

type pipelineVariableParams struct {
	Key     string `json:"key" desc:"Variable name" required:"true"`
	Value   string `json:"value" desc:"Variable value"`
	Secured bool   `json:"secured" desc:"Mask the value in logs and the UI"`
}

type runPipelineParams struct {
	RepositoryParams
	Target    *pipelineTargetParams    `json:"target" desc:"What to run the pipeline against" required:"true"`
	Variables []pipelineVariableParams `json:"variables" desc:"Variables passed to the pipeline"`
}

// request converts the tool arguments into a trigger body. A ref name
// selects a ref target (pinned to commit_hash when given); a commit hash
// alone selects a commit target.
func (params *runPipelineParams) request() (bitbucket.RunPipelineRequest, error) {
	target := params.Target
	var request bitbucket.RunPipelineRequest

	switch {
	case target.RefName != "":
		refType := target.RefType
		if refType == "" {
			refType = "branch"
		}
		request.Target = bitbucket.PipelineTarget{
			Type:    bitbucket.TargetTypeRef,
			RefType: refType,
			RefName: target.RefName,
		}
	case target.CommitHash != "":
		request.Target = bitbucket.PipelineTarget{Type: bitbucket.TargetTypeCommit}
	default:
		return request, Validation("target needs %q or %q", "ref_name", "commit_hash")
	}

	if target.CommitHash != "" {
		request.Target.Commit = &bitbucket.PipelineCommit{Type: "commit", Hash: target.CommitHash}
	}

	if target.SelectorType != "" {
		if target.SelectorType != "default" && target.SelectorPattern == "" {
			return request, Validation("selector_type %q needs %q", target.SelectorType, "selector_pattern")
		}
		request.Target.Selector = &bitbucket.PipelineSelector{Type: target.SelectorType, Pattern: target.SelectorPattern}
	}

	for _, variable := range params.Variables {
		request.Variables = append(request.Variables, bitbucket.PipelineVariable{
			Key:     variable.Key,
			Value:   variable.Value,
			Secured: variable.Secured,
		})
	}
	return request, nil
}

func (set *Toolset) runPipeline() Tool {
	return define(set, "runPipeline",
		"Trigger a pipeline run on a branch, tag, or commit",
		Create(),
		func(ctx context.Context, params *runPipelineParams) (any, error) {
			request, err := params.request()
			if err != nil {
				return nil, err
			}
			return set.client.RunPipeline(ctx, params.Workspace, params.RepoSlug, request)
		})
}

func (set *Toolset) stopPipeline() Tool {
	return define(set, "stopPipeline",
		"Stop a running pipeline",
		Destructive(),
		func(ctx context.Context, params *pipelineParams) (any, error) {
			if err := set.client.StopPipeline(ctx, params.Workspace, params.RepoSlug, braced(params.PipelineUUID)); err != nil {
				return nil, err
			}
			return stopPipelineMessage, nil
		})
}

func (set *Toolset) getPipelineSteps() Tool {
	return define(set, "getPipelineSteps",
		"List the steps of a pipeline run",
		ReadOnly(),
		func(ctx context.Context, params *pipelineParams) (any, error) {
			return set.client.GetPipelineSteps(ctx, params.Workspace, params.RepoSlug, braced(params.PipelineUUID))
		})
}

func (set *Toolset) getPipelineStep() Tool {
	return define(set, "getPipelineStep",
		"Get details for a single pipeline step",
		ReadOnly(),
		func(ctx context.Context, params *pipelineStepParams) (any, error) {
			return set.client.GetPipelineStep(ctx, params.Workspace, params.RepoSlug, braced(params.PipelineUUID), braced(params.StepUUID))
		})
}

func (set *Toolset) getPipelineStepLogs() Tool {
	return define(set, "getPipelineStepLogs",
		"Get the log output of a pipeline step as raw text",
		ReadOnly(),
		func(ctx context.Context, params *pipelineStepParams) (any, error) {
			return set.client.GetPipelineStepLogs(ctx, params.Workspace, params.RepoSlug, braced(params.PipelineUUID), braced(params.StepUUID))
		})
}

// braced wraps a UUID in braces, the form Bitbucket expects in pipeline
// URLs. Already-braced values are returned unchanged.
func braced(uuid string) string {
	if len(uuid) >= 2 && uuid[0] == '{' && uuid[len(uuid)-1] == '}' {
		return uuid
	}
	return "{" + uuid + "}"
}
