// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

type projectParams struct {
	WorkspaceParams
	ProjectKey string `json:"project_key" desc:"Project key" required:"true"`
}

func (params *projectParams) logContext() []any {
	return []any{"workspace", params.Workspace, "project", params.ProjectKey}
}

type developmentBranchParams struct {
	Name          string `json:"name" desc:"Branch name; ignored when use_mainbranch is true"`
	UseMainbranch *bool  `json:"use_mainbranch" desc:"Use the repository's main branch"`
}

type productionBranchParams struct {
	Name          string `json:"name" desc:"Branch name; ignored when use_mainbranch is true"`
	UseMainbranch *bool  `json:"use_mainbranch" desc:"Use the repository's main branch"`
	Enabled       *bool  `json:"enabled" desc:"Whether a production branch is configured"`
}

type branchTypeParams struct {
	Kind    string `json:"kind" desc:"Branch type" required:"true" enum:"feature,bugfix,release,hotfix"`
	Prefix  string `json:"prefix" desc:"Branch name prefix, e.g. feature/"`
	Enabled *bool  `json:"enabled" desc:"Whether this branch type is enabled"`
}

// branchingSettingsParams is the updatable part of a branching model.
type branchingSettingsParams struct {
	Development *developmentBranchParams `json:"development" desc:"Development branch settings"`
	Production  *productionBranchParams  `json:"production" desc:"Production branch settings"`
	BranchTypes []branchTypeParams       `json:"branch_types" desc:"Branch type settings"`
}

func (params *branchingSettingsParams) settings() (bitbucket.BranchingModelSettings, error) {
	var settings bitbucket.BranchingModelSettings
	if params.Development != nil {
		settings.Development = &bitbucket.BranchSetting{
			Name:          params.Development.Name,
			UseMainbranch: params.Development.UseMainbranch,
		}
	}
	if params.Production != nil {
		settings.Production = &bitbucket.BranchSetting{
			Name:          params.Production.Name,
			UseMainbranch: params.Production.UseMainbranch,
			Enabled:       params.Production.Enabled,
		}
	}
	for _, branchType := range params.BranchTypes {
		settings.BranchTypes = append(settings.BranchTypes, bitbucket.BranchTypeSetting{
			Kind:    branchType.Kind,
			Prefix:  branchType.Prefix,
			Enabled: branchType.Enabled,
		})
	}
	if settings.Development == nil && settings.Production == nil && len(settings.BranchTypes) == 0 {
		return settings, Validation("nothing to update: pass %q, %q, or %q", "development", "production", "branch_types")
	}
	return settings, nil
}

type updateRepositoryBranchingParams struct {
	RepositoryParams
	branchingSettingsParams
}

type updateProjectBranchingParams struct {
	projectParams
	branchingSettingsParams
}

func (set *Toolset) getRepositoryBranchingModel() Tool {
	return define(set, "getRepositoryBranchingModel",
		"Get the branching model of a repository",
		ReadOnly(),
		func(ctx context.Context, params *RepositoryParams) (any, error) {
			return set.client.GetRepositoryBranchingModel(ctx, params.Workspace, params.RepoSlug)
		})
}

func (set *Toolset) getRepositoryBranchingModelSettings() Tool {
	return define(set, "getRepositoryBranchingModelSettings",
		"Get the raw branching model settings of a repository",
		ReadOnly(),
		func(ctx context.Context, params *RepositoryParams) (any, error) {
			return set.client.GetRepositoryBranchingModelSettings(ctx, params.Workspace, params.RepoSlug)
		})
}

func (set *Toolset) updateRepositoryBranchingModelSettings() Tool {
	return define(set, "updateRepositoryBranchingModelSettings",
		"Update the branching model settings of a repository",
		Idempotent(),
		func(ctx context.Context, params *updateRepositoryBranchingParams) (any, error) {
			settings, err := params.settings()
			if err != nil {
				return nil, err
			}
			return set.client.UpdateRepositoryBranchingModelSettings(ctx, params.Workspace, params.RepoSlug, settings)
		})
}

func (set *Toolset) getEffectiveRepositoryBranchingModel() Tool {
	return define(set, "getEffectiveRepositoryBranchingModel",
		"Get the branching model in effect for a repository, including settings inherited from its project",
		ReadOnly(),
		func(ctx context.Context, params *RepositoryParams) (any, error) {
			return set.client.GetEffectiveRepositoryBranchingModel(ctx, params.Workspace, params.RepoSlug)
		})
}

func (set *Toolset) getProjectBranchingModel() Tool {
	return define(set, "getProjectBranchingModel",
		"Get the branching model of a project",
		ReadOnly(),
		func(ctx context.Context, params *projectParams) (any, error) {
			return set.client.GetProjectBranchingModel(ctx, params.Workspace, params.ProjectKey)
		})
}

func (set *Toolset) getProjectBranchingModelSettings() Tool {
	return define(set, "getProjectBranchingModelSettings",
		"Get the raw branching model settings of a project",
		ReadOnly(),
		func(ctx context.Context, params *projectParams) (any, error) {
			return set.client.GetProjectBranchingModelSettings(ctx, params.Workspace, params.ProjectKey)
		})
}

func (set *Toolset) updateProjectBranchingModelSettings() Tool {
	return define(set, "updateProjectBranchingModelSettings",
		"Update the branching model settings of a project",
		Idempotent(),
		func(ctx context.Context, params *updateProjectBranchingParams) (any, error) {
			settings, err := params.settings()
			if err != nil {
				return nil, err
			}
			return set.client.UpdateProjectBranchingModelSettings(ctx, params.Workspace, params.ProjectKey, settings)
		})
}
