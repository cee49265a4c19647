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

// BranchSetting configures the development or production branch of a
// branching model. Nil fields are left unchanged by an update.
type BranchSetting struct {
	Name          string `json:"name,omitempty"`
	UseMainbranch *bool  `json:"use_mainbranch,omitempty"`
	Enabled       *bool  `json:"enabled,omitempty"`
}

// BranchTypeSetting configures one branch kind (feature, bugfix,
// release, hotfix) of a branching model.
type BranchTypeSetting struct {
	Kind    string `json:"kind"`
	Prefix  string `json:"prefix,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// BranchingModelSettings is the body of a branching model settings
// update.
type BranchingModelSettings struct {
	Development *BranchSetting      `json:"development,omitempty"`
	Production  *BranchSetting      `json:"production,omitempty"`
	BranchTypes []BranchTypeSetting `json:"branch_types,omitempty"`
}

func projectPath(workspace, projectKey string, segments ...string) string {
	path := "/workspaces/" + url.PathEscape(workspace) + "/projects/" + url.PathEscape(projectKey)
	for _, segment := range segments {
		path += "/" + url.PathEscape(segment)
	}
	return path
}

// GetRepositoryBranchingModel returns the branching model of a repository.
func (client *Client) GetRepositoryBranchingModel(ctx context.Context, workspace, repoSlug string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, repositoryPath(workspace, repoSlug, "branching-model"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting branching model of %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// GetRepositoryBranchingModelSettings returns the raw branching model
// settings of a repository.
func (client *Client) GetRepositoryBranchingModelSettings(ctx context.Context, workspace, repoSlug string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, repositoryPath(workspace, repoSlug, "branching-model", "settings"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting branching model settings of %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// UpdateRepositoryBranchingModelSettings updates the branching model
// settings of a repository.
func (client *Client) UpdateRepositoryBranchingModelSettings(ctx context.Context, workspace, repoSlug string, settings BranchingModelSettings) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPut, repositoryPath(workspace, repoSlug, "branching-model", "settings"), settings)
	if err != nil {
		return nil, fmt.Errorf("updating branching model settings of %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// GetEffectiveRepositoryBranchingModel returns the branching model in
// force for a repository, taking project inheritance into account.
func (client *Client) GetEffectiveRepositoryBranchingModel(ctx context.Context, workspace, repoSlug string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, repositoryPath(workspace, repoSlug, "effective-branching-model"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting effective branching model of %s/%s: %w", workspace, repoSlug, err)
	}
	return body, nil
}

// GetProjectBranchingModel returns the branching model of a project.
func (client *Client) GetProjectBranchingModel(ctx context.Context, workspace, projectKey string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, projectPath(workspace, projectKey, "branching-model"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting branching model of project %s/%s: %w", workspace, projectKey, err)
	}
	return body, nil
}

// GetProjectBranchingModelSettings returns the raw branching model
// settings of a project.
func (client *Client) GetProjectBranchingModelSettings(ctx context.Context, workspace, projectKey string) (json.RawMessage, error) {
	body, err := client.getRaw(ctx, projectPath(workspace, projectKey, "branching-model", "settings"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting branching model settings of project %s/%s: %w", workspace, projectKey, err)
	}
	return body, nil
}

// UpdateProjectBranchingModelSettings updates the branching model
// settings of a project.
func (client *Client) UpdateProjectBranchingModelSettings(ctx context.Context, workspace, projectKey string, settings BranchingModelSettings) (json.RawMessage, error) {
	body, err := client.send(ctx, http.MethodPut, projectPath(workspace, projectKey, "branching-model", "settings"), settings)
	if err != nil {
		return nil, fmt.Errorf("updating branching model settings of project %s/%s: %w", workspace, projectKey, err)
	}
	return body, nil
}
