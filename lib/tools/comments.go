// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
)

const noPendingCommentsMessage = "No pending comments to publish."

// inlineParams anchors a comment to a line of the diff.
type inlineParams struct {
	Path string `json:"path" desc:"File path the comment refers to" required:"true"`
	From *int   `json:"from" desc:"Line in the old version of the file"`
	To   *int   `json:"to" desc:"Line in the new version of the file"`
}

func (inline *inlineParams) toInline() *bitbucket.Inline {
	if inline == nil {
		return nil
	}
	return &bitbucket.Inline{Path: inline.Path, From: inline.From, To: inline.To}
}

type addCommentParams struct {
	PullRequestParams
	Content string        `json:"content" desc:"Comment text (Markdown)" required:"true"`
	Inline  *inlineParams `json:"inline" desc:"Anchor the comment to a file and line of the diff"`
	Pending bool          `json:"pending" desc:"Hold the comment back until pending comments are published"`
}

func (set *Toolset) getPullRequestComments() Tool {
	return define(set, "getPullRequestComments",
		"List the comments on a pull request",
		ReadOnly(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			return set.client.GetPullRequestComments(ctx, params.Workspace, params.RepoSlug, params.PullRequestID)
		})
}

func (set *Toolset) addPullRequestComment() Tool {
	return define(set, "addPullRequestComment",
		"Add a comment to a pull request, optionally inline on the diff",
		Create(),
		func(ctx context.Context, params *addCommentParams) (any, error) {
			request := bitbucket.CommentRequest{
				Content: bitbucket.CommentContent{Raw: params.Content},
				Inline:  params.Inline.toInline(),
			}
			if params.Pending {
				request.Pending = boolPtr(true)
			}
			return set.client.CreatePullRequestComment(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, request)
		})
}

type addPendingCommentParams struct {
	PullRequestParams
	Content string        `json:"content" desc:"Comment text (Markdown)" required:"true"`
	Inline  *inlineParams `json:"inline" desc:"Anchor the comment to a file and line of the diff"`
}

func (set *Toolset) addPendingPullRequestComment() Tool {
	return define(set, "addPendingPullRequestComment",
		"Add a pending (draft) comment to a pull request; it stays hidden until pending comments are published",
		Create(),
		func(ctx context.Context, params *addPendingCommentParams) (any, error) {
			return set.client.CreatePullRequestComment(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, bitbucket.CommentRequest{
				Content: bitbucket.CommentContent{Raw: params.Content},
				Inline:  params.Inline.toInline(),
				Pending: boolPtr(true),
			})
		})
}

type replyParams struct {
	PullRequestParams
	CommentID int    `json:"comment_id" desc:"ID of the comment to reply to" required:"true"`
	Content   string `json:"content" desc:"Reply text (Markdown)" required:"true"`
}

func (params *replyParams) logContext() []any {
	return append(params.PullRequestParams.logContext(), "comment_id", params.CommentID)
}

func (set *Toolset) replyToPullRequestComment() Tool {
	return define(set, "replyToPullRequestComment",
		"Reply to an existing pull request comment",
		Create(),
		func(ctx context.Context, params *replyParams) (any, error) {
			return set.client.CreatePullRequestComment(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, bitbucket.CommentRequest{
				Content: bitbucket.CommentContent{Raw: params.Content},
				Parent:  &bitbucket.CommentParent{ID: params.CommentID},
			})
		})
}

// publishOutcome records the result of publishing one pending comment.
type publishOutcome struct {
	CommentID int    `json:"comment_id"`
	Published bool   `json:"published"`
	Error     string `json:"error,omitempty"`
}

// publishResult is the itemized outcome of publishPendingComments.
type publishResult struct {
	Message   string           `json:"message"`
	Published int              `json:"published"`
	Failed    int              `json:"failed"`
	Results   []publishOutcome `json:"results"`
}

func (set *Toolset) publishPendingComments() Tool {
	return define(set, "publishPendingComments",
		"Publish all pending comments on a pull request. Each comment is published independently and the outcome of each is reported.",
		Idempotent(),
		func(ctx context.Context, params *PullRequestParams) (any, error) {
			comments, err := set.client.ListPullRequestComments(ctx, params.Workspace, params.RepoSlug, params.PullRequestID)
			if err != nil {
				return nil, err
			}

			var pending []bitbucket.Comment
			for _, comment := range comments {
				if comment.Pending && !comment.Deleted {
					pending = append(pending, comment)
				}
			}
			if len(pending) == 0 {
				return noPendingCommentsMessage, nil
			}

			result := publishResult{Results: make([]publishOutcome, 0, len(pending))}
			for _, comment := range pending {
				request := bitbucket.CommentRequest{
					Content: comment.Content,
					Inline:  comment.Inline,
					Pending: boolPtr(false),
				}
				outcome := publishOutcome{CommentID: comment.ID, Published: true}
				if _, err := set.client.UpdatePullRequestComment(ctx, params.Workspace, params.RepoSlug, params.PullRequestID, comment.ID, request); err != nil {
					set.logger.Warn("publishing pending comment failed",
						"workspace", params.Workspace,
						"repository", params.RepoSlug,
						"pull_request_id", params.PullRequestID,
						"comment_id", comment.ID,
						"error", err,
					)
					outcome.Published = false
					outcome.Error = err.Error()
					result.Failed++
				} else {
					result.Published++
				}
				result.Results = append(result.Results, outcome)
			}
			result.Message = fmt.Sprintf("Published %d of %d pending comments.", result.Published, len(pending))
			return result, nil
		})
}
