// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import "time"

// Participant roles reported on pull requests.
const (
	RoleReviewer    = "REVIEWER"
	RoleParticipant = "PARTICIPANT"
)

// Pull request states accepted by the list endpoint.
const (
	StateOpen       = "OPEN"
	StateMerged     = "MERGED"
	StateDeclined   = "DECLINED"
	StateSuperseded = "SUPERSEDED"
)

// Account is a Bitbucket user reference. Appears as pull request
// authors, participants, and comment authors. Which identifiers are
// populated depends on the endpoint and the user's privacy settings.
type Account struct {
	Type        string `json:"type,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Username    string `json:"username,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
}

// Link is a single hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// Links holds the links Bitbucket attaches to most resources.
type Links struct {
	Self *Link `json:"self,omitempty"`
	HTML *Link `json:"html,omitempty"`
}

// Repository is the subset of a Bitbucket repository used to scope
// pending-review searches.
type Repository struct {
	UUID      string `json:"uuid,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	IsPrivate bool   `json:"is_private,omitempty"`
	Links     *Links `json:"links,omitempty"`
}

// Branch names a branch on a pull request endpoint.
type Branch struct {
	Name string `json:"name"`
}

// Commit identifies a commit by hash.
type Commit struct {
	Hash string `json:"hash"`
}

// Endpoint is the source or destination side of a pull request.
type Endpoint struct {
	Branch     Branch      `json:"branch"`
	Commit     *Commit     `json:"commit,omitempty"`
	Repository *Repository `json:"repository,omitempty"`
}

// Participant is a user involved in a pull request, either as a
// reviewer or as someone who commented or approved without being asked.
type Participant struct {
	User     Account `json:"user"`
	Role     string  `json:"role"`
	Approved bool    `json:"approved"`
	State    string  `json:"state,omitempty"`
}

// PullRequest is the subset of a Bitbucket pull request needed for
// filtering, display, and diff retrieval.
type PullRequest struct {
	ID           int           `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	State        string        `json:"state"`
	Draft        bool          `json:"draft,omitempty"`
	Author       Account       `json:"author"`
	Source       Endpoint      `json:"source"`
	Destination  Endpoint      `json:"destination"`
	Participants []Participant `json:"participants"`
	CreatedOn    time.Time     `json:"created_on"`
	UpdatedOn    time.Time     `json:"updated_on"`
	Links        *Links        `json:"links,omitempty"`
}

// CommentContent is the markup body of a comment.
type CommentContent struct {
	Raw string `json:"raw"`
}

// Inline anchors a comment to a file, and optionally a line, in the
// pull request diff. From refers to the old side, To to the new side.
type Inline struct {
	Path string `json:"path"`
	From *int   `json:"from,omitempty"`
	To   *int   `json:"to,omitempty"`
}

// CommentParent references the comment being replied to.
type CommentParent struct {
	ID int `json:"id"`
}

// Comment is a pull request comment.
type Comment struct {
	ID        int            `json:"id"`
	Content   CommentContent `json:"content"`
	User      Account        `json:"user"`
	Inline    *Inline        `json:"inline,omitempty"`
	Parent    *CommentParent `json:"parent,omitempty"`
	Pending   bool           `json:"pending"`
	Deleted   bool           `json:"deleted,omitempty"`
	CreatedOn time.Time      `json:"created_on"`
	UpdatedOn time.Time      `json:"updated_on"`
}

// Page is one page of a paginated Bitbucket collection. Only the first
// page is ever fetched; Next is kept so callers can report truncation.
type Page[T any] struct {
	Size    int    `json:"size,omitempty"`
	Page    int    `json:"page,omitempty"`
	PageLen int    `json:"pagelen"`
	Next    string `json:"next,omitempty"`
	Values  []T    `json:"values"`
}
