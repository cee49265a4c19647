// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

// Annotations describes behavioral properties of a tool. The MCP
// server translates them into protocol hints that help agents decide
// which tools are safe to call, which can be retried, and which need
// confirmation.
//
// All fields are pointers. A nil field means "unspecified" and the
// client applies the MCP defaults (not read-only, destructive, not
// idempotent, open-world). Every tool in the catalog sets them through
// one of the presets below.
type Annotations struct {
	// ReadOnly is true when the tool only reads Bitbucket state.
	ReadOnly *bool

	// Destructive is true when the tool may irreversibly change state
	// that cannot be restored through another tool call (merging,
	// declining, stopping a pipeline).
	Destructive *bool

	// Idempotent is true when repeated calls with identical arguments
	// converge to the same result.
	Idempotent *bool

	// OpenWorld is true for every tool here: all of them talk to
	// Bitbucket Cloud.
	OpenWorld *bool
}

// ReadOnly returns annotations for tools that query state: list, get.
func ReadOnly() *Annotations {
	return &Annotations{
		ReadOnly:    boolPtr(true),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(true),
		OpenWorld:   boolPtr(true),
	}
}

// Idempotent returns annotations for tools that modify state but
// converge when repeated: update, approve, unapprove, draft toggles,
// branching model settings.
func Idempotent() *Annotations {
	return &Annotations{
		ReadOnly:    boolPtr(false),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(true),
		OpenWorld:   boolPtr(true),
	}
}

// Create returns annotations for tools whose effects accumulate on
// repeated calls: creating pull requests, posting comments, running
// pipelines.
func Create() *Annotations {
	return &Annotations{
		ReadOnly:    boolPtr(false),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(false),
		OpenWorld:   boolPtr(true),
	}
}

// Destructive returns annotations for tools that end a lifecycle:
// merge, decline, stop.
func Destructive() *Annotations {
	return &Annotations{
		ReadOnly:    boolPtr(false),
		Destructive: boolPtr(true),
		Idempotent:  boolPtr(false),
		OpenWorld:   boolPtr(true),
	}
}

func boolPtr(value bool) *bool {
	return &value
}
