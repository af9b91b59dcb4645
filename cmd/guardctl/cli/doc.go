// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for guardctl.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/guardctl/commands (Root) and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help
// output.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3), in
// suggest.go.
//
// [ExitError] lets a Run function signal a specific process exit code
// without the framework printing an extra error line, for outcomes
// like "policy denied" that are a normal, expected result rather than
// a bug.
package cli
