// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package adapter implements the pre-validation boundary: the strict
// shell-rejection schema an agent or CI proposal must pass before it
// ever reaches policy evaluation.
//
// Validate checks the bare command for whitespace and shell
// metacharacters, checks every argument for embedded CR/LF, and
// requires the identity fields (session_id, turn_id, agent_id) and a
// recognized source_tag to be present. A rejection here never reaches
// policy.Evaluate; there is no code path from a rejected RawProposal
// into the policy or authority packages.
//
// AuditArgsHash hashes an argument vector for the audit record: args
// are stored hashed in the audit record, never in plaintext.
package adapter
