// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package authority implements the token shape and the evaluate ->
// mode-gate -> sign pipeline.
//
// Run is total and never panics: any unexpected failure converts to a
// STOP result carrying guarderr.PipelineError rather than a Go error
// the caller could mishandle. It builds a canonical proposal, computes
// the policy hash and environment fingerprint, invokes the policy
// evaluator, and applies the decision matrix to decide between ALLOW
// (issue a token), HOLD (issue a token needing human approval), or
// STOP (no token). Scope metadata on the matched rule can additionally
// route an otherwise-ALLOW decision through the human-approval Store,
// or block it outright for admin scope under STRICT.
//
// Ephemeral Ed25519 keypairs are generated fresh inside Run for every
// call and never escape it — no key material is returned, logged, or
// persisted.
package authority
