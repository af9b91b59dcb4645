// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package proposal builds the canonical execution proposal and the two
// fingerprints bound into every authority token: proposal_hash and
// environment_fingerprint.
//
// A Proposal is an immutable description of one requested command
// invocation: the bare command, its ordered argument vector, the
// policy this request was evaluated against (path, content hash), the
// guard implementation identity, and a wall-clock timestamp floored to
// a 60-second boundary. Two structurally equal proposals, evaluated
// within the same minute, hash identically under canon.Serialize — the
// minute floor is what lets the 5-minute token TTL and the replay
// registry reason about "the same request" without requiring
// byte-identical timestamps.
//
// EnvironmentFingerprint hashes an explicit, documented profile of
// host-identity fields alongside the policy hash. Which fields are
// included is a configured choice (EnvironmentProfile), not hidden
// machinery: this module documents its minimum reference profile and
// lets callers extend it.
package proposal
