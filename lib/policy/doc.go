// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy loads and evaluates guardctl's declarative execution
// policy.
//
// Policy is a single YAML file with no fallbacks and no automatic
// discovery: the caller always passes an explicit path.
// Loading is fail-closed — Load reports any parse error, missing file,
// or malformed default/rules field as an error, and every caller in
// this module turns that error into a DENY verdict, never an ALLOW.
// Load also returns the content hash (policy_hash) of the exact bytes
// it parsed; HashFile computes the same hash without parsing.
//
// Evaluate walks rules in declaration order; the first rule whose
// command matches byte-for-byte and whose argument constraint is
// satisfied wins. Argument matching supports three forms: an absent
// args field (matches any argument vector), a single-element wildcard
// args: ["*"] (also matches any vector), and an explicit positional
// array where each element either matches exactly or is itself "*".
// No match falls through to the policy's configured default.
//
// Evaluation never fails — Evaluate always returns a Verdict, absorbing
// any unexpected condition into DENY.
package policy
