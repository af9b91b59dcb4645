// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package idgen generates time-ordered identifiers for token_id and
// audit_ref values: 128 bits, lexicographically sortable by creation
// time at millisecond resolution, collision-resistant via a
// cryptographically random remainder.
//
// This is exactly the shape of RFC 9562 UUIDv7 — a 48-bit millisecond
// Unix timestamp, a 4-bit version field, a 2-bit variant field, and a
// random remainder — so idgen is a thin wrapper over
// github.com/google/uuid's NewV7 rather than a hand-rolled bit-packer.
package idgen
