// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides this module's standard CBOR encoding
// configuration.
//
// JSON is used for external interfaces: the audit streams and the
// CLI's decision lines. CBOR is used for the one piece of internal state
// this module persists across process invocations: human-approved
// tokens written by lib/scope's FileStore. Those bytes are read back
// only by this program itself, so a compact, byte-stable format beats
// a human-readable one.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes.
package codec
