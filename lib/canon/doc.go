// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package canon implements deterministic, sorted-key serialization of
// structured values and SHA-256 digesting over that serialization.
//
// Serialize produces byte-identical output for semantically equal
// structures regardless of map key insertion order: mappings are
// serialized with keys in lexicographic order, arrays preserve insertion
// order, and primitives encode as standard JSON literals (quoted
// strings, canonical numbers, literal true/false/null).
//
// This is the single serialization routine used throughout guardctl to
// compute proposal hashes, policy-binding hashes, environment
// fingerprints, and the exact byte sequence an authority token signs.
// Any two call sites that need to agree on "the same bytes for the same
// data" for hashing or signing call through here. (lib/codec's CBOR
// encoding is used only to persist stored tokens, never for a hash or
// a signature.)
package canon
