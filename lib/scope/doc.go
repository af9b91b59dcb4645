// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scope implements the human-approval hand-off from spec
// §4.9: the two authority.Store backends a hold approver writes a
// token into and the pipeline later reads one out of.
//
// MemoryStore is a thread-safe in-process map, suitable for a single
// guardctl invocation that issues and consumes a token in the same
// process. FileStore persists one CBOR file per proposal hash under a
// directory, so a "guardctl hold approve" process and a later
// "guardctl run" process can hand a token off across separate
// invocations. Both purge expired entries on Retrieve rather than on
// a background timer, matching the entries whose own TTL already
// governs the kernel's step 1 check.
package scope
