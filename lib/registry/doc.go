// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements guardctl's replay-prevention set and its
// two append-only audit streams.
//
// Registry holds an in-memory set of used token IDs, checked by the
// kernel's replay step before any expensive verification runs, plus
// two JSON-lines log files: used_tokens.<stream> (one record per
// MarkUsed call) and log.<stream> (one record per other decision
// event: STOP, HOLD without a token, TOKEN_ISSUED_*, PIPELINE_ERROR,
// and kernel-emitted verification outcomes).
//
// MarkUsed adds to the in-memory set first and unconditionally, then
// best-effort appends a record to disk; a disk failure never unblocks
// replay, because the in-memory set — not the log file — is what the
// kernel consults. Open replays used_tokens.<stream> at process
// start, skipping entries whose expiry has already passed and
// tolerating a truncated or corrupt final line (a crash mid-write),
// without ever rewriting the log file itself: disk state is
// append-only for the lifetime of the stream.
package registry
