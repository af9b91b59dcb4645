// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kernel implements the execution kernel: a fixed seven-step
// verification chain and the single process-spawn call site it guards.
//
// Execute is the only exported entry point and the spawn primitive it
// wraps is unexported and called from exactly one place inside this
// package. The seven steps run in fixed order — TTL, decision gate,
// replay, proposal binding, policy binding, environment binding,
// signature — and the first failing step short-circuits the rest,
// returning a typed *guarderr.Denial. registry.MarkUsed is called
// after the last verification step and before the process is spawned,
// so replay is blocked even if the spawned process hangs or the
// kernel's own goroutine is killed immediately after.
//
// The spawn itself never goes through a shell: command and args are
// passed to os/exec as a vector, never joined into a string for a
// shell to reinterpret.
package kernel
