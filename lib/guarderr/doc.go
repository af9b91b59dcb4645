// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package guarderr defines the fixed, exhaustive set of typed denial
// reasons raised by the execution kernel and the pre-validation
// adapter.
//
// Every denial is a *Denial value carrying a Kind and a human-readable
// Detail message that explains it (the expected vs. actual hash, the
// expiry time, etc.). Callers that need to branch on a specific failure use Is:
//
//	if guarderr.Is(err, guarderr.TokenExpired) { ... }
//
// This package never recovers from a denial on a caller's behalf — it
// only names and carries the reason. Propagation policy (what exit
// code, what log line) lives in the CLI adapter.
package guarderr
