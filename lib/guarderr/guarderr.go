// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package guarderr

import (
	"errors"
	"fmt"
)

// Kind is one of the fixed denial reasons. It is exhaustive for the
// kernel (kinds 1-7), the pre-validation adapter, the pipeline, and
// scope elevation.
type Kind string

const (
	// Kernel verification steps 1-7, in fixed evaluation order.
	TokenExpired          Kind = "TOKEN_EXPIRED"
	DecisionNotAllow      Kind = "DECISION_NOT_ALLOW"
	TokenReplayed         Kind = "TOKEN_REPLAYED"
	ProposalHashMismatch  Kind = "PROPOSAL_HASH_MISMATCH"
	PolicyHashMismatch    Kind = "POLICY_HASH_MISMATCH"
	EnvFingerprintMismatch Kind = "ENV_FINGERPRINT_MISMATCH"
	SignatureInvalid      Kind = "SIGNATURE_INVALID"

	// Pre-validation adapter.
	ShellStringRejected Kind = "SHELL_STRING_REJECTED"
	ValidationError     Kind = "VALIDATION_ERROR"

	// Authority pipeline.
	PipelineError Kind = "PIPELINE_ERROR"

	// Scope elevation.
	ScopeElevationStop Kind = "SCOPE_ELEVATION_STOP"
	ScopeElevationHold Kind = "SCOPE_ELEVATION_HOLD"
)

// stepOf maps each kernel Kind to its fixed position in the seven-step
// verification chain. Kinds outside the kernel chain are absent.
var stepOf = map[Kind]int{
	TokenExpired:           1,
	DecisionNotAllow:       2,
	TokenReplayed:          3,
	ProposalHashMismatch:   4,
	PolicyHashMismatch:     5,
	EnvFingerprintMismatch: 6,
	SignatureInvalid:       7,
}

// Step returns the kernel verification step (1-7) that raises kind, or
// 0 if kind is not a kernel-chain denial.
func Step(kind Kind) int {
	return stepOf[kind]
}

// Denial is a typed, structured denial reason. It carries Kind plus a
// human-readable Detail and is never recovered from internally — once
// raised, the kernel does not attempt an alternative path.
type Denial struct {
	Kind   Kind
	Detail string
}

func (d *Denial) Error() string {
	if d.Detail == "" {
		return string(d.Kind)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
}

// New constructs a *Denial with the given kind and a formatted detail
// message.
func New(kind Kind, format string, args ...any) *Denial {
	return &Denial{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Denial of the given kind.
func Is(err error, kind Kind) bool {
	var d *Denial
	if errors.As(err, &d) {
		return d.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err if it is a *Denial.
func KindOf(err error) (Kind, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d.Kind, true
	}
	return "", false
}
