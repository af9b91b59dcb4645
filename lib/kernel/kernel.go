// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/authority"
	"github.com/Nick-heo-eg/execution-guard-action/lib/guarderr"
	"github.com/Nick-heo-eg/execution-guard-action/lib/policy"
	"github.com/Nick-heo-eg/execution-guard-action/lib/proposal"
	"github.com/Nick-heo-eg/execution-guard-action/lib/registry"
)

// Kernel holds the dependencies the seven-step chain needs to
// recompute each binding: the replay registry and the environment
// profile used when recomputing the environment fingerprint.
type Kernel struct {
	Registry            *registry.Registry
	EnvironmentProfile   proposal.EnvironmentProfile

	// Stdin, Stdout, Stderr default to the kernel process's own
	// standard streams when nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Now overrides time.Now, for deterministic testing.
	Now func() time.Time
}

// ExecutionResult is Execute's success return value.
type ExecutionResult struct {
	ExitCode int
	TokenID  string
	AuditRef string
	Executed bool
}

func (k *Kernel) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}
	return time.Now()
}

// Execute runs the fixed seven-step verification chain against prop
// and tok, then spawns command/args exactly once on full success. On
// any verification failure, it emits an "executed=false" audit record
// and returns a *guarderr.Denial; the spawn primitive is never
// reached. This is the sole code path in the module permitted to spawn
// a process.
func (k *Kernel) Execute(ctx context.Context, command string, args []string, prop *proposal.Proposal, tok *authority.Token) (*ExecutionResult, error) {
	now := k.now()

	if denial := k.verify(now, prop, tok); denial != nil {
		k.Registry.AppendAudit(registry.LogRecord{
			Decision:               string(tok.Decision),
			ProposalHash:           tok.ProposalHash,
			TokenID:                tok.TokenID,
			PolicyHash:             tok.PolicyHash,
			EnvironmentFingerprint: tok.EnvironmentFingerprint,
			Reason:                 denial.Detail,
			Executed:               false,
			ErrorType:              string(denial.Kind),
			Time:                   now.UTC().Format(time.RFC3339Nano),
		})
		return nil, denial
	}

	k.Registry.MarkUsed(registry.UsedTokenRecord{
		TokenID:                tok.TokenID,
		UsedAt:                 now.UTC().Format(time.RFC3339Nano),
		AuditRef:                tok.AuditRef,
		ProposalHash:            tok.ProposalHash,
		PolicyHash:              tok.PolicyHash,
		EnvironmentFingerprint:  tok.EnvironmentFingerprint,
		Command:                 command,
		Scope:                   tok.Scope.Resource,
		GuardVersion:            tok.Scope.Constraints.GuardVersion,
		ExpiresAt:               tok.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})

	k.Registry.AppendAudit(registry.LogRecord{
		Decision:               string(tok.Decision),
		ProposalHash:           tok.ProposalHash,
		TokenID:                tok.TokenID,
		PolicyHash:             tok.PolicyHash,
		EnvironmentFingerprint: tok.EnvironmentFingerprint,
		Reason:                 "verification passed",
		Executed:               true,
		Time:                   now.UTC().Format(time.RFC3339Nano),
	})

	exitCode, err := k.spawn(ctx, command, args)
	if err != nil {
		return nil, err
	}

	return &ExecutionResult{ExitCode: exitCode, TokenID: tok.TokenID, AuditRef: tok.AuditRef, Executed: true}, nil
}

// verify runs the seven steps in fixed order and returns the first
// failing step's denial, or nil if all seven pass.
func (k *Kernel) verify(now time.Time, prop *proposal.Proposal, tok *authority.Token) *guarderr.Denial {
	// Step 1: TTL.
	if now.After(tok.ExpiresAt) {
		return guarderr.New(guarderr.TokenExpired, "token expired at %s, now %s", tok.ExpiresAt, now)
	}

	// Step 2: decision gate.
	if tok.Decision != authority.Allow {
		return guarderr.New(guarderr.DecisionNotAllow, "token decision is %s, not ALLOW", tok.Decision)
	}

	// Step 3: replay, before any expensive recomputation.
	if k.Registry.IsUsed(tok.TokenID, tok.ProposalHash, tok.EnvironmentFingerprint) {
		return guarderr.New(guarderr.TokenReplayed, "token %s already used", tok.TokenID)
	}

	// Step 4: proposal binding.
	proposalHash, err := proposal.Hash(prop)
	if err != nil || proposalHash != tok.ProposalHash {
		return guarderr.New(guarderr.ProposalHashMismatch, "recomputed %q, token bound to %q", proposalHash, tok.ProposalHash)
	}

	// Step 5: policy binding.
	policyHash := policy.HashFile(prop.PolicyPath)
	if policyHash != tok.PolicyHash {
		return guarderr.New(guarderr.PolicyHashMismatch, "recomputed %q, token bound to %q", policyHash, tok.PolicyHash)
	}

	// Step 6: environment binding.
	envFingerprint, err := proposal.EnvironmentFingerprint(k.EnvironmentProfile, policyHash)
	if err != nil || envFingerprint != tok.EnvironmentFingerprint {
		return guarderr.New(guarderr.EnvFingerprintMismatch, "recomputed %q, token bound to %q", envFingerprint, tok.EnvironmentFingerprint)
	}

	// Step 7: signature.
	if err := authority.VerifySignature(tok); err != nil {
		return guarderr.New(guarderr.SignatureInvalid, "%v", err)
	}

	return nil
}

// spawn is the sole process-launch site in this module. command and
// args are passed to os/exec as a vector; shell interpretation is
// never invoked, regardless of what characters either contains. The
// child runs in its own process group so context cancellation reaches
// any children it spawns, not just the immediate process.
func (k *Kernel) spawn(ctx context.Context, command string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = k.Stdin
	cmd.Stdout = k.Stdout
	cmd.Stderr = k.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
