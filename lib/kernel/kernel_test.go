// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/authority"
	"github.com/Nick-heo-eg/execution-guard-action/lib/guarderr"
	"github.com/Nick-heo-eg/execution-guard-action/lib/proposal"
	"github.com/Nick-heo-eg/execution-guard-action/lib/registry"
)

func setup(t *testing.T) (*Kernel, string) {
	t.Helper()
	policyPath := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(policyPath, []byte("default: DENY\nrules:\n  - command: echo\n    args: ['*']\n"), 0o644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}
	reg, err := registry.Open(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return &Kernel{Registry: reg, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}, policyPath
}

func issueAllowToken(t *testing.T, policyPath string) (*proposal.Proposal, *authority.Token) {
	t.Helper()
	result := authority.Run(authority.Params{
		Command:    "echo",
		Args:       []string{"hi"},
		PolicyPath: policyPath,
		GateMode:   authority.Strict,
		Registry:   mustOpenScratchRegistry(t),
	})
	if result.Decision != authority.ResultAllow {
		t.Fatalf("expected ALLOW, got %v (%s)", result.Decision, result.Reason)
	}
	return result.Proposal, result.Token
}

func mustOpenScratchRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.Open(t.TempDir(), "scratch")
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecuteAllowRunsProcess(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)

	result, err := k.Execute(context.Background(), "echo", []string{"hi"}, prop, tok)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.ExitCode != 0 || !result.Executed {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteExpiredTokenDenied(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)
	tok.ExpiresAt = time.Now().Add(-time.Hour)

	_, err := k.Execute(context.Background(), "echo", []string{"hi"}, prop, tok)
	if !guarderr.Is(err, guarderr.TokenExpired) {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestExecuteHoldTokenDenied(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)
	tok.Decision = authority.Hold

	_, err := k.Execute(context.Background(), "echo", []string{"hi"}, prop, tok)
	if !guarderr.Is(err, guarderr.DecisionNotAllow) {
		t.Fatalf("expected DECISION_NOT_ALLOW, got %v", err)
	}
}

func TestExecuteReplayDeniedOnSecondPresentation(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)

	if _, err := k.Execute(context.Background(), "echo", []string{"hi"}, prop, tok); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	_, err := k.Execute(context.Background(), "echo", []string{"hi"}, prop, tok)
	if !guarderr.Is(err, guarderr.TokenReplayed) {
		t.Fatalf("expected TOKEN_REPLAYED on second presentation, got %v", err)
	}
}

func TestExecuteProposalTamperDenied(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)
	tampered := *prop
	tampered.Args = []string{"different"}

	_, err := k.Execute(context.Background(), "echo", []string{"different"}, &tampered, tok)
	if !guarderr.Is(err, guarderr.ProposalHashMismatch) {
		t.Fatalf("expected PROPOSAL_HASH_MISMATCH, got %v", err)
	}
}

func TestExecutePolicyTamperDenied(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)

	if err := os.WriteFile(policyPath, []byte("default: ALLOW\nrules: []\n"), 0o644); err != nil {
		t.Fatalf("rewriting policy: %v", err)
	}

	_, err := k.Execute(context.Background(), "echo", []string{"hi"}, prop, tok)
	if !guarderr.Is(err, guarderr.PolicyHashMismatch) {
		t.Fatalf("expected POLICY_HASH_MISMATCH, got %v", err)
	}
}

func TestExecuteSignatureTamperDenied(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)
	tok.ExpiresAt = tok.ExpiresAt.Add(time.Hour) // mutate a signed field without re-signing

	_, err := k.Execute(context.Background(), "echo", []string{"hi"}, prop, tok)
	if !guarderr.Is(err, guarderr.SignatureInvalid) {
		t.Fatalf("expected SIGNATURE_INVALID, got %v", err)
	}
}

func TestExecuteSpawnNeverReachedOnDenial(t *testing.T) {
	k, policyPath := setup(t)
	prop, tok := issueAllowToken(t, policyPath)
	tok.Decision = authority.Hold

	marker := filepath.Join(t.TempDir(), "spawned")
	_, err := k.Execute(context.Background(), "touch", []string{marker}, prop, tok)
	if err == nil {
		t.Fatal("expected denial")
	}
	if _, statErr := os.Stat(marker); statErr == nil {
		t.Fatal("spawn primitive was reached despite denial")
	}
}
