// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Nick-heo-eg/execution-guard-action/lib/registry"
)

func writePolicy(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing policy fixture: %v", err)
	}
	return path
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.Open(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRunAllowOnMatch(t *testing.T) {
	path := writePolicy(t, "default: DENY\nrules:\n  - command: echo\n    args: ['*']\n")
	result := Run(Params{Command: "echo", Args: []string{"hi"}, PolicyPath: path, GateMode: Strict, Registry: newRegistry(t)})
	if result.Decision != ResultAllow {
		t.Fatalf("expected ALLOW, got %v (%s)", result.Decision, result.Reason)
	}
	if result.Token == nil || result.Token.Decision != Allow {
		t.Fatalf("expected an ALLOW token, got %+v", result.Token)
	}
	if err := VerifySignature(result.Token); err != nil {
		t.Fatalf("expected valid signature on issued token: %v", err)
	}
}

func TestRunStopOnStrictMiss(t *testing.T) {
	path := writePolicy(t, "default: DENY\nrules:\n  - command: echo\n    args: ['*']\n")
	result := Run(Params{Command: "rm", Args: []string{"-rf", "/"}, PolicyPath: path, GateMode: Strict, Registry: newRegistry(t)})
	if result.Decision != ResultStop {
		t.Fatalf("expected STOP, got %v", result.Decision)
	}
	if result.Token != nil {
		t.Fatal("expected no token issued on STOP")
	}
}

func TestRunHoldOnPermissiveMissWithoutAudit(t *testing.T) {
	path := writePolicy(t, "default: DENY\nrules:\n  - command: echo\n    args: ['*']\n")
	result := Run(Params{Command: "rm", Args: []string{"-rf", "/"}, PolicyPath: path, GateMode: Permissive, Registry: newRegistry(t)})
	if result.Decision != ResultHold {
		t.Fatalf("expected HOLD, got %v", result.Decision)
	}
	if result.Token == nil || result.Token.Decision != Hold {
		t.Fatalf("expected a HOLD token, got %+v", result.Token)
	}
}

func TestRunAuditedPermitOnPermissiveWithAudit(t *testing.T) {
	path := writePolicy(t, "default: DENY\nrules: []\n")
	result := Run(Params{Command: "true", Args: nil, PolicyPath: path, GateMode: Permissive, AllowWithAudit: true, Registry: newRegistry(t)})
	if result.Decision != ResultAllow {
		t.Fatalf("expected ALLOW, got %v", result.Decision)
	}
	if result.ReasonCode != ReasonAuditedPermit {
		t.Fatalf("expected reason code %s, got %s", ReasonAuditedPermit, result.ReasonCode)
	}
	if !result.Token.Scope.Constraints.AuditedPermit {
		t.Fatal("expected audited_permit=true on the issued token")
	}
}

func TestRunAdminScopeBlockedOutrightUnderStrict(t *testing.T) {
	path := writePolicy(t, "default: DENY\nrules:\n  - command: rm\n    args: ['*']\n    scope: admin\n")
	result := Run(Params{Command: "rm", Args: []string{"-rf", "/"}, PolicyPath: path, GateMode: Strict, Registry: newRegistry(t)})
	if result.Decision != ResultStop {
		t.Fatalf("expected STOP for admin scope under STRICT, got %v", result.Decision)
	}
}

func TestRunNetScopeRequiresStoredTokenEvenOnMatch(t *testing.T) {
	path := writePolicy(t, "default: DENY\nrules:\n  - command: curl\n    args: ['*']\n    scope: net\n")
	result := Run(Params{Command: "curl", Args: []string{"https://example.com"}, PolicyPath: path, GateMode: Strict, Registry: newRegistry(t)})
	if result.Decision != ResultHold {
		t.Fatalf("expected HOLD pending human approval for net scope, got %v", result.Decision)
	}
}

func TestRunTotalNeverPanics(t *testing.T) {
	// Missing policy file: Load fails, evaluator absorbs into DENY,
	// STRICT mode -> STOP. Run must not panic despite the load error.
	result := Run(Params{Command: "echo", PolicyPath: filepath.Join(t.TempDir(), "missing.yaml"), GateMode: Strict, Registry: newRegistry(t)})
	if result.Decision != ResultStop {
		t.Fatalf("expected STOP on missing policy, got %v", result.Decision)
	}
}

func TestCoerceGateModeDefaultsStrict(t *testing.T) {
	if CoerceGateMode("bogus") != Strict {
		t.Fatal("expected unknown gate mode to coerce to STRICT")
	}
	if CoerceGateMode("PERMISSIVE") != Permissive {
		t.Fatal("expected PERMISSIVE to round-trip")
	}
}
