// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Nick-heo-eg/execution-guard-action/lib/canon"
)

// Scope is rule metadata controlling whether auto-issuance is permitted
// or a human-approved token is required.
type Scope string

const (
	ScopeSafe  Scope = "safe"
	ScopeNet   Scope = "net"
	ScopeFS    Scope = "fs"
	ScopeAdmin Scope = "admin"
)

// Default is the policy's fallback decision when no rule matches.
type Default string

const (
	DefaultDeny  Default = "DENY"
	DefaultAllow Default = "ALLOW"
)

// Rule is a single policy entry. Args absent means "match any argument
// vector". A single-element wildcard ["*"] also matches any vector.
// Otherwise the rule's Args must match the request's argv positionally,
// with "*" matching any single element.
type Rule struct {
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args,omitempty"`
	Scope       Scope    `yaml:"scope,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// EffectiveScope returns the rule's scope, defaulting to ScopeSafe when
// unset.
func (r Rule) EffectiveScope() Scope {
	if r.Scope == "" {
		return ScopeSafe
	}
	return r.Scope
}

// Policy is the parsed policy document.
type Policy struct {
	DefaultVerdict Default `yaml:"default"`
	Rules          []Rule  `yaml:"rules"`
}

// Decision is the outcome of evaluating a policy against a request.
type Decision string

const (
	Allow Decision = "ALLOW"
	Deny  Decision = "DENY"
)

// Verdict is the result of Evaluate: a decision, the reason it was
// reached, and — on a rule match — the matched rule's scope.
type Verdict struct {
	Decision Decision
	Reason   string
	// MatchedRule is non-nil when a rule (rather than the policy
	// default) produced the decision.
	MatchedRule *Rule
}

// EffectiveScope returns the scope that applies to this verdict: the
// matched rule's scope, or ScopeSafe if no rule matched (the default
// path carries no scope metadata of its own).
func (v Verdict) EffectiveScope() Scope {
	if v.MatchedRule != nil {
		return v.MatchedRule.EffectiveScope()
	}
	return ScopeSafe
}

// Load reads and parses the policy file at path, returning the parsed
// Policy and the SHA-256 content hash of its raw bytes.
//
// Load reports a Go error on any failure — missing file, I/O error, YAML
// syntax error, or an invalid/missing default field. Callers in this
// module never propagate that error as a permissive fallback: the
// authority pipeline and policy.Evaluate both absorb a Load failure
// into verdict=DENY, per the fail-closed loading contract. Load
// itself stays a normal (error-returning) function so callers that want
// the raw failure reason (for the CLI's diagnostic output) can see it.
func Load(path string) (*Policy, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("policy: %s: policy_not_found", path)
		}
		return nil, "", fmt.Errorf("policy: %s: policy_read_error: %w", path, err)
	}

	policyHash := canon.HashBytes(data)

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, policyHash, fmt.Errorf("policy: %s: parse error: %w", path, err)
	}

	switch p.DefaultVerdict {
	case DefaultDeny, DefaultAllow:
	default:
		return nil, policyHash, fmt.Errorf("policy: %s: invalid or missing default %q", path, p.DefaultVerdict)
	}

	return &p, policyHash, nil
}

// HashFile computes the SHA-256 content hash of the file at path
// without parsing it, using the same deterministic string the real
// Load would report when the file is missing or unreadable. This lets
// the kernel's policy-binding verification step recompute the
// binding hash even when it expects the file might no longer exist.
func HashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "policy_not_found"
		}
		return "policy_read_error"
	}
	return canon.HashBytes(data)
}

// Evaluate walks p's rules in order against (command, args) and
// returns the resulting Verdict. Evaluate is total: it always returns
// a Verdict and never panics.
func Evaluate(p *Policy, command string, args []string) Verdict {
	if p == nil {
		return Verdict{Decision: Deny, Reason: "no valid policy; fail-closed"}
	}

	for i := range p.Rules {
		rule := &p.Rules[i]
		if rule.Command != command {
			continue
		}
		if !argsMatch(rule.Args, args) {
			continue
		}
		// A matched rule is, by construction, one of the commands the
		// operator explicitly enumerated as permitted — this is an
		// allowlist model, not a permit/deny rule language. The
		// default only governs the no-match fallthrough below.
		return Verdict{Decision: Allow, Reason: "rule matched", MatchedRule: rule}
	}

	decision := Deny
	if p.DefaultVerdict == DefaultAllow {
		decision = Allow
	}
	return Verdict{Decision: decision, Reason: "no rule matched"}
}

// argsMatch reports whether a rule's Args constraint is satisfied by
// the request's argument vector.
//
//   - rule Args absent (nil) -> matches any argument vector
//   - rule Args == ["*"]     -> matches any argument vector
//   - otherwise              -> lengths must match; each position
//     either equals the request's element or the rule element is "*"
func argsMatch(ruleArgs, requestArgs []string) bool {
	if ruleArgs == nil {
		return true
	}
	if len(ruleArgs) == 1 && ruleArgs[0] == "*" {
		return true
	}
	if len(ruleArgs) != len(requestArgs) {
		return false
	}
	for i, want := range ruleArgs {
		if want == "*" {
			continue
		}
		if want != requestArgs[i] {
			return false
		}
	}
	return true
}
