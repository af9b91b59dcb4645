// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"fmt"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/guarderr"
	"github.com/Nick-heo-eg/execution-guard-action/lib/idgen"
	"github.com/Nick-heo-eg/execution-guard-action/lib/policy"
	"github.com/Nick-heo-eg/execution-guard-action/lib/proposal"
	"github.com/Nick-heo-eg/execution-guard-action/lib/registry"
)

// ResultDecision is the pipeline's own three-way outcome: the
// decision matrix collapses to ALLOW/HOLD (both minted as a Token) or
// STOP (no token at all).
type ResultDecision string

const (
	ResultAllow ResultDecision = "ALLOW"
	ResultHold  ResultDecision = "HOLD"
	ResultStop  ResultDecision = "STOP"
)

// ReasonAuditedPermit is the Reason/ReasonCode string used when an
// ALLOW is issued via the PERMISSIVE + allow_with_audit path (spec
// S7).
const ReasonAuditedPermit = "AUDITED_PERMIT"

// Store is the backend-agnostic human-approval hand-off from spec
// §4.9. lib/scope's MemoryStore and FileStore satisfy this interface
// structurally; authority never imports lib/scope, so the dependency
// runs one way (scope -> authority, for the Token type it stores).
type Store interface {
	StoreToken(proposalHash string, tok *Token) error
	RetrieveToken(proposalHash string) (*Token, bool)
	DeleteToken(proposalHash string) error
	HasToken(proposalHash string) bool
}

// Params are the inputs to Run.
type Params struct {
	Command        string
	Args           []string
	PolicyPath     string
	GateMode       GateMode
	AllowWithAudit bool

	// GuardVersion identifies this implementation; carried into the
	// proposal and the token's Constraints.
	GuardVersion string

	// EnvironmentProfile configures which host-identity fields feed
	// the environment fingerprint.
	EnvironmentProfile proposal.EnvironmentProfile

	// Registry is required: every decision appends at least one audit
	// record.
	Registry *registry.Registry

	// Store is optional. When non-nil and the matched rule's scope
	// requires human approval (net/fs), Run checks Store for an
	// existing human-approved token before falling back to HOLD.
	Store Store

	// TTL overrides DefaultTTL when non-zero.
	TTL time.Duration

	// Now overrides time.Now, for deterministic testing.
	Now time.Time
}

// Result is Run's total, never-error return value.
type Result struct {
	Decision     ResultDecision
	ProposalHash string
	Reason       string
	ReasonCode   string
	Token        *Token
	Proposal     *proposal.Proposal

	// ErrorType is set for STOP and HOLD results that originate from a
	// typed denial (SCOPE_ELEVATION_STOP, SCOPE_ELEVATION_HOLD,
	// PIPELINE_ERROR) rather than from the plain mode-gate matrix.
	ErrorType guarderr.Kind
}

// Run evaluates (command, args) against the policy at policyPath,
// applies the mode-gate decision matrix, and either issues a signed
// token or returns STOP. Run never panics and never returns a Go
// error: unexpected failures are absorbed into a STOP Result carrying
// guarderr.PipelineError: the pipeline is total and never throws.
func Run(p Params) *Result {
	result := runGuarded(p)
	p.Registry.AppendAudit(toLogRecord(result, time.Now()))
	return result
}

func runGuarded(p Params) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &Result{
				Decision:   ResultStop,
				Reason:     fmt.Sprintf("pipeline_error: %v", r),
				ReasonCode: string(guarderr.PipelineError),
				ErrorType:  guarderr.PipelineError,
			}
		}
	}()
	return run(p)
}

func run(p Params) *Result {
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	ttl := p.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	gateMode := CoerceGateMode(string(p.GateMode))

	prop := proposal.BuildAt(p.Command, p.Args, p.PolicyPath, p.GuardVersion, now)
	proposalHash, err := proposal.Hash(prop)
	if err != nil {
		return &Result{
			Decision:   ResultStop,
			Reason:     fmt.Sprintf("pipeline_error: hashing proposal: %v", err),
			ReasonCode: string(guarderr.PipelineError),
			ErrorType:  guarderr.PipelineError,
			Proposal:   prop,
		}
	}

	envFingerprint, err := proposal.EnvironmentFingerprint(p.EnvironmentProfile, prop.PolicyHash)
	if err != nil {
		return &Result{
			Decision:     ResultStop,
			ProposalHash: proposalHash,
			Reason:       fmt.Sprintf("pipeline_error: computing environment fingerprint: %v", err),
			ReasonCode:   string(guarderr.PipelineError),
			ErrorType:    guarderr.PipelineError,
			Proposal:     prop,
		}
	}

	parsedPolicy, _, loadErr := policy.Load(p.PolicyPath)
	var verdict policy.Verdict
	if loadErr != nil {
		verdict = policy.Verdict{Decision: policy.Deny, Reason: "no valid policy; fail-closed"}
	} else {
		verdict = policy.Evaluate(parsedPolicy, p.Command, p.Args)
	}
	scope := verdict.EffectiveScope()

	// Scope elevation takes precedence over the ordinary mode matrix:
	// admin is never auto-issued, and net/fs require a pre-existing
	// human-approved token even on an evaluator ALLOW.
	if verdict.Decision == policy.Allow {
		switch scope {
		case policy.ScopeAdmin:
			if gateMode == Strict {
				return stopResult(proposalHash, prop, guarderr.ScopeElevationStop,
					"admin scope requires human approval; never auto-issued under STRICT")
			}
			return holdResult(proposalHash, envFingerprint, prop, gateMode, scope, now, ttl,
				guarderr.ScopeElevationHold, "admin scope requires human approval")
		case policy.ScopeNet, policy.ScopeFS:
			if p.Store != nil {
				if stored, ok := p.Store.RetrieveToken(proposalHash); ok {
					return &Result{
						Decision:     ResultAllow,
						ProposalHash: proposalHash,
						Reason:       "human-approved token retrieved from store",
						Token:        stored,
						Proposal:     prop,
					}
				}
			}
			return holdResult(proposalHash, envFingerprint, prop, gateMode, scope, now, ttl,
				guarderr.ScopeElevationHold, fmt.Sprintf("%s scope requires a human-approved token", scope))
		}
	}

	switch {
	case verdict.Decision == policy.Allow:
		return allowResult(proposalHash, envFingerprint, prop, gateMode, scope, now, ttl, verdict.Reason, false)

	case gateMode == Strict:
		return stopResult(proposalHash, prop, "", verdict.Reason)

	case !p.AllowWithAudit:
		return holdResult(proposalHash, envFingerprint, prop, gateMode, scope, now, ttl, "", verdict.Reason)

	default:
		return allowResult(proposalHash, envFingerprint, prop, gateMode, scope, now, ttl, ReasonAuditedPermit, true)
	}
}

func allowResult(proposalHash, envFingerprint string, prop *proposal.Proposal, gateMode GateMode, scope policy.Scope, now time.Time, ttl time.Duration, reason string, auditedPermit bool) *Result {
	tok, err := issue(Allow, proposalHash, prop.PolicyHash, envFingerprint, gateMode, scope, now, ttl, prop.GuardVersion, auditedPermit)
	if err != nil {
		return &Result{
			Decision:     ResultStop,
			ProposalHash: proposalHash,
			Reason:       fmt.Sprintf("pipeline_error: %v", err),
			ReasonCode:   string(guarderr.PipelineError),
			ErrorType:    guarderr.PipelineError,
			Proposal:     prop,
		}
	}
	reasonCode := "ALLOW"
	if auditedPermit {
		reasonCode = ReasonAuditedPermit
	}
	return &Result{Decision: ResultAllow, ProposalHash: proposalHash, Reason: reason, ReasonCode: reasonCode, Token: tok, Proposal: prop}
}

func holdResult(proposalHash, envFingerprint string, prop *proposal.Proposal, gateMode GateMode, scope policy.Scope, now time.Time, ttl time.Duration, errType guarderr.Kind, reason string) *Result {
	tok, err := issue(Hold, proposalHash, prop.PolicyHash, envFingerprint, gateMode, scope, now, ttl, prop.GuardVersion, false)
	if err != nil {
		return &Result{
			Decision:     ResultStop,
			ProposalHash: proposalHash,
			Reason:       fmt.Sprintf("pipeline_error: %v", err),
			ReasonCode:   string(guarderr.PipelineError),
			ErrorType:    guarderr.PipelineError,
			Proposal:     prop,
		}
	}
	reasonCode := string(errType)
	if reasonCode == "" {
		reasonCode = "HOLD"
	}
	return &Result{Decision: ResultHold, ProposalHash: proposalHash, Reason: reason, ReasonCode: reasonCode, Token: tok, Proposal: prop, ErrorType: errType}
}

func stopResult(proposalHash string, prop *proposal.Proposal, errType guarderr.Kind, reason string) *Result {
	reasonCode := string(errType)
	if reasonCode == "" {
		reasonCode = "STOP"
	}
	return &Result{Decision: ResultStop, ProposalHash: proposalHash, Reason: reason, ReasonCode: reasonCode, Proposal: prop, ErrorType: errType}
}

// issue mints and signs a fresh token. The keypair generated inside
// sign is discarded the moment this function returns: ephemeral keys
// never escape a single pipeline call.
func issue(decision Decision, proposalHash, policyHash, envFingerprint string, gateMode GateMode, scope policy.Scope, now time.Time, ttl time.Duration, guardVersion string, auditedPermit bool) (*Token, error) {
	tokenID, err := idgen.New()
	if err != nil {
		return nil, fmt.Errorf("generating token_id: %w", err)
	}
	auditRef, err := idgen.New()
	if err != nil {
		return nil, fmt.Errorf("generating audit_ref: %w", err)
	}

	tok := &Token{
		TokenID:                tokenID,
		AuditRef:                auditRef,
		ProposalHash:            proposalHash,
		PolicyHash:              policyHash,
		EnvironmentFingerprint:  envFingerprint,
		Decision:                decision,
		IssuedAt:                now,
		ExpiresAt:               now.Add(ttl),
		GateMode:                gateMode,
		Scope: TokenScope{
			Action:   "execute",
			Resource: string(scope),
			Constraints: Constraints{
				PolicyVersion: policyHash,
				GateMode:      gateMode,
				GuardVersion:  guardVersion,
				AuditedPermit: auditedPermit,
			},
		},
	}

	if err := sign(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func toLogRecord(r *Result, now time.Time) registry.LogRecord {
	rec := registry.LogRecord{
		Decision:     string(r.Decision),
		ProposalHash: r.ProposalHash,
		Reason:       r.Reason,
		Executed:     false,
		ErrorType:    string(r.ErrorType),
		Time:         now.UTC().Format(time.RFC3339Nano),
	}
	if r.Token != nil {
		rec.TokenID = r.Token.TokenID
		rec.PolicyHash = r.Token.PolicyHash
		rec.EnvironmentFingerprint = r.Token.EnvironmentFingerprint
	}
	if rec.Decision == string(ResultAllow) || rec.Decision == string(ResultHold) {
		rec.Decision = fmt.Sprintf("TOKEN_ISSUED_%s", r.Decision)
	}
	return rec
}
