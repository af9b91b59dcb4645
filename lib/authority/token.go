// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/canon"
)

// Decision is a Verified Token's decision field: ALLOW or HOLD (spec
// §3). Unlike the pipeline's ResultDecision, a minted Token is never
// STOP — a STOP result never issues a token at all.
type Decision string

const (
	Allow Decision = "ALLOW"
	Hold  Decision = "HOLD"
)

// GateMode controls whether a policy miss blocks at the gate (Strict)
// or issues a HOLD token that still passes through the kernel
// (Permissive), per the GLOSSARY.
type GateMode string

const (
	Strict     GateMode = "STRICT"
	Permissive GateMode = "PERMISSIVE"
)

// CoerceGateMode returns mode parsed as a GateMode, or Strict if mode
// is not a recognized value. Spec §6: "gate_mode (default STRICT,
// unknown values silently coerced to STRICT)".
func CoerceGateMode(mode string) GateMode {
	switch GateMode(mode) {
	case Strict, Permissive:
		return GateMode(mode)
	default:
		return Strict
	}
}

// DefaultTTL is the token lifetime used when no explicit TTL is
// supplied: a bounded TTL, default 5 minutes.
const DefaultTTL = 5 * time.Minute

// Constraints is the structured detail inside TokenScope.
type Constraints struct {
	PolicyVersion string   `json:"policy_version"`
	GateMode      GateMode `json:"gate_mode"`
	GuardVersion  string   `json:"guard_version"`
	AuditedPermit bool     `json:"audited_permit,omitempty"`
}

// TokenScope is the verified token's scope field.
type TokenScope struct {
	Action      string      `json:"action"`
	Resource    string      `json:"resource"`
	Constraints Constraints `json:"constraints"`
}

// Token is the verified, signed authority token consumed exactly once
// by the kernel.
type Token struct {
	TokenID                string     `json:"token_id"`
	AuditRef               string     `json:"audit_ref"`
	ProposalHash           string     `json:"proposal_hash"`
	PolicyHash             string     `json:"policy_hash"`
	EnvironmentFingerprint string     `json:"environment_fingerprint"`
	Decision               Decision   `json:"decision"`
	IssuedAt               time.Time  `json:"issued_at"`
	ExpiresAt              time.Time  `json:"expires_at"`
	Scope                  TokenScope `json:"scope"`
	GateMode               GateMode   `json:"gate_mode"`
	IssuerSignature        string     `json:"issuer_signature"`
	PublicKeyHex           string     `json:"public_key_hex"`
}

// signedFields mirrors Token's fields minus IssuerSignature and
// PublicKeyHex: exactly the payload that gets signed and, on
// verification, reconstructed and re-hashed: the signature binds the
// entire token minus issuer_signature and public_key_hex.
type signedFields struct {
	TokenID                string     `json:"token_id"`
	AuditRef               string     `json:"audit_ref"`
	ProposalHash           string     `json:"proposal_hash"`
	PolicyHash             string     `json:"policy_hash"`
	EnvironmentFingerprint string     `json:"environment_fingerprint"`
	Decision               Decision   `json:"decision"`
	IssuedAt               time.Time  `json:"issued_at"`
	ExpiresAt              time.Time  `json:"expires_at"`
	Scope                  TokenScope `json:"scope"`
	GateMode               GateMode   `json:"gate_mode"`
}

func (t *Token) signingPayload() signedFields {
	return signedFields{
		TokenID:                t.TokenID,
		AuditRef:               t.AuditRef,
		ProposalHash:           t.ProposalHash,
		PolicyHash:             t.PolicyHash,
		EnvironmentFingerprint: t.EnvironmentFingerprint,
		Decision:               t.Decision,
		IssuedAt:               t.IssuedAt,
		ExpiresAt:              t.ExpiresAt,
		Scope:                  t.Scope,
		GateMode:               t.GateMode,
	}
}

// signingPayloadBytes returns the exact canonical bytes a signature is
// computed over, shared by Sign and Verify so both sides always agree.
func signingPayloadBytes(t *Token) ([]byte, error) {
	return canon.Serialize(t.signingPayload())
}

// Sign generates a fresh Ed25519 keypair, signs t's canonical payload,
// and attaches the signature and hex-encoded public key to t. The
// private key never leaves this function.
//
// Exported for guardctl's "hold approve" command
// (cmd/guardctl/commands), which mints a
// replacement ALLOW token from a held proposal and must re-sign it
// under a fresh keypair before storing it back.
func Sign(t *Token) error {
	return sign(t)
}

func sign(t *Token) error {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("authority: generating ephemeral keypair: %w", err)
	}

	payload, err := signingPayloadBytes(t)
	if err != nil {
		return fmt.Errorf("authority: serializing token payload: %w", err)
	}

	signature := ed25519.Sign(privateKey, payload)
	t.IssuerSignature = hex.EncodeToString(signature)
	t.PublicKeyHex = hex.EncodeToString(publicKey)
	return nil
}

// VerifySignature reconstructs t's signed payload and checks
// t.IssuerSignature against t.PublicKeyHex. This is kernel
// verification step 7.
func VerifySignature(t *Token) error {
	publicKey, err := hex.DecodeString(t.PublicKeyHex)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("authority: malformed public key")
	}
	signature, err := hex.DecodeString(t.IssuerSignature)
	if err != nil {
		return fmt.Errorf("authority: malformed signature encoding")
	}

	payload, err := signingPayloadBytes(t)
	if err != nil {
		return fmt.Errorf("authority: serializing token payload: %w", err)
	}

	if !ed25519.Verify(ed25519.PublicKey(publicKey), payload, signature) {
		return fmt.Errorf("authority: signature verification failed")
	}
	return nil
}
