// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proposal

import (
	"runtime"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/canon"
	"github.com/Nick-heo-eg/execution-guard-action/lib/policy"
)

// timestampFloorWindow is the coarse issuance window: wall-clock is
// floored to this boundary before hashing, so requests within the
// same window produce identical proposal hashes.
const timestampFloorWindow = 60 * time.Second

// Proposal is an immutable description of a requested command
// invocation.
type Proposal struct {
	Command        string   `json:"command"`
	Args           []string `json:"args"`
	PolicyPath     string   `json:"policy_path"`
	PolicyHash     string   `json:"policy_hash"`
	GuardVersion   string   `json:"guard_version"`
	TimestampFloor int64    `json:"timestamp_floor"`
}

// Build constructs a canonical Proposal. Args is defensively copied so
// later mutation of the caller's slice cannot change an already-built
// Proposal's hash. policyHash is computed from the policy file's raw
// bytes via policy.HashFile, which returns a deterministic sentinel
// string ("policy_not_found" / "policy_read_error") rather than failing
// when the file is missing or unreadable — Build never errors, in
// keeping with the pipeline's total, never-throws contract.
func Build(command string, args []string, policyPath string, guardVersion string) *Proposal {
	return BuildAt(command, args, policyPath, guardVersion, time.Now())
}

// BuildAt is Build with an explicit time, for deterministic testing.
func BuildAt(command string, args []string, policyPath string, guardVersion string, now time.Time) *Proposal {
	argsCopy := make([]string, len(args))
	copy(argsCopy, args)

	return &Proposal{
		Command:        command,
		Args:           argsCopy,
		PolicyPath:     policyPath,
		PolicyHash:     policy.HashFile(policyPath),
		GuardVersion:   guardVersion,
		TimestampFloor: floor(now),
	}
}

// floor rounds down t to the timestampFloorWindow boundary and returns
// the resulting Unix second count.
func floor(t time.Time) int64 {
	seconds := t.Unix()
	window := int64(timestampFloorWindow / time.Second)
	return (seconds / window) * window
}

// Hash returns the SHA-256 proposal_hash: canon.Hash over p's canonical
// serialization. Two Proposals with structurally equal fields (same
// command, args order, policy binding, guard version, and minute-floor
// timestamp) hash identically.
func Hash(p *Proposal) (string, error) {
	return canon.Hash(p)
}

// EnvironmentProfile names the host-identity fields that feed
// EnvironmentFingerprint. The minimum reference profile is
// {host_os, host_arch, runtime_version}; policy_hash is always
// appended by EnvironmentFingerprint regardless of profile, since the
// environment fingerprint is defined as being over host identity
// fields plus policy_hash.
//
// Extended fields (WorkflowID, RunID, RepositoryCommit, GuardVersion)
// are populated by the external CI/host adapter (out of this core's
// scope) before the core computes the fingerprint; guardctl's own
// default profile leaves them empty.
type EnvironmentProfile struct {
	WorkflowID       string `json:"workflow_id,omitempty"`
	RunID            string `json:"run_id,omitempty"`
	RepositoryCommit string `json:"repository_commit,omitempty"`
	GuardVersion     string `json:"guard_version,omitempty"`
}

// DefaultProfile returns the minimum reference EnvironmentProfile: no
// extended fields populated. Host OS, arch, and runtime version are
// always read live from the runtime package in EnvironmentFingerprint,
// not stored on the profile, since they describe the process computing
// the fingerprint rather than a caller-supplied identity claim.
func DefaultProfile() EnvironmentProfile {
	return EnvironmentProfile{}
}

// environmentRecord is the sorted-key-serialized shape hashed by
// EnvironmentFingerprint. Field names match the wire record's
// snake_case vocabulary so the fingerprint's canonical bytes are
// self-describing in audit dumps.
type environmentRecord struct {
	HostOS           string `json:"host_os"`
	HostArch         string `json:"host_arch"`
	RuntimeVersion   string `json:"runtime_version"`
	PolicyHash       string `json:"policy_hash"`
	WorkflowID       string `json:"workflow_id,omitempty"`
	RunID            string `json:"run_id,omitempty"`
	RepositoryCommit string `json:"repository_commit,omitempty"`
	GuardVersion     string `json:"guard_version,omitempty"`
}

// EnvironmentFingerprint hashes an ordered record of host-identity
// fields under profile, plus policyHash. Mutating any included field
// between issuance and kernel verification changes the returned hex
// string, which is exactly how the kernel's environment-binding
// verification step detects host/runtime drift.
func EnvironmentFingerprint(profile EnvironmentProfile, policyHash string) (string, error) {
	record := environmentRecord{
		HostOS:           runtime.GOOS,
		HostArch:         runtime.GOARCH,
		RuntimeVersion:   runtime.Version(),
		PolicyHash:       policyHash,
		WorkflowID:       profile.WorkflowID,
		RunID:            profile.RunID,
		RepositoryCommit: profile.RepositoryCommit,
		GuardVersion:     profile.GuardVersion,
	}
	return canon.Hash(record)
}
