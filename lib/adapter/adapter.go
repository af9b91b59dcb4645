// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package adapter

import (
	"strings"
	"unicode"

	"github.com/Nick-heo-eg/execution-guard-action/lib/canon"
	"github.com/Nick-heo-eg/execution-guard-action/lib/guarderr"
)

// shellMetacharacters is the fixed set of characters disallowed in a
// command name.
const shellMetacharacters = "|&;<>`$\"'()"

// SourceTag identifies where a RawProposal originated. Every proposal
// must carry one of these; an unrecognized tag is a validation
// failure, not silently accepted.
type SourceTag string

const (
	SourceAgent SourceTag = "agent"
	SourceCI    SourceTag = "ci"
	SourceHuman SourceTag = "human"
)

func validSourceTag(tag SourceTag) bool {
	switch tag {
	case SourceAgent, SourceCI, SourceHuman:
		return true
	default:
		return false
	}
}

// RawProposal is the wire shape an external CI or agent adapter
// submits, before any type or shape guarantees are assumed. Args is
// untyped (any) so Validate can distinguish "not a sequence of
// strings at all" (VALIDATION_ERROR) from "a sequence containing a
// shell-dangerous string" (SHELL_STRING_REJECTED).
type RawProposal struct {
	Command       string `json:"command"`
	Args          any    `json:"args"`
	PolicyPath    string `json:"policy_path"`
	SessionID     string `json:"session_id"`
	TurnID        string `json:"turn_id"`
	AgentID       string `json:"agent_id"`
	SourceTag     string `json:"source_tag"`
	CWD           string `json:"cwd,omitempty"`
	EnvAllowlist  []string `json:"env_allowlist,omitempty"`
	RequestedMode string `json:"requested_mode,omitempty"`
}

// Proposal is the validated, canonicalized form: a superset of the
// core's canonical proposal fields plus the adapter's identity
// metadata.
type Proposal struct {
	Command       string
	Args          []string
	PolicyPath    string
	SessionID     string
	TurnID        string
	AgentID       string
	SourceTag     SourceTag
	CWD           string
	EnvAllowlist  []string
	RequestedMode string
}

// Validate checks raw against the strict shell-rejection schema and
// identity requirements. On success it returns the
// canonicalized Proposal; on failure it returns a *guarderr.Denial of
// kind ShellStringRejected or ValidationError. Rejections happen
// before any policy evaluation: there is no path from a failed
// Validate call into policy.Evaluate.
func Validate(raw RawProposal) (*Proposal, error) {
	if err := validateCommand(raw.Command); err != nil {
		return nil, err
	}

	args, err := validateArgs(raw.Args)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw.SessionID) == "" {
		return nil, guarderr.New(guarderr.ValidationError, "session_id is required and must be non-blank")
	}
	if strings.TrimSpace(raw.TurnID) == "" {
		return nil, guarderr.New(guarderr.ValidationError, "turn_id is required and must be non-blank")
	}
	if strings.TrimSpace(raw.AgentID) == "" {
		return nil, guarderr.New(guarderr.ValidationError, "agent_id is required and must be non-blank")
	}

	sourceTag := SourceTag(raw.SourceTag)
	if !validSourceTag(sourceTag) {
		return nil, guarderr.New(guarderr.ValidationError, "source_tag %q is not a recognized source", raw.SourceTag)
	}

	return &Proposal{
		Command:       raw.Command,
		Args:          args,
		PolicyPath:    raw.PolicyPath,
		SessionID:     raw.SessionID,
		TurnID:        raw.TurnID,
		AgentID:       raw.AgentID,
		SourceTag:     sourceTag,
		CWD:           raw.CWD,
		EnvAllowlist:  raw.EnvAllowlist,
		RequestedMode: raw.RequestedMode,
	}, nil
}

func validateCommand(command string) error {
	if command == "" {
		return guarderr.New(guarderr.ShellStringRejected, "command must be non-empty")
	}
	for _, r := range command {
		if unicode.IsSpace(r) {
			return guarderr.New(guarderr.ShellStringRejected, "command %q contains whitespace", command)
		}
	}
	if strings.ContainsAny(command, shellMetacharacters) {
		return guarderr.New(guarderr.ShellStringRejected, "command %q contains a shell metacharacter", command)
	}
	if strings.ContainsAny(command, "\r\n") {
		return guarderr.New(guarderr.ShellStringRejected, "command %q contains a carriage return or newline", command)
	}
	return nil
}

// validateArgs rejects a non-sequence or non-string-element args value
// as VALIDATION_ERROR, and a well-typed sequence containing CR/LF as
// SHELL_STRING_REJECTED. An absent (nil) args value is an empty vector.
func validateArgs(value any) ([]string, error) {
	var raw []any
	switch v := value.(type) {
	case nil:
	case []any:
		raw = v
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	default:
		return nil, guarderr.New(guarderr.ValidationError, "args is not a sequence")
	}
	args := make([]string, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, guarderr.New(guarderr.ValidationError, "args[%d] is not a string", i)
		}
		if strings.ContainsAny(s, "\r\n") {
			return nil, guarderr.New(guarderr.ShellStringRejected, "args[%d] contains a carriage return or newline", i)
		}
		args = append(args, s)
	}
	return args, nil
}

// AuditArgsHash returns the SHA-256 hash of the argument vector args, for
// storing in the audit record in place of plaintext args.
func AuditArgsHash(args []string) (string, error) {
	return canon.Hash(args)
}
