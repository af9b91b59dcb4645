// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete guardctl CLI command tree.
package commands

import (
	"log/slog"
	"os/user"

	"github.com/spf13/pflag"

	"github.com/Nick-heo-eg/execution-guard-action/cmd/guardctl/cli"
)

// GuardVersion identifies this implementation in issued tokens and
// audit records.
const GuardVersion = "guardctl/0.1"

const (
	defaultPolicyPath = "./policy.yaml"
	defaultAuditDir   = "./.guardctl/audit"
	defaultStream     = "default"
)

// commonFlags holds the flag values shared by run and the hold/audit
// subcommands that operate against the same audit directory and
// stream. "policy check" registers its own --policy flag instead.
type commonFlags struct {
	policyPath string
	auditDir   string
	stream     string
	verbose    bool
}

func (f *commonFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.policyPath, "policy", defaultPolicyPath, "path to the policy file")
	flagSet.StringVar(&f.auditDir, "audit-dir", defaultAuditDir, "directory for audit streams and the token store")
	flagSet.StringVar(&f.stream, "stream", defaultStream, "audit stream name")
	flagSet.BoolVar(&f.verbose, "verbose", false, "log verification-chain diagnostics to stderr")
}

// logger returns a structured logger scoped to this invocation's
// command/policy/stream, or nil when --verbose was not set. Callers
// check for nil rather than relying on a level filter, so the common
// case of a quiet run pays no slog overhead at all.
func (f *commonFlags) logger(command string) *slog.Logger {
	if !f.verbose {
		return nil
	}
	return cli.NewCommandLogger().With(
		"command", command,
		"policy", f.policyPath,
		"stream", f.stream,
	)
}

// currentUser returns the OS-reported username of the process owner,
// used as the hold approver/rejecter identity. Unlike a CLI flag or
// environment variable, this cannot be spoofed by the caller of
// "guardctl hold approve" without already having shell access as that
// user.
func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
