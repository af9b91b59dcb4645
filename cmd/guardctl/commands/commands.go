// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/Nick-heo-eg/execution-guard-action/cmd/guardctl/cli"
)

// Root builds and returns the complete guardctl CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "guardctl",
		Description: `guardctl: deterministic execution gate for command invocations from
untrusted or semi-trusted sources.

Default is deny. No shell parsing, no intent inference, no globbing:
only exact identity matching bound to a signed authority token.`,
		Subcommands: []*cli.Command{
			RunCommand(),
			PolicyCommand(),
			HoldCommand(),
			AuditCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Println(GuardVersion)
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Run an allowed command through the gate",
				Command:     "guardctl run echo hello --policy ./policy.yaml",
			},
			{
				Description: "Dry-run policy evaluation while iterating on policy.yaml",
				Command:     "guardctl policy check rm -rf / --policy ./policy.yaml",
			},
			{
				Description: "See what's waiting for human approval",
				Command:     "guardctl hold list",
			},
			{
				Description: "Approve a held proposal",
				Command:     "guardctl hold approve <proposal_hash>",
			},
			{
				Description: "Watch the audit trail live",
				Command:     "guardctl audit watch",
			},
		},
	}
}
