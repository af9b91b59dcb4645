// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Nick-heo-eg/execution-guard-action/cmd/guardctl/cli"
	"github.com/Nick-heo-eg/execution-guard-action/lib/policy"
)

// PolicyCommand returns the "guardctl policy" subcommand group.
func PolicyCommand() *cli.Command {
	return &cli.Command{
		Name:    "policy",
		Summary: "Inspect and validate policy files",
		Subcommands: []*cli.Command{
			policyCheckCommand(),
		},
	}
}

func policyCheckCommand() *cli.Command {
	var policyPath string

	return &cli.Command{
		Name:    "check",
		Summary: "Evaluate a command against a policy without issuing a token",
		Usage:   "guardctl policy check <command> [args...] --policy=./policy.yaml",
		Description: `Loads and evaluates the policy exactly as the authority pipeline
would, but never builds a proposal, issues a token, or spawns a
process. Intended for CI authors iterating on policy.yaml.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&policyPath, "policy", defaultPolicyPath, "path to the policy file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("policy check: a command is required")
			}
			command, commandArgs := args[0], args[1:]

			parsedPolicy, _, err := policy.Load(policyPath)
			var verdict policy.Verdict
			if err != nil {
				verdict = policy.Verdict{Decision: policy.Deny, Reason: "no valid policy; fail-closed"}
			} else {
				verdict = policy.Evaluate(parsedPolicy, command, commandArgs)
			}

			output := struct {
				Decision string `json:"decision"`
				Reason   string `json:"reason"`
				Scope    string `json:"scope"`
			}{
				Decision: string(verdict.Decision),
				Reason:   verdict.Reason,
				Scope:    string(verdict.EffectiveScope()),
			}
			data, err := json.Marshal(output)
			if err != nil {
				return fmt.Errorf("policy check: encoding result: %w", err)
			}
			fmt.Println(string(data))

			if verdict.Decision != policy.Allow {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
