// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Nick-heo-eg/execution-guard-action/cmd/guardctl/cli"
	"github.com/Nick-heo-eg/execution-guard-action/lib/authority"
	"github.com/Nick-heo-eg/execution-guard-action/lib/guarderr"
	"github.com/Nick-heo-eg/execution-guard-action/lib/kernel"
	"github.com/Nick-heo-eg/execution-guard-action/lib/proposal"
	"github.com/Nick-heo-eg/execution-guard-action/lib/registry"
	"github.com/Nick-heo-eg/execution-guard-action/lib/scope"
)

// decisionLine is the structured line guardctl prints to stdout per
// decision: "decision, proposal_hash, token_id, policy_hash,
// environment_fingerprint, reason, executed, gate_mode, error_type".
type decisionLine struct {
	Decision               string `json:"decision"`
	ProposalHash           string `json:"proposal_hash"`
	TokenID                string `json:"token_id,omitempty"`
	PolicyHash             string `json:"policy_hash,omitempty"`
	EnvironmentFingerprint string `json:"environment_fingerprint,omitempty"`
	Reason                 string `json:"reason"`
	Executed               bool   `json:"executed"`
	GateMode               string `json:"gate_mode"`
	ErrorType              string `json:"error_type,omitempty"`
}

func printDecisionLine(line decisionLine) {
	data, err := json.Marshal(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: encoding decision line: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// RunCommand returns the "guardctl run" subcommand.
func RunCommand() *cli.Command {
	var common commonFlags
	var gateMode string
	var allowWithAudit bool
	var failOnHold bool

	return &cli.Command{
		Name:    "run",
		Summary: "Run a command through the execution gate",
		Usage:   "guardctl run <command> [args...] [flags]",
		Description: `Evaluates (command, args) against the configured policy, issues a
signed token per the mode-gate decision matrix, and on ALLOW runs the
command through the execution kernel's seven-step verification chain.`,
		Examples: []cli.Example{
			{Description: "Run an allowed command", Command: "guardctl run echo hello --policy ./policy.yaml"},
			{Description: "Permit an unmatched command but audit it", Command: "guardctl run true --gate-mode permissive --allow-with-audit"},
			{Description: "Log the pipeline decision and any kernel denial to stderr", Command: "guardctl run echo hello --verbose"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			common.register(flagSet)
			flagSet.StringVar(&gateMode, "gate-mode", "strict", "strict or permissive")
			flagSet.BoolVar(&allowWithAudit, "allow-with-audit", false, "issue an audited ALLOW on a permissive policy miss")
			flagSet.BoolVar(&failOnHold, "fail-on-hold", true, "exit non-zero when the decision is HOLD")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("run: a command is required")
			}
			command, commandArgs := args[0], args[1:]
			log := common.logger("run")

			reg, err := registry.Open(common.auditDir, common.stream)
			if err != nil {
				return fmt.Errorf("run: opening registry: %w", err)
			}
			defer reg.Close()

			store, err := scope.NewFileStore(common.auditDir + "/store")
			if err != nil {
				return fmt.Errorf("run: opening token store: %w", err)
			}

			result := authority.Run(authority.Params{
				Command:        command,
				Args:           commandArgs,
				PolicyPath:     common.policyPath,
				GateMode:       authority.CoerceGateMode(strings.ToUpper(gateMode)),
				AllowWithAudit: allowWithAudit,
				GuardVersion:   GuardVersion,
				EnvironmentProfile: proposal.DefaultProfile(),
				Registry:       reg,
				Store:          store,
			})
			if log != nil {
				log.Info("pipeline decision",
					"decision", result.Decision,
					"reason", result.Reason,
					"proposal_hash", result.ProposalHash,
					"command", command)
			}

			line := decisionLine{
				Decision:   string(result.Decision),
				ProposalHash: result.ProposalHash,
				Reason:     result.Reason,
				GateMode:   gateMode,
				ErrorType:  string(result.ErrorType),
			}
			if result.Token != nil {
				line.TokenID = result.Token.TokenID
				line.PolicyHash = result.Token.PolicyHash
				line.EnvironmentFingerprint = result.Token.EnvironmentFingerprint
			}

			switch result.Decision {
			case authority.ResultAllow:
				k := &kernel.Kernel{Registry: reg, EnvironmentProfile: proposal.DefaultProfile()}
				execResult, err := k.Execute(context.Background(), command, commandArgs, result.Proposal, result.Token)
				if err != nil {
					line.Executed = false
					line.Reason = err.Error()
					if log != nil {
						kind, _ := guarderr.KindOf(err)
						log.Error("kernel denied execution",
							"error_type", kind,
							"step", guarderr.Step(kind),
							"token_id", result.Token.TokenID)
					}
					printDecisionLine(line)
					return &cli.ExitError{Code: 1}
				}
				line.Executed = true
				if log != nil {
					log.Info("kernel executed command", "exit_code", execResult.ExitCode, "token_id", execResult.TokenID)
				}
				printDecisionLine(line)
				return &cli.ExitError{Code: execResult.ExitCode}

			case authority.ResultHold:
				printDecisionLine(line)
				if failOnHold {
					return &cli.ExitError{Code: 1}
				}
				return nil

			default: // ResultStop
				printDecisionLine(line)
				return &cli.ExitError{Code: 1}
			}
		},
	}
}
