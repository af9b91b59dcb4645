// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Nick-heo-eg/execution-guard-action/cmd/guardctl/cli"
	"github.com/Nick-heo-eg/execution-guard-action/lib/authority"
	"github.com/Nick-heo-eg/execution-guard-action/lib/codec"
	"github.com/Nick-heo-eg/execution-guard-action/lib/idgen"
	"github.com/Nick-heo-eg/execution-guard-action/lib/scope"
)

// HoldCommand returns the "guardctl hold" subcommand group: the
// human-approval bridge for scope-elevated proposals sitting in the
// file-backed token store.
func HoldCommand() *cli.Command {
	return &cli.Command{
		Name:    "hold",
		Summary: "List and resolve pending human-approval holds",
		Subcommands: []*cli.Command{
			holdListCommand(),
			holdApproveCommand(),
			holdRejectCommand(),
		},
	}
}

func storeDir(auditDir string) string {
	return filepath.Join(auditDir, "store")
}

// holdEntry describes one file in the token store directory, decoded
// just far enough to report on it from "hold list".
type holdEntry struct {
	ProposalHash string    `json:"proposal_hash"`
	TokenID      string    `json:"token_id"`
	Decision     string    `json:"decision"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func listHoldEntries(dir string) ([]holdEntry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("hold: reading store directory: %w", err)
	}

	var entries []holdEntry
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".cbor") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			continue
		}
		var tok authority.Token
		if err := codec.Unmarshal(data, &tok); err != nil {
			continue
		}
		entries = append(entries, holdEntry{
			ProposalHash: tok.ProposalHash,
			TokenID:      tok.TokenID,
			Decision:     string(tok.Decision),
			ExpiresAt:    tok.ExpiresAt,
		})
	}
	return entries, nil
}

func holdListCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "list",
		Summary: "List pending hold tokens in the token store",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			common.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			entries, err := listHoldEntries(storeDir(common.auditDir))
			if err != nil {
				return err
			}
			for _, entry := range entries {
				data, err := json.Marshal(entry)
				if err != nil {
					continue
				}
				fmt.Println(string(data))
			}
			return nil
		},
	}
}

func holdApproveCommand() *cli.Command {
	var common commonFlags
	var ttl time.Duration

	return &cli.Command{
		Name:    "approve",
		Summary: "Mint an ALLOW token for a held proposal hash",
		Usage:   "guardctl hold approve <proposal_hash> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("approve", pflag.ContinueOnError)
			common.register(flagSet)
			flagSet.DurationVar(&ttl, "ttl", authority.DefaultTTL, "lifetime of the newly minted token")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("hold approve: exactly one proposal_hash argument is required")
			}
			proposalHash := args[0]

			store, err := scope.NewFileStore(storeDir(common.auditDir))
			if err != nil {
				return fmt.Errorf("hold approve: opening token store: %w", err)
			}
			held, ok := store.RetrieveToken(proposalHash)
			if !ok {
				return fmt.Errorf("hold approve: no live hold found for %s", proposalHash)
			}

			tokenID, err := idgen.New()
			if err != nil {
				return fmt.Errorf("hold approve: generating token_id: %w", err)
			}
			auditRef, err := idgen.New()
			if err != nil {
				return fmt.Errorf("hold approve: generating audit_ref: %w", err)
			}

			now := time.Now()
			approved := *held
			approved.TokenID = tokenID
			approved.AuditRef = auditRef
			approved.Decision = authority.Allow
			approved.IssuedAt = now
			approved.ExpiresAt = now.Add(ttl)

			if err := authority.Sign(&approved); err != nil {
				return fmt.Errorf("hold approve: signing approved token: %w", err)
			}

			if err := store.StoreToken(proposalHash, &approved); err != nil {
				return fmt.Errorf("hold approve: storing approved token: %w", err)
			}

			fmt.Printf("approved %s by %s; token_id=%s expires_at=%s\n",
				proposalHash, currentUser(), approved.TokenID, approved.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
}

func holdRejectCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "reject",
		Summary: "Delete a held proposal hash from the token store",
		Usage:   "guardctl hold reject <proposal_hash>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("reject", pflag.ContinueOnError)
			common.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("hold reject: exactly one proposal_hash argument is required")
			}
			proposalHash := args[0]

			store, err := scope.NewFileStore(storeDir(common.auditDir))
			if err != nil {
				return fmt.Errorf("hold reject: opening token store: %w", err)
			}
			if err := store.DeleteToken(proposalHash); err != nil {
				return fmt.Errorf("hold reject: %w", err)
			}

			fmt.Printf("rejected %s by %s\n", proposalHash, currentUser())
			return nil
		},
	}
}
