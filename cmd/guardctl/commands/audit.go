// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/Nick-heo-eg/execution-guard-action/cmd/guardctl/cli"
)

// AuditCommand returns the "guardctl audit" subcommand group.
func AuditCommand() *cli.Command {
	return &cli.Command{
		Name:    "audit",
		Summary: "Inspect the gate's audit streams",
		Subcommands: []*cli.Command{
			auditTailCommand(),
			auditWatchCommand(),
		},
	}
}

func logStreamPath(auditDir, stream string) string {
	return filepath.Join(auditDir, fmt.Sprintf("log.%s", stream))
}

func usedTokensStreamPath(auditDir, stream string) string {
	return filepath.Join(auditDir, fmt.Sprintf("used_tokens.%s", stream))
}

func auditTailCommand() *cli.Command {
	var common commonFlags
	var follow bool

	return &cli.Command{
		Name:    "tail",
		Summary: "Print the JSON-lines audit log",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tail", pflag.ContinueOnError)
			common.register(flagSet)
			flagSet.BoolVar(&follow, "follow", false, "keep printing new records as they are appended")
			return flagSet
		},
		Run: func(args []string) error {
			path := logStreamPath(common.auditDir, common.stream)

			file, err := os.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					if !follow {
						return nil
					}
				} else {
					return fmt.Errorf("audit tail: %w", err)
				}
			}
			var offset int64
			if file != nil {
				defer file.Close()
				n, err := io.Copy(os.Stdout, file)
				if err != nil {
					return fmt.Errorf("audit tail: %w", err)
				}
				offset = n
			}

			if !follow {
				return nil
			}
			return followFile(path, os.Stdout, offset)
		},
	}
}

// followFile polls path for bytes appended past offset and writes each
// newly available byte range to w, roughly mirroring "tail -f" for a
// single-writer, append-only file.
func followFile(path string, w io.Writer, offset int64) error {
	for {
		file, err := os.Open(path)
		if err == nil {
			if _, err := file.Seek(offset, io.SeekStart); err == nil {
				n, _ := io.Copy(w, file)
				offset += n
			}
			file.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// readLastLines returns up to n trailing non-empty lines of the file
// at path, or nil if the file does not exist.
func readLastLines(path string, n int) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines
}
