// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/aurorastat/pkg/aurora"
	"github.com/Thermoquad/aurorastat/pkg/trace"
	"github.com/spf13/cobra"
)

var (
	replayVerify bool
	replayStats  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture>",
	Short: "Decode a recorded CBOR capture",
	Long: `Decode a capture written with --record and print each command and reply
with its parse result.

With --verify every reply checksum is checked as well. Statistics are
printed at the end unless --summary=false.

Exit codes:
  0 - Every reply decoded
  1 - At least one reply failed to decode`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayVerify, "verify", false, "Verify reply checksums")
	replayCmd.Flags().BoolVar(&replayStats, "summary", true, "Print statistics after the capture")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := trace.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read capture: %w", err)
	}

	stats := aurora.NewStatistics()
	failed := 0
	for _, rec := range records {
		if rec.Dir == trace.Sent {
			fmt.Print(aurora.FormatTraceCommand(rec.Time(), rec.Data))
			continue
		}

		if rec.Err != "" {
			err := &aurora.TransportError{Op: "read", Err: fmt.Errorf("%s", rec.Err)}
			fmt.Print(aurora.FormatTraceReply(rec.Time(), nil, nil, err))
			stats.Update(true, nil, err)
			failed++
			continue
		}

		r, err := aurora.ParseAny(rec.Data)
		if err == nil && replayVerify {
			err = r.VerifyChecksum()
		}
		if err != nil {
			fmt.Print(aurora.FormatTraceReply(rec.Time(), rec.Data, nil, err))
			stats.Update(true, nil, err)
			failed++
			continue
		}
		fmt.Print(aurora.FormatTraceReply(rec.Time(), rec.Data, r, nil))
		stats.Update(true, r, nil)
	}

	if replayStats {
		fmt.Println()
		fmt.Print(stats.String())
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d replies failed to decode\n", failed, stats.Snapshot().Commands)
		os.Exit(1)
	}
	return nil
}
