// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

const (
	flagPort          = "port"
	flagBaud          = "baud"
	flagURL           = "url"
	flagUsername      = "username"
	flagNoSSLVerify   = "no-ssl-verify"
	flagConfig        = "config"
	flagChecksum      = "checksum"
	flagChecksumSeed  = "checksum-seed"
	flagChecksumAll   = "checksum-all"
	flagAutoInit      = "auto-init"
	flagVerifyReplies = "verify-replies"
	flagDebug         = "debug"
	flagLogLevel      = "log-level"
	flagRecord        = "record"
	flagOpenRetries   = "open-retries"
	flagReadTimeout   = "read-timeout"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aurorastat",
	Short: "NDI Aurora Serial Protocol Tool",
	Long: `Aurorastat - A CLI tool for driving an NDI Aurora tracking system over its
serial ASCII command protocol.

Sends checksummed commands, parses OKAY / ERROR / port handle status replies,
and tracks the device session (uninitialized, initialized, tracking).

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the AURORA_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Every flag can also be set in $HOME/.aurorastat.yaml or through an
AURORASTAT_ prefixed environment variable (AURORASTAT_CHECKSUM=b).

Exit codes:
  0 - Success
  1 - Device error or invalid reply
  2 - Connection error`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, flagConfig, "", "Config file (default $HOME/.aurorastat.yaml)")

	// Serial connection flags
	pf.StringP(flagPort, "p", "", "Serial port device")
	pf.IntP(flagBaud, "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	pf.StringP(flagURL, "u", "", "WebSocket URL (ws:// or wss://)")
	pf.String(flagUsername, "", "Username for HTTP Basic auth")
	pf.Bool(flagNoSSLVerify, false, "Skip TLS certificate verification (wss:// only)")

	// Protocol flags
	pf.String(flagChecksum, "a", "Command checksum algorithm (a or b)")
	pf.Uint16(flagChecksumSeed, 0, "Initial accumulator for checksum algorithm b")
	pf.Bool(flagChecksumAll, false, "Append a checksum to every command")
	pf.Bool(flagAutoInit, true, "Send INIT automatically before PHSR when uninitialized")
	pf.Bool(flagVerifyReplies, false, "Verify reply checksums")

	// Diagnostics
	pf.BoolP(flagDebug, "d", false, "Trace every command and reply on stderr")
	pf.String(flagLogLevel, "warn", "Log level (trace, debug, info, warn, error)")
	pf.String(flagRecord, "", "Record the exchange to a CBOR capture file")
	pf.Uint(flagOpenRetries, 3, "Attempts when opening the connection")
	pf.Duration(flagReadTimeout, 0, "Serial read timeout (0 waits forever)")
}

func preRun(cmd *cobra.Command, args []string) error {
	if err := initConfig(cmd); err != nil {
		return err
	}
	return initLogger()
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
