// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive TUI for sending commands",
	Long: `Send Aurora commands from an interactive terminal UI.

Type a command line and press Enter, or Tab to the command list and pick one.
Each reply is decoded in the exchange log. The header shows the session state,
the port handles from the last PHSR and the checksum accumulator.

Keys:
  Enter      Send the command
  Tab        Switch between command list and input
  Up/Down    Command history
  Ctrl+W     Show raw reply frames
  Ctrl+R     Reset statistics
  Esc        Quit

Logging and --debug tracing are off while the console runs, since both
write to the terminal. Use --record to keep a capture of the session.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	s.Debug = false
	logger = zerolog.Nop()

	session, connInfo, err := openSession(cmd.Context(), s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer session.Close()

	p := tea.NewProgram(initialConsoleModel(session, connInfo), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	fmt.Print(session.Statistics().String())
	return nil
}
