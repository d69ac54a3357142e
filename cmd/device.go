// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Thermoquad/aurorastat/pkg/aurora"
	"github.com/spf13/cobra"
)

var (
	commBaudCode  string
	commBaudRate  int
	commDataBits  string
	commParity    string
	commStopBits  string
	commHandshake string

	phsrOption string
	showStats  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the system (INIT)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd, func(s *aurora.Session) error {
			if err := s.Init(); err != nil {
				return err
			}
			fmt.Println("OKAY")
			return nil
		})
	},
}

var beepCmd = &cobra.Command{
	Use:   "beep [count]",
	Short: "Sound the system beeper 1-9 times (BEEP)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid beep count %q", args[0])
			}
			count = n
		}
		return runWithSession(cmd, func(s *aurora.Session) error {
			if err := s.Beep(count); err != nil {
				return err
			}
			fmt.Println("OKAY")
			return nil
		})
	},
}

var commCmd = &cobra.Command{
	Use:   "comm",
	Short: "Change the serial settings (COMM)",
	Long: `Change the device serial settings and follow with the host port.

Baud rate codes:
  0=9600 1=14400 2=19200 3=38400 4=57600 5=115200 6=921600 7=1228739

After OKAY the serial port is switched to the new baud rate.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := aurora.DefaultCommSettings()
		settings.BaudRate = commBaudCode
		if cmd.Flags().Changed("rate") {
			code, ok := aurora.BaudRateCode(commBaudRate)
			if !ok {
				return fmt.Errorf("unsupported baud rate %d", commBaudRate)
			}
			settings.BaudRate = code
		}
		settings.DataBits = commDataBits
		settings.Parity = commParity
		settings.StopBits = commStopBits
		settings.Handshake = commHandshake

		return runWithSession(cmd, func(s *aurora.Session) error {
			if err := s.Comm(settings); err != nil {
				return err
			}
			baud, _ := aurora.BaudRate(settings.BaudRate)
			fmt.Printf("OKAY (now %d baud)\n", baud)
			return nil
		})
	},
}

var echoCmd = &cobra.Command{
	Use:   "echo <text>",
	Short: "Echo text back from the device (ECHO)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return runWithSession(cmd, func(s *aurora.Session) error {
			data, err := s.Echo(text)
			if err != nil {
				return err
			}
			fmt.Println(data)
			return nil
		})
	},
}

var ledCmd = &cobra.Command{
	Use:   "led <handle> <led> <state>",
	Short: "Set a tool LED (LED)",
	Long: `Set LED 1-3 on the tool at a port handle.

States:
  B - Blank (off)
  F - Flash
  S - Solid on`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid LED number %q", args[1])
		}
		return runWithSession(cmd, func(s *aurora.Session) error {
			if err := s.LED(args[0], led, args[2]); err != nil {
				return err
			}
			fmt.Println("OKAY")
			return nil
		})
	},
}

var phsrCmd = &cobra.Command{
	Use:   "phsr",
	Short: "List port handles and their status (PHSR)",
	Long: `Request the port handle status list.

Reply options:
  00 - All allocated port handles (default)
  01 - Handles to be freed
  02 - Handles occupied but not initialized or enabled
  03 - Handles occupied and initialized but not enabled
  04 - Handles enabled

INIT is sent first when the session is uninitialized and --auto-init is on.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd, func(s *aurora.Session) error {
			entries, err := s.PortHandleStatus(phsrOption)
			if err != nil {
				return err
			}
			fmt.Printf("Port handles: %d\n", len(entries))
			for _, e := range entries {
				fmt.Print(formatEntry(e))
			}
			return nil
		})
	},
}

var tstartCmd = &cobra.Command{
	Use:   "tstart",
	Short: "Start tracking mode (TSTART)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd, func(s *aurora.Session) error {
			if err := s.TStart(); err != nil {
				return err
			}
			fmt.Println("OKAY")
			return nil
		})
	},
}

var tstopCmd = &cobra.Command{
	Use:   "tstop",
	Short: "Stop tracking mode (TSTOP)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd, func(s *aurora.Session) error {
			if err := s.TStop(); err != nil {
				return err
			}
			fmt.Println("OKAY")
			return nil
		})
	},
}

var verCmd = &cobra.Command{
	Use:   "ver [option]",
	Short: "Show firmware revision (VER)",
	Long: `Show firmware revision information.

Reply options:
  0 - System control processor
  4 - System control unit processor, enhanced (default)
  5 - Combined firmware revision
  7 - System control processor, GUI format
  8 - Sensor interface unit firmware`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		option := 4
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid reply option %q", args[0])
			}
			option = n
		}
		return runWithSession(cmd, func(s *aurora.Session) error {
			data, err := s.Ver(option)
			if err != nil {
				return err
			}
			fmt.Println(data)
			return nil
		})
	},
}

var apirevCmd = &cobra.Command{
	Use:   "apirev",
	Short: "Show the API revision (APIREV)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd, func(s *aurora.Session) error {
			data, err := s.APIRev()
			if err != nil {
				return err
			}
			fmt.Println(data)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the system (RESET)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd, func(s *aurora.Session) error {
			if err := s.Reset(); err != nil {
				return err
			}
			fmt.Println("RESET")
			return nil
		})
	},
}

var rawCmd = &cobra.Command{
	Use:   "raw <command>...",
	Short: "Send raw command lines in one session",
	Long: `Send each argument as one command line, in order, over a single session.

The line is sent as typed; a checksum is appended when --checksum-all is set.
The reply is parsed and printed. Sending stops at the first error.

Example:
  aurorastat raw "INIT " "PHSR 00" "TSTART "`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithSession(cmd, func(s *aurora.Session) error {
			for _, line := range args {
				r, err := s.SendRaw(line)
				if r != nil {
					fmt.Printf("%s -> %s", line, aurora.FormatReply(r))
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	commCmd.Flags().StringVar(&commBaudCode, "baud-code", "0", "Baud rate code (0-7)")
	commCmd.Flags().IntVar(&commBaudRate, "rate", 0, "Baud rate in bits per second (overrides --baud-code)")
	commCmd.Flags().StringVar(&commDataBits, "data-bits", "0", "Data bits code (0=8 bits, 1=7 bits)")
	commCmd.Flags().StringVar(&commParity, "parity", "0", "Parity code (0=none, 1=odd, 2=even)")
	commCmd.Flags().StringVar(&commStopBits, "stop-bits", "0", "Stop bits code (0=1 bit, 1=2 bits)")
	commCmd.Flags().StringVar(&commHandshake, "handshake", "0", "Hardware handshaking code (0=off, 1=on)")

	phsrCmd.Flags().StringVar(&phsrOption, "option", "", "Reply option (00-04)")

	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Print exchange statistics on exit")

	rootCmd.AddCommand(initCmd, beepCmd, commCmd, echoCmd, ledCmd, phsrCmd,
		tstartCmd, tstopCmd, verCmd, apirevCmd, resetCmd, rawCmd)
}

// runWithSession opens a session, runs fn and closes the session. It exits
// with code 2 on connection errors and 1 on any other failure.
func runWithSession(cmd *cobra.Command, fn func(*aurora.Session) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	session, connInfo, err := openSession(cmd.Context(), s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	logger.Info().Str("connection", connInfo).Msg("connected")

	err = fn(session)
	if showStats {
		fmt.Fprint(os.Stderr, session.Statistics().String())
	}
	if cerr := session.Close(); cerr != nil {
		logger.Warn().Err(cerr).Msg("close failed")
	}
	if err != nil {
		os.Exit(reportError(err))
	}
	return nil
}

// reportError prints err and returns the exit code for it.
func reportError(err error) int {
	var devErr *aurora.DeviceError
	var transportErr *aurora.TransportError

	switch {
	case errors.As(err, &devErr):
		fmt.Fprintf(os.Stderr, "Device error: %s\n", devErr.Command)
		for _, c := range devErr.Codes {
			fmt.Fprintf(os.Stderr, "  * Code: %s\n", c)
		}
		return 1
	case errors.As(err, &transportErr):
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func formatEntry(e aurora.PortHandleEntry) string {
	status, err := e.Decode()
	if err != nil {
		return fmt.Sprintf("  - Port Handle: %s -> Status: %s (%v)\n", e.Handle, e.Status, err)
	}
	return fmt.Sprintf("  - Port Handle: %s -> Status: %s -> %s\n", e.Handle, e.Status, status)
}
