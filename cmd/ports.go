// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports on this host.

USB adapters are shown with their vendor/product IDs and serial number, which
helps find the Aurora system control unit among several adapters.`,
	Args: cobra.NoArgs,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(os.Stderr, "No serial ports found")
		os.Exit(1)
	}

	for _, port := range ports {
		fmt.Printf("%s\n", port.Name)
		if port.IsUSB {
			fmt.Printf("   USB ID      %s:%s\n", port.VID, port.PID)
			if port.Product != "" {
				fmt.Printf("   Product     %s\n", port.Product)
			}
			if port.SerialNumber != "" {
				fmt.Printf("   USB serial  %s\n", port.SerialNumber)
			}
		}
	}
	return nil
}
