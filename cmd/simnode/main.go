// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// simnode is a CLI harness that spins up an in-process four-validator
// committee and drives it through the S1, S2, S3, S5 and S6 scenarios of
// spec §8 (S4 is not included), in the style of the teacher's
// cmd/consensus simulator subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simnode",
	Short: "Run the consensus core against simulated committee scenarios",
	Long: `simnode spins up an in-process four-validator committee and drives it
through a named scenario (S1, S2, S3, S5 or S6 from the consensus core's
test plan; S4 is not included), or
all of them in sequence, reporting each round's outcome.`,
}

func main() {
	rootCmd.AddCommand(runCmd(), listCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range scenarios {
				fmt.Printf("%-4s %s\n", s.name, s.description)
			}
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run one scenario, or all with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				for _, s := range scenarios {
					if err := runScenario(cmd, s); err != nil {
						return err
					}
				}
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one scenario name, or --all")
			}
			s, ok := findScenario(args[0])
			if !ok {
				return fmt.Errorf("unknown scenario %q", args[0])
			}
			return runScenario(cmd, s)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run every scenario in sequence")
	return cmd
}

func findScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}
