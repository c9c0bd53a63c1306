package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "beaconctl",
		Short:         "Operational tooling for the Beacon matching service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRescanCmd())
	root.AddCommand(newRebuildBreakdownsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
