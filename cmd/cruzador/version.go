package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cruzador/internal/api/v1"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Muestra la version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cruzador %s\n", v1.Version)
	},
}
