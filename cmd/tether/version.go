package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tether"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tether version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tether", tether.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
