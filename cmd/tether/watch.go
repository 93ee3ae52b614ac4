package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tether/internal/cli"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail a running feed server",
	Long:  `Connects to a feed server's SSE endpoint and renders events line by line.`,
	Run: func(cmd *cobra.Command, args []string) {
		url, _ := cmd.Flags().GetString("url")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		err := cli.RunWatch(cli.WatchOptions{
			URL:      url,
			NoBanner: noBanner,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("url", "u", "http://localhost:8787", "Feed server base URL")
	watchCmd.Flags().Bool("no-banner", false, "Skip the startup banner")
}
