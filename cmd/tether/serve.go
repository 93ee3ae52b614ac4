package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tether/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feed server",
	Long:  `Starts the HTTP feed server: /events (SSE), /objects, /healthz and /metrics. With --demo a synthetic workload keeps the feed busy.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		listen, _ := cmd.Flags().GetString("listen")
		demo, _ := cmd.Flags().GetBool("demo")

		err := cli.RunServe(cli.ServeOptions{
			ConfigPath: configPath,
			Listen:     listen,
			Demo:       demo,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (overrides config)")
	serveCmd.Flags().Bool("demo", false, "Run the synthetic demo workload")
}
