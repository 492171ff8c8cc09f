package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string
	root := &cobra.Command{
		Use:           "scout",
		Short:         "Company research and strategic account plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (JSON or YAML; default config.json)")

	root.AddCommand(
		newServeCmd(&configPath),
		newResearchCmd(&configPath),
		newReportsCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
