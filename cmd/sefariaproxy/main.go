// Package main is the entry point for the Sefaria caching proxy.
//
// @title						sefariaproxy API
// @version					1.0
// @description				Caching proxy in front of OpenAI for the Sefaria study tools.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "sefariaproxy/cmd/sefariaproxy/docs"
	"sefariaproxy/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:          "sefariaproxy",
		Short:        "Caching proxy for translation and pronunciation requests",
		Version:      version.Version,
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(
		newServeCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
