package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kayz/cadforge/internal/logger"
)

var (
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cadforge",
	Short: "cadforge turns part descriptions into parametric CadQuery code",
	Long: `cadforge turns a natural-language or document-based description of a
mechanical part into parametric CadQuery (Python) source code, using a
generative model as the synthesis engine.

Commands:
  cadforge generate   Generate CAD code from a prompt or spec document
  cadforge doctor     Check provider and config health
  cadforge version    Print the version`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error, fatal")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
