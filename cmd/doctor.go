package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kayz/cadforge/internal/config"
)

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check provider and config health (offline)",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Doctor: provider config")

	warn := 0
	provider := strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	switch provider {
	case "", "gemini", "google", "openai":
		fmt.Fprintf(out, "- OK   provider: %s\n", displayProvider(provider))
	default:
		warn++
		fmt.Fprintf(out, "- WARN provider: unknown %q (expected gemini or openai)\n", cfg.AI.Provider)
	}

	if cfg.AI.APIKey == "" {
		warn++
		fmt.Fprintf(out, "- WARN api key: empty (set CADFORGE_API_KEY or ai.api_key in %s)\n", config.ConfigPath())
	} else {
		fmt.Fprintln(out, "- OK   api key: present")
	}

	if cfg.AI.Model == "" {
		warn++
		fmt.Fprintln(out, "- WARN model: empty, provider default will be used")
	} else {
		fmt.Fprintf(out, "- OK   model: %s\n", cfg.AI.Model)
	}

	if cfg.Prompt.ExamplesDir != "" {
		fmt.Fprintf(out, "- INFO extra examples dir: %s\n", cfg.Prompt.ExamplesDir)
	}
	if cfg.Audit.Enabled {
		fmt.Fprintf(out, "- INFO audit enabled: %s (retention %dd)\n", cfg.Audit.Dir, cfg.Audit.RetentionDays)
	}

	if warn > 0 {
		fmt.Fprintf(out, "Doctor summary: warnings=%d\n", warn)
	} else {
		fmt.Fprintln(out, "Doctor summary: no config issues found")
	}
	return nil
}

func displayProvider(p string) string {
	if p == "" || p == "google" {
		return "gemini"
	}
	return p
}

func init() {
	rootCmd.AddCommand(newDoctorCommand())
}
