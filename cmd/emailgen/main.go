// Package main provides the emailgen command line tool.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/internal/service"
)

const (
	Version = "0.1.0"
	appName = "emailgen"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Compose emails with a language model",
		Long: `emailgen turns a short description of an email (tone, length, style,
language, sender, recipient, purpose) plus optional attachments into a
finished email.

The API key is read from OPENAI_API_KEY or ANTHROPIC_API_KEY depending on
LLM_PROVIDER, or from a .env file in the working directory.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(generateCmd(&logLevel))
	cmd.AddCommand(presetsCmd())
	cmd.AddCommand(optionsCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List email presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range model.Presets() {
				fmt.Fprintf(out, "%s (%s)\n  %s\n", p.Name, p.Tone, p.Purpose)
			}
			return nil
		},
	}
}

func optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the available option values as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(model.AllOptions(model.Models()))
		},
	}
}

// exportFormat maps an output path to an export format.
func exportFormat(path string) (string, error) {
	switch ext := extension(path); ext {
	case "txt", "pdf":
		return ext, nil
	default:
		return "", fmt.Errorf("%w: output must end in .txt or .pdf", service.ErrUnknownFormat)
	}
}
