package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mindspark-app/mindspark/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "mindspark",
	Short: "AI study assistant for summaries, notes, translations and flashcards",
	Long: `MindSpark turns study material into summaries, notes, proofread text,
translations, image analyses and flashcards using a configurable AI
provider. Results can be saved to a local library, exported, served to
a browser dashboard, or exposed to AI agents over MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep saved work in memory only")
}
