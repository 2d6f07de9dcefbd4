package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mindspark-app/mindspark/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mindspark configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the AI provider, model, translation languages, study preferences and storage, and writes a .mindspark.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
