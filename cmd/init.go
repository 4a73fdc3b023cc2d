package cmd

import (
	"github.com/spf13/cobra"

	"github.com/otto-edu/otto/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize otto configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure otto and generates a .otto.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
