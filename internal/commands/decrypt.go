package commands

import (
	"github.com/spf13/cobra"

	"github.com/east-technologies/phpseal/internal/logic"
)

// NewDecryptCommand creates the decrypt subcommand.
func NewDecryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "decrypt [flags] [paths/patterns...]",
		Aliases: []string{"dec"},
		Short:   "Restore original sources from encrypted artifacts",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			cfg.Decrypt = true

			if err := cfg.Validate(); err != nil {
				return err
			}

			return logic.Run(cmd.Context(), cfg)
		},
	}
}
