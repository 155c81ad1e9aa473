package commands

import (
	"github.com/spf13/cobra"

	"github.com/east-technologies/phpseal/internal/logic"
)

// NewEncryptCommand creates the encrypt subcommand.
func NewEncryptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] [paths/patterns...]",
		Aliases: []string{"enc"},
		Short:   "Encrypt PHP files into self-contained artifacts",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return logic.Run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().Bool("obfuscate-vars", true, "Rename variables before encryption")
	cmd.Flags().Bool("obfuscate-functions", false, "Rename function definitions and calls before encryption")
	cmd.Flags().Bool("obfuscate-classes", false, "Rename classes before encryption")
	cmd.Flags().Int("chunk-size", 8192, "Plaintext chunk size in bytes")

	return cmd
}
