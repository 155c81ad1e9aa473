package commands

import (
	"github.com/spf13/cobra"

	"github.com/east-technologies/phpseal/internal/logic"
)

// NewCheckCommand creates the check subcommand, a structural artifact
// validation that never touches key material.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [flags] [paths/patterns...]",
		Short: "Validate that files are well-formed phpseal artifacts",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			// Checking reads artifacts, so select by artifact suffix when
			// no include pattern narrows the walk.
			cfg.Decrypt = true

			return logic.RunCheck(cfg)
		},
	}
}
