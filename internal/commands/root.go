// Package commands provides the command-line interface for phpseal.
//
// It implements commands for:
//   - key package generation
//   - encryption (with optional identifier obfuscation)
//   - decryption
//   - artifact validation
//
// Command-line parsing and environment variable binding go through cobra
// and viper; configuration validation lives in the config package.
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/east-technologies/phpseal/internal/config"
)

// NewRootCommand creates the root command with the flags shared by every
// subcommand. Flags are overridable through PHPSEAL_* environment
// variables.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "phpseal [flags] command [flags]",
		Short: "PHP source protection utility",
		Long: `phpseal converts PHP source files into self-contained encrypted
artifacts that can be restored exactly, with tamper detection and an
optional identifier-renaming pass.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringP("keys", "k", "", "Path to an existing key package (JSON)")
	root.PersistentFlags().String("keys-dir", "keys", "Directory for freshly generated key packages")
	root.PersistentFlags().IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().Bool("stats", false, "Print batch statistics")
	root.PersistentFlags().Bool("delete", false, "Delete the original file after successful processing")
	root.PersistentFlags().Bool("dry", false, "Preview the batch without writing anything")

	root.PersistentFlags().StringSlice("include", nil, "Include patterns (find -path semantics)")
	root.PersistentFlags().StringSlice("exclude", nil, "Exclude patterns (find -path semantics)")
	root.PersistentFlags().String("include-from", "", "JSONC file with include patterns")
	root.PersistentFlags().String("exclude-from", "", "JSONC file with exclude patterns")

	root.PersistentFlags().String("source-ext", ".php", "Extension of original source files")
	root.PersistentFlags().String("encrypt-ext", ".encrypted.php", "Extension of encrypted artifacts")

	root.AddCommand(
		NewEncryptCommand(),
		NewDecryptCommand(),
		NewKeygenCommand(),
		NewCheckCommand(),
	)

	return root
}

// loadConfig binds the command's flags into viper and unmarshals the full
// configuration, with positional args as the file list.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	viper.SetEnvPrefix("phpseal")
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(args) == 0 {
		cfg.Files = []string{"."}
	} else {
		cfg.Files = args
	}

	return &cfg, nil
}
