package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/east-technologies/phpseal/internal/keys"
)

// NewKeygenCommand creates the keygen subcommand. By default it writes a
// package with a random master key; with --password it prompts (no echo)
// and derives the master key from the passphrase instead.
func NewKeygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keygen [flags]",
		Aliases: []string{"gen"},
		Short:   "Generate a key package for an encryption batch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cmd.Flags().GetString("keys-dir")
			if err != nil {
				return fmt.Errorf("reading keys-dir flag: %w", err)
			}

			usePassword, err := cmd.Flags().GetBool("password")
			if err != nil {
				return fmt.Errorf("reading password flag: %w", err)
			}

			if !usePassword {
				material, err := keys.Generate(dir)
				if err != nil {
					return err
				}

				fmt.Printf("Key package written to %q\n", material.Path)

				return nil
			}

			password, err := promptPassword()
			if err != nil {
				return err
			}

			masterKey, salt, err := keys.MasterKeyFromPassword(password)
			if err != nil {
				return err
			}

			path, err := keys.Save(keys.NewPackage(masterKey, salt), dir)
			if err != nil {
				return err
			}

			fmt.Printf("Key package written to %q\n", path)

			return nil
		},
	}

	cmd.Flags().BoolP("password", "p", false, "Derive the master key from a passphrase prompt")

	return cmd
}

// promptPassword reads a passphrase twice from the terminal without echo.
func promptPassword() (string, error) {
	fd := int(syscall.Stdin)

	if !term.IsTerminal(fd) {
		return "", errors.New("passphrase entry requires a terminal")
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")

	first, err := term.ReadPassword(fd)

	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")

	second, err := term.ReadPassword(fd)

	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passphrases do not match")
	}

	if len(first) == 0 {
		return "", errors.New("passphrase must not be empty")
	}

	return string(first), nil
}
