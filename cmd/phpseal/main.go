// Command phpseal encrypts PHP source files into self-contained
// artifacts and restores them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/east-technologies/phpseal/internal/commands"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Interrupts stop the batch between files; an in-flight file always
	// completes or fails atomically.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := commands.NewRootCommand(version)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		os.Exit(1)
	}
}
