// cmd/planner/main.go
//
// Entry point for the planner CLI. Every subcommand works on the project
// directory (default: the current directory) and its .planner/ folder.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(time.Now)
	err := c.rootCmd().ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: close log: %v\n", closeErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
