// roverctl drives a mobile robot over a persistent connection to its
// controller: one keystroke per command, sensor reports as they arrive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"roverctl/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "roverctl: %v\n", err)
		os.Exit(1)
	}
}
