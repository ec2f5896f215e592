// Command baton counts over an integer range, with the values handed between
// concurrent participants in strict turn order.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Stdout, os.Stderr, os.Getenv, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
