// Command lodestar plays and checks narrative content from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/lodestar/internal/cli"
	"github.com/roach88/lodestar/internal/config"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cli.NewRootCommand(cfg).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lodestar:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
