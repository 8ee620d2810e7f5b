// Command eventhistory backfills contact histories from message archives and
// reads back contact histories and channel logs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/eventhistory/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
