// Command patomic renders, submits and queries Datomic data over the
// REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/patomic/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
