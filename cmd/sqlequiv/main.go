// Command sqlequiv checks whether two SQL SELECT queries are equivalent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/sqlequiv/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
