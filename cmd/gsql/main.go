// Command gsql is a remote client for the TigerGraph GSQL console.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/patienttrace/backend/internal/gsql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gsql: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode forwards the console's return code for failed commands.
func exitCode(err error) int {
	var cmdErr *gsql.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code > 0 && cmdErr.Code < 256 {
		return cmdErr.Code
	}
	return 1
}
