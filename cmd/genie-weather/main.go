package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	ctx := newCommandContext()
	cmd := newRootCommand(ctx)
	err := cmd.Execute()
	if cerr := ctx.close(); err == nil {
		err = cerr
	}
	if err != nil {
		var silent silentError
		if !errors.Is(err, context.Canceled) && !errors.As(err, &silent) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
