package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agbru/compmgr/internal/app"
	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/worker"
)

func main() {
	// Workers are this same binary started with the worker subcommand.
	if worker.IsInvocation(os.Args[1:]) {
		os.Exit(worker.Serve(os.Args[2:], worker.ResultFile()))
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperrors.ExitCodeFor(err))
	}

	exitCode := application.Run(context.Background(), os.Stdout)
	os.Exit(exitCode)
}
